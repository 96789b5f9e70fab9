package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/noah-isme/sidupak-api/internal/storage")

var (
	// ErrEvidenceNotExist indicates the named evidence file is absent from the store.
	ErrEvidenceNotExist = errors.New("evidence file does not exist")
	// ErrEvidenceExists indicates a write would replace an existing file.
	ErrEvidenceExists = errors.New("evidence file already exists")
	// ErrInvalidName indicates a name that is empty or escapes the store directory.
	ErrInvalidName = errors.New("invalid evidence file name")
)

// EvidenceStore persists one PDF per submission under an opaque generated name.
type EvidenceStore interface {
	// Write stores r under name. It never overwrites; ErrEvidenceExists when name is taken.
	Write(ctx context.Context, name string, r io.Reader, size int64) error
	// Open streams the file; ErrEvidenceNotExist when it is missing.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// DeleteIfExists removes the file and succeeds when it is already gone.
	DeleteIfExists(ctx context.Context, name string) error
}

// ReadinessChecker is implemented by stores that can report whether their backend is reachable.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// GenerateName returns a collision-resistant name that keeps the original extension.
func GenerateName(original string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(original)))
	if ext == "" || ext == "." || strings.ContainsAny(ext, `/\`) {
		ext = ".pdf"
	}
	return uuid.NewString() + ext
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}
