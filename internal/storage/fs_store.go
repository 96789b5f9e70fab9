package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ensure FSStore implements EvidenceStore.
var _ EvidenceStore = (*FSStore)(nil)

// FSStore keeps evidence files in one flat directory of an afero filesystem.
type FSStore struct {
	fs  afero.Fs
	dir string
}

// NewFSStore prepares dir on fsys and returns a store rooted there.
func NewFSStore(fsys afero.Fs, dir string) (*FSStore, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create evidence directory %s: %w", dir, err)
	}
	return &FSStore{fs: fsys, dir: dir}, nil
}

// NewOSStore is an FSStore on the host filesystem.
func NewOSStore(dir string) (*FSStore, error) {
	return NewFSStore(afero.NewOsFs(), dir)
}

// Ready reports whether the evidence directory is still present.
func (s *FSStore) Ready(context.Context) error {
	info, err := s.fs.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("stat evidence directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("evidence path %s is not a directory", s.dir)
	}
	return nil
}

func (s *FSStore) path(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

func (s *FSStore) Write(ctx context.Context, name string, r io.Reader, size int64) error {
	_, span := tracer.Start(ctx, "FSStore.Write", trace.WithAttributes(
		attribute.String("evidence.name", name),
		attribute.Int64("evidence.size", size),
	))
	defer span.End()

	target, err := s.path(name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid name")
		return err
	}

	file, err := s.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		span.SetStatus(codes.Error, "file exists")
		return ErrEvidenceExists
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create file")
		return fmt.Errorf("create evidence file: %w", err)
	}

	if _, err := io.Copy(file, r); err != nil {
		_ = file.Close()
		_ = s.fs.Remove(target)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write file")
		return fmt.Errorf("write evidence file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = s.fs.Remove(target)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to close file")
		return fmt.Errorf("close evidence file: %w", err)
	}

	span.SetStatus(codes.Ok, "stored file")
	return nil
}

func (s *FSStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	_, span := tracer.Start(ctx, "FSStore.Open", trace.WithAttributes(
		attribute.String("evidence.name", name),
	))
	defer span.End()

	target, err := s.path(name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid name")
		return nil, err
	}

	file, err := s.fs.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			span.SetStatus(codes.Ok, "did not find file")
			return nil, ErrEvidenceNotExist
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open file")
		return nil, fmt.Errorf("open evidence file: %w", err)
	}

	span.SetStatus(codes.Ok, "opened file")
	return file, nil
}

func (s *FSStore) DeleteIfExists(ctx context.Context, name string) error {
	_, span := tracer.Start(ctx, "FSStore.DeleteIfExists", trace.WithAttributes(
		attribute.String("evidence.name", name),
	))
	defer span.End()

	target, err := s.path(name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid name")
		return err
	}

	if err := s.fs.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to remove file")
		return fmt.Errorf("remove evidence file: %w", err)
	}

	span.SetStatus(codes.Ok, "removed file")
	return nil
}
