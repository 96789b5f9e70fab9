package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/noah-isme/sidupak-api/internal/observability"
)

// DefaultEvidenceMaxBytes is the largest accepted evidence PDF.
const DefaultEvidenceMaxBytes int64 = 5 << 20

var (
	// ErrEvidenceRequired indicates the request carried no evidence file.
	ErrEvidenceRequired = errors.New("evidence file is required")
	// ErrEvidenceTooLarge indicates the evidence file exceeded the configured limit.
	ErrEvidenceTooLarge = errors.New("evidence file exceeds maximum allowed size")
	// ErrEvidenceNotPDF indicates the evidence file is not a PDF document.
	ErrEvidenceNotPDF = errors.New("evidence file must be a PDF document")
)

// Evidence is an uploaded PDF that already passed the size and type checks.
type Evidence struct {
	OriginalName string
	Content      []byte
}

// Size reports the evidence length in bytes.
func (e *Evidence) Size() int64 {
	return int64(len(e.Content))
}

// Reader returns a fresh reader over the evidence bytes.
func (e *Evidence) Reader() io.Reader {
	return bytes.NewReader(e.Content)
}

// ReadEvidence loads file into memory, enforcing maxBytes and the application/pdf content type.
func ReadEvidence(file *multipart.FileHeader, maxBytes int64) (*Evidence, error) {
	if file == nil {
		return nil, ErrEvidenceRequired
	}
	if maxBytes <= 0 {
		maxBytes = DefaultEvidenceMaxBytes
	}

	if file.Size > maxBytes {
		observability.EvidenceRejected().WithLabelValues("size").Inc()
		return nil, ErrEvidenceTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open evidence file: %w", err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, maxBytes+1)); err != nil {
		return nil, fmt.Errorf("read evidence file: %w", err)
	}
	if int64(buf.Len()) > maxBytes {
		observability.EvidenceRejected().WithLabelValues("size").Inc()
		return nil, ErrEvidenceTooLarge
	}

	if !mimetype.Detect(buf.Bytes()).Is("application/pdf") {
		observability.EvidenceRejected().WithLabelValues("type").Inc()
		return nil, ErrEvidenceNotPDF
	}

	return &Evidence{
		OriginalName: strings.TrimSpace(file.Filename),
		Content:      buf.Bytes(),
	}, nil
}
