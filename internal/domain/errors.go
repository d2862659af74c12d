package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned when chunking or other startup
	// parameters are out of range. It is never retried.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrExtractionEmpty marks a document that produced no usable text.
	ErrExtractionEmpty = errors.New("no text extracted")

	ErrIndexNotFound     = errors.New("index not found")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrIndexLocked       = errors.New("index is locked by another build")
	ErrDuplicateDocID    = errors.New("duplicate document id")
)

// maxErrorBody bounds the response body kept on an EmbeddingServiceError.
const maxErrorBody = 300

// EmbeddingServiceError reports a failed call to the embedding service:
// transport failure, timeout, non-2xx status or an unusable response.
type EmbeddingServiceError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func NewEmbeddingServiceError(op string, status int, body []byte, err error) *EmbeddingServiceError {
	b := string(body)
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return &EmbeddingServiceError{Op: op, StatusCode: status, Body: b, Err: err}
}

func (e *EmbeddingServiceError) Error() string {
	msg := "embedding service: " + e.Op
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EmbeddingServiceError) Unwrap() error {
	return e.Err
}

// IsEmbeddingServiceError reports whether err wraps an EmbeddingServiceError.
func IsEmbeddingServiceError(err error) bool {
	var target *EmbeddingServiceError
	return errors.As(err, &target)
}
