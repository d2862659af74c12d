package port

import (
	"context"

	"docrag/internal/domain"
)

// DocumentSource enumerates the documents of a corpus.
type DocumentSource interface {
	Documents(root string) ([]domain.Document, error)
}

// TextExtractor returns the plain text of a document file.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}
