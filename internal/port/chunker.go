package port

import (
	"iter"

	"docrag/internal/domain"
)

// Chunker splits text into overlapping windows.
type Chunker interface {
	Windows(text string) iter.Seq[domain.Window]
	Size() int
	Overlap() int
}
