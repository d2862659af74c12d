package port

import "docrag/internal/domain"

// Searcher ranks indexed chunks against a query embedding.
type Searcher interface {
	// Search returns at most k chunks by descending similarity. A non-empty
	// allowed set restricts candidates to those documents.
	Search(query []float32, k int, allowed domain.DocSet) ([]domain.ScoredChunk, error)
}
