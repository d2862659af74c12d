package retriever

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"docrag/internal/domain"
)

// epsilon keeps cosine similarity finite when either vector is all zeros.
const epsilon = 1e-10

// Index is an immutable in-memory chunk index searched by exact cosine
// similarity. It is safe for concurrent use.
//
// Search is a linear scan over every candidate vector. That is fine for
// corpora of a few thousand chunks; larger corpora would need an ANN index.
type Index struct {
	chunks []domain.Chunk
	norms  []float64
	dim    int
	docs   map[string]int
}

// NewIndex builds an index over chunks, which must all carry embeddings of
// the same non-zero length. The slice is not copied and must not be
// modified afterwards.
func NewIndex(chunks []domain.Chunk) (*Index, error) {
	ix := &Index{
		chunks: chunks,
		norms:  make([]float64, len(chunks)),
		docs:   make(map[string]int),
	}

	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return nil, fmt.Errorf("%w: chunk %s has no embedding", domain.ErrDimensionMismatch, c.ID)
		}
		if i == 0 {
			ix.dim = len(c.Embedding)
		} else if len(c.Embedding) != ix.dim {
			return nil, fmt.Errorf("%w: chunk %s has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, c.ID, len(c.Embedding), ix.dim)
		}
		ix.norms[i] = norm(c.Embedding)
		ix.docs[c.DocID]++
	}

	return ix, nil
}

// Search ranks candidates by cosine similarity to query and returns the best
// k, highest first. Equal scores keep index order. When allowed is
// non-empty only chunks of those documents are candidates. An empty
// candidate set or k <= 0 yields an empty result, not an error.
func (ix *Index) Search(query []float32, k int, allowed domain.DocSet) ([]domain.ScoredChunk, error) {
	if k <= 0 || len(ix.chunks) == 0 {
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), ix.dim)
	}

	qNorm := norm(query)

	type scored struct {
		idx   int
		score float64
	}
	candidates := make([]scored, 0, len(ix.chunks))
	for i, c := range ix.chunks {
		if len(allowed) > 0 && !allowed.Contains(c.DocID) {
			continue
		}
		sim := dot(c.Embedding, query) / (ix.norms[i]*qNorm + epsilon)
		candidates = append(candidates, scored{idx: i, score: sim})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if k > len(candidates) {
		k = len(candidates)
	}

	results := make([]domain.ScoredChunk, k)
	for i := 0; i < k; i++ {
		results[i] = domain.ScoredChunk{
			Chunk: ix.chunks[candidates[i].idx],
			Score: candidates[i].score,
		}
	}
	return results, nil
}

func (ix *Index) Len() int {
	return len(ix.chunks)
}

func (ix *Index) Dimension() int {
	return ix.dim
}

// DocIDs returns the indexed document ids in sorted order.
func (ix *Index) DocIDs() []string {
	ids := make([]string, 0, len(ix.docs))
	for id := range ix.docs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (ix *Index) Stats() domain.Stats {
	return domain.Stats{
		TotalDocs:   len(ix.docs),
		TotalChunks: len(ix.chunks),
		Dimension:   ix.dim,
	}
}

// CosineSimilarity returns a·b / (‖a‖‖b‖ + ε). Vectors of different length score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	return dot(a, b) / (norm(a)*norm(b) + epsilon)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
