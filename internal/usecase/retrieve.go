package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// DefaultSeparator joins chunk texts in a context string.
const DefaultSeparator = "\n\n---\n\n"

// RetrieveUseCase embeds a query and ranks indexed chunks against it.
type RetrieveUseCase struct {
	embedder  port.Embedder
	searcher  port.Searcher
	separator string
	logger    *zap.Logger
}

// NewRetrieveUseCase creates a new retrieve use case. An empty separator
// falls back to DefaultSeparator.
func NewRetrieveUseCase(
	embedder port.Embedder,
	searcher port.Searcher,
	separator string,
	logger *zap.Logger,
) *RetrieveUseCase {
	if separator == "" {
		separator = DefaultSeparator
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetrieveUseCase{
		embedder:  embedder,
		searcher:  searcher,
		separator: separator,
		logger:    logger,
	}
}

// Retrieve returns the topK chunks most similar to query, restricted to
// docFilter when it is non-empty. A blank query or topK <= 0 yields no
// results without calling the embedder.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, topK int, docFilter []string) ([]domain.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" || topK <= 0 {
		return nil, nil
	}

	vec, err := u.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := u.searcher.Search(vec, topK, domain.NewDocSet(docFilter...))
	if err != nil {
		return nil, err
	}

	u.logger.Debug("retrieved",
		zap.Int("top_k", topK),
		zap.Strings("doc_filter", docFilter),
		zap.Int("results", len(results)))
	return results, nil
}

// BuildContext joins the chunk texts in rank order. No results give "".
func (u *RetrieveUseCase) BuildContext(results []domain.ScoredChunk) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	return strings.Join(texts, u.separator)
}

// RetrieveContext runs Retrieve and returns the results with their context string.
func (u *RetrieveUseCase) RetrieveContext(ctx context.Context, query string, topK int, docFilter []string) ([]domain.ScoredChunk, string, error) {
	results, err := u.Retrieve(ctx, query, topK, docFilter)
	if err != nil {
		return nil, "", err
	}
	return results, u.BuildContext(results), nil
}

// ScoredChunkResult is a simplified result for CLI output.
type ScoredChunkResult struct {
	Rank  int     `json:"rank"`
	ID    string  `json:"id"`
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// ToResults converts scored chunks for JSON output.
func ToResults(results []domain.ScoredChunk) []ScoredChunkResult {
	out := make([]ScoredChunkResult, len(results))
	for i, r := range results {
		out[i] = ScoredChunkResult{
			Rank:  i + 1,
			ID:    r.Chunk.ID,
			DocID: r.Chunk.DocID,
			Score: r.Score,
			Text:  r.Chunk.Text,
		}
	}
	return out
}
