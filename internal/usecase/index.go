package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"docrag/internal/adapter/store"
	"docrag/internal/domain"
	"docrag/internal/port"
)

// IndexUseCase builds the chunk index from a set of documents.
type IndexUseCase struct {
	extractor port.TextExtractor
	chunker   port.Chunker
	embedder  port.Embedder
	store     port.ChunkStore
	logger    *zap.Logger
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(
	extractor port.TextExtractor,
	chunker port.Chunker,
	embedder port.Embedder,
	store port.ChunkStore,
	logger *zap.Logger,
) *IndexUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexUseCase{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		logger:    logger,
	}
}

// SkippedDoc records a document that contributed no chunks.
type SkippedDoc struct {
	DocID  string
	Path   string
	Reason string
	Err    error
}

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	DocsIndexed   int
	ChunksCreated int
	Skipped       []SkippedDoc
	Duration      time.Duration
	Manifest      domain.Manifest
}

// Progress is called after each document has been processed.
type Progress func(done, total int, doc domain.Document)

// Build extracts, chunks and embeds every document and replaces the
// persisted index with the result. Documents whose text cannot be extracted
// or is empty are skipped. Any embedding failure aborts the build and leaves
// the previous index in place.
func (u *IndexUseCase) Build(ctx context.Context, docs []domain.Document, progress Progress) (*IndexResult, error) {
	start := time.Now()
	result := &IndexResult{}
	var chunks []domain.Chunk

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		u.logger.Info("indexing document", zap.String("doc_id", doc.ID), zap.String("path", doc.Path))

		text, err := u.extract(ctx, doc)
		if err != nil {
			u.logger.Warn("skipping document", zap.String("doc_id", doc.ID), zap.String("path", doc.Path), zap.Error(err))
			result.Skipped = append(result.Skipped, SkippedDoc{DocID: doc.ID, Path: doc.Path, Reason: err.Error(), Err: err})
		} else {
			docChunks, err := u.embedDocument(ctx, doc, text)
			if err != nil {
				u.logger.Error("embedding failed", zap.String("doc_id", doc.ID), zap.Error(err))
				return nil, fmt.Errorf("failed to index %s: %w", doc.ID, err)
			}
			if len(docChunks) > 0 {
				chunks = append(chunks, docChunks...)
				result.DocsIndexed++
			}
		}

		if progress != nil {
			progress(i+1, len(docs), doc)
		}
	}

	manifest := store.NewManifest(chunks, u.embedder.ModelName(), u.chunker.Size(), u.chunker.Overlap())
	if err := u.store.Save(chunks, manifest); err != nil {
		return nil, fmt.Errorf("failed to save index: %w", err)
	}

	result.ChunksCreated = len(chunks)
	result.Manifest = manifest
	result.Duration = time.Since(start)

	u.logger.Info("index built",
		zap.Int("docs", result.DocsIndexed),
		zap.Int("chunks", result.ChunksCreated),
		zap.Int("skipped", len(result.Skipped)),
		zap.Duration("duration", result.Duration))

	return result, nil
}

func (u *IndexUseCase) extract(ctx context.Context, doc domain.Document) (string, error) {
	text, err := u.extractor.Extract(ctx, doc.Path)
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrExtractionEmpty
	}
	return text, nil
}

// embedDocument chunks text and embeds every window in order.
func (u *IndexUseCase) embedDocument(ctx context.Context, doc domain.Document, text string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for w := range u.chunker.Windows(text) {
		vec, err := u.embedder.Embed(ctx, w.Text)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, domain.Chunk{
			ID:        ChunkID(doc.ID, len(chunks)),
			DocID:     doc.ID,
			Text:      w.Text,
			Embedding: vec,
		})
	}
	return chunks, nil
}

// ChunkID returns the identifier of the idx-th chunk of a document.
func ChunkID(docID string, idx int) string {
	return fmt.Sprintf("%s-chunk-%d", docID, idx)
}
