package retriever

import (
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// Engine owns the currently loaded Index. Load and Reload swap in a fresh
// snapshot read from the store; searches in flight keep the snapshot they
// started with.
type Engine struct {
	store    port.ChunkStore
	logger   *zap.Logger
	index    atomic.Pointer[Index]
	manifest atomic.Pointer[domain.Manifest]
}

func NewEngine(store port.ChunkStore, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, logger: logger}
}

// Load reads the persisted chunks and makes them searchable.
func (e *Engine) Load() error {
	chunks, err := e.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}

	ix, err := NewIndex(chunks)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	m, err := e.store.Manifest()
	switch {
	case err == nil:
		e.manifest.Store(&m)
	case errors.Is(err, domain.ErrIndexNotFound):
		e.manifest.Store(nil)
	default:
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	e.index.Store(ix)
	e.logger.Debug("index loaded",
		zap.Int("chunks", ix.Len()),
		zap.Int("docs", len(ix.docs)),
		zap.Int("dimension", ix.Dimension()))
	return nil
}

// Reload replaces the loaded index. On failure the previous one stays active.
func (e *Engine) Reload() error {
	return e.Load()
}

// Index returns the current snapshot, or nil before the first Load.
func (e *Engine) Index() *Index {
	return e.index.Load()
}

// Manifest returns the manifest of the loaded index, if it has one.
func (e *Engine) Manifest() (domain.Manifest, bool) {
	m := e.manifest.Load()
	if m == nil {
		return domain.Manifest{}, false
	}
	return *m, true
}

func (e *Engine) Search(query []float32, k int, allowed domain.DocSet) ([]domain.ScoredChunk, error) {
	ix := e.index.Load()
	if ix == nil {
		return nil, fmt.Errorf("%w: engine not loaded", domain.ErrIndexNotFound)
	}
	return ix.Search(query, k, allowed)
}
