package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"docrag/internal/adapter/chunker"
	"docrag/internal/domain"
)

// fakeExtractor serves text by path. Paths listed in fail return an error.
type fakeExtractor struct {
	texts map[string]string
	fail  map[string]bool
}

func (f *fakeExtractor) Extract(_ context.Context, path string) (string, error) {
	if f.fail[path] {
		return "", fmt.Errorf("cannot open %s", path)
	}
	return f.texts[path], nil
}

// fakeEmbedder maps text to a vector derived from its first byte and
// records every call. failOn makes Embed fail for texts containing it.
type fakeEmbedder struct {
	mu     sync.Mutex
	calls  []string
	failOn string
	vecs   map[string][]float32
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()

	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, domain.NewEmbeddingServiceError("embed", 500, []byte("boom"), nil)
	}
	if v, ok := f.vecs[text]; ok {
		return v, nil
	}
	return []float32{float32(len(text)), 1}, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake" }

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeSearcher returns canned results and records its inputs.
type fakeSearcher struct {
	results []domain.ScoredChunk
	err     error
	gotK    int
	gotDocs domain.DocSet
	calls   int
}

func (f *fakeSearcher) Search(_ []float32, k int, allowed domain.DocSet) ([]domain.ScoredChunk, error) {
	f.calls++
	f.gotK = k
	f.gotDocs = allowed
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func mustChunker(size, overlap int) *chunker.WindowChunker {
	c, err := chunker.NewWindowChunker(size, overlap)
	if err != nil {
		panic(err)
	}
	return c
}

var errSearch = errors.New("search failed")
