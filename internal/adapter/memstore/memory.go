// Package memstore keeps a chunk index in process memory.
package memstore

import (
	"sync"

	"docrag/internal/domain"
)

type MemoryStore struct {
	mu       sync.RWMutex
	chunks   []domain.Chunk
	manifest *domain.Manifest
	saves    int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save replaces the stored index with a copy of chunks.
func (s *MemoryStore) Save(chunks []domain.Chunk, manifest domain.Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = cloneChunks(chunks)
	s.manifest = &manifest
	s.saves++
	return nil
}

func (s *MemoryStore) Load() ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.manifest == nil {
		return nil, domain.ErrIndexNotFound
	}
	return cloneChunks(s.chunks), nil
}

func (s *MemoryStore) Manifest() (domain.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.manifest == nil {
		return domain.Manifest{}, domain.ErrIndexNotFound
	}
	return *s.manifest, nil
}

// Saves returns how many times Save has succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *MemoryStore) Close() error {
	return nil
}

func cloneChunks(chunks []domain.Chunk) []domain.Chunk {
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.Embedding = append([]float32(nil), c.Embedding...)
		out[i] = c
	}
	return out
}
