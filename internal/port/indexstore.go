package port

import "docrag/internal/domain"

// ChunkStore persists a whole chunk index. Save replaces any prior index.
type ChunkStore interface {
	Save(chunks []domain.Chunk, manifest domain.Manifest) error

	// Load returns domain.ErrIndexNotFound when nothing has been saved yet.
	Load() ([]domain.Chunk, error)

	Manifest() (domain.Manifest, error)

	Close() error
}
