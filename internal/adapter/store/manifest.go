package store

import (
	"fmt"
	"time"

	"docrag/config"
	"docrag/internal/domain"
	"docrag/internal/port"
)

// CurrentSchemaVersion is the version of the persisted index layout.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

// NewManifest describes an index built from chunks with the given settings.
func NewManifest(chunks []domain.Chunk, model string, chunkSize, overlap int) domain.Manifest {
	docs := make(map[string]struct{})
	dim := 0
	for _, c := range chunks {
		docs[c.DocID] = struct{}{}
		if dim == 0 {
			dim = len(c.Embedding)
		}
	}
	return domain.Manifest{
		SchemaVersion:  CurrentSchemaVersion,
		EmbeddingModel: model,
		Dimension:      dim,
		ChunkSize:      chunkSize,
		ChunkOverlap:   overlap,
		TotalDocs:      len(docs),
		TotalChunks:    len(chunks),
		BuiltAt:        time.Now().UTC(),
	}
}

// CheckManifest compares an index manifest with the embedding model used at
// query time. It returns an error when the index was written by a newer
// schema, and a non-empty warning when the models differ.
func CheckManifest(m domain.Manifest, model string) (string, error) {
	if m.SchemaVersion > CurrentSchemaVersion {
		return "", fmt.Errorf("index created by newer version (v%d > v%d), rebuild it", m.SchemaVersion, CurrentSchemaVersion)
	}
	if m.EmbeddingModel != "" && model != "" && m.EmbeddingModel != model {
		return fmt.Sprintf("index was built with embedding model %q but queries use %q; rebuild the index", m.EmbeddingModel, model), nil
	}
	return "", nil
}

// Open returns the chunk store configured for the given root directory.
// readOnly only affects the bolt backend.
func Open(dir string, cfg *config.Config, readOnly bool) (port.ChunkStore, error) {
	path := config.IndexPath(dir, cfg)
	switch cfg.Store.Backend {
	case "bolt":
		return NewBoltStore(path, readOnly)
	case "json", "":
		return NewJSONStore(path), nil
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidConfiguration, cfg.Store.Backend)
	}
}
