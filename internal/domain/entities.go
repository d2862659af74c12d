package domain

import "time"

// Document is a source file of the corpus. ID is derived from the file name
// and is unique per corpus.
type Document struct {
	ID   string
	Path string
}

// Chunk is a bounded window of a document's extracted text together with its
// embedding. Chunks are created by the index builder and never mutated.
type Chunk struct {
	ID        string    `json:"id"`
	DocID     string    `json:"doc_id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Manifest describes how a persisted index was built.
type Manifest struct {
	SchemaVersion  int       `json:"schema_version"`
	EmbeddingModel string    `json:"embedding_model"`
	Dimension      int       `json:"dimension"`
	ChunkSize      int       `json:"chunk_size"`
	ChunkOverlap   int       `json:"chunk_overlap"`
	TotalDocs      int       `json:"total_docs"`
	TotalChunks    int       `json:"total_chunks"`
	BuiltAt        time.Time `json:"built_at"`
}

type Stats struct {
	TotalDocs   int
	TotalChunks int
	Dimension   int
}

// DocSet is a set of document ids used to scope retrieval.
type DocSet map[string]struct{}

func NewDocSet(ids ...string) DocSet {
	if len(ids) == 0 {
		return nil
	}
	set := make(DocSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s DocSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Window is one emitted chunker window. Start and End are character
// offsets into the source text, End exclusive.
type Window struct {
	Start int
	End   int
	Text  string
}
