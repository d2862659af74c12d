package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/config"
	"docrag/internal/domain"
)

func sampleChunks() []domain.Chunk {
	return []domain.Chunk{
		{ID: "handbook-chunk-0", DocID: "handbook", Text: "Annual leave is 25 days.", Embedding: []float32{0.1, 0.2, 0.3}},
		{ID: "handbook-chunk-1", DocID: "handbook", Text: "Sick leave requires a note.", Embedding: []float32{0.4, 0.5, 0.6}},
		{ID: "remote-chunk-0", DocID: "remote", Text: "Remote work needs approval.", Embedding: []float32{-1, 0, 1}},
	}
}

func TestJSONStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "chunks.json")
	s := NewJSONStore(path)

	chunks := sampleChunks()
	manifest := NewManifest(chunks, "nomic-embed-text", 800, 100)
	require.NoError(t, s.Save(chunks, manifest))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, chunks, loaded)

	m, err := s.Manifest()
	require.NoError(t, err)
	assert.Equal(t, 3, m.TotalChunks)
	assert.Equal(t, 2, m.TotalDocs)
	assert.Equal(t, 3, m.Dimension)
	assert.Equal(t, "nomic-embed-text", m.EmbeddingModel)
	assert.Equal(t, CurrentSchemaVersion, m.SchemaVersion)
	require.NoError(t, s.Close())

	_, err = os.Stat(path + ".lock")
	assert.NoError(t, err, "lock file is left in place")
}

func TestJSONStore_RecordFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.json")
	require.NoError(t, NewJSONStore(path).Save(sampleChunks()[:1], domain.Manifest{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"id":"handbook-chunk-0","doc_id":"handbook","text":"Annual leave is 25 days.","embedding":[0.1,0.2,0.3]}]`,
		string(data))
}

func TestJSONStore_Overwrites(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "chunks.json"))
	require.NoError(t, s.Save(sampleChunks(), domain.Manifest{}))
	require.NoError(t, s.Save(sampleChunks()[2:], domain.Manifest{}))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 1)

	require.NoError(t, s.Save(nil, domain.Manifest{}))
	loaded, err = s.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestJSONStore_NotFound(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "chunks.json"))

	_, err := s.Load()
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
	_, err = s.Manifest()
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestJSONStore_Locked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.json")
	lock := NewFileLock(path)
	require.NoError(t, lock.TryLock())
	defer lock.Unlock()

	err := NewJSONStore(path).Save(sampleChunks(), domain.Manifest{})
	assert.ErrorIs(t, err, domain.ErrIndexLocked)
}

func TestFileLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chunks.json")
	a := NewFileLock(path)
	b := NewFileLock(path)

	require.NoError(t, a.TryLock())
	assert.ErrorIs(t, b.TryLock(), domain.ErrIndexLocked)
	require.NoError(t, a.Unlock())
	require.NoError(t, a.Unlock())

	require.NoError(t, b.TryLock())
	require.NoError(t, b.Unlock())
	assert.Equal(t, path+".lock", a.Path())
}

func TestBoltStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".rag", "index.db")
	s, err := NewBoltStore(path, false)
	require.NoError(t, err)

	_, err = s.Load()
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
	_, err = s.Manifest()
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)

	chunks := sampleChunks()
	require.NoError(t, s.Save(chunks, NewManifest(chunks, "m", 800, 100)))
	require.NoError(t, s.Save(chunks[:2], NewManifest(chunks[:2], "m", 800, 100)))
	require.NoError(t, s.Close())

	ro, err := NewBoltStore(path, true)
	require.NoError(t, err)
	defer ro.Close()

	loaded, err := ro.Load()
	require.NoError(t, err)
	assert.Equal(t, chunks[:2], loaded)

	m, err := ro.Manifest()
	require.NoError(t, err)
	assert.Equal(t, 2, m.TotalChunks)
	assert.Equal(t, 1, m.TotalDocs)
}

func TestBoltStore_KeepsOrder(t *testing.T) {
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "index.db"), false)
	require.NoError(t, err)
	defer s.Close()

	var chunks []domain.Chunk
	for i := 0; i < 300; i++ {
		chunks = append(chunks, domain.Chunk{ID: fmt.Sprintf("doc-chunk-%d", i), DocID: "doc", Embedding: []float32{float32(i)}})
	}
	require.NoError(t, s.Save(chunks, domain.Manifest{}))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, chunks, loaded)
}

func TestBoltStore_ReadOnlyMissing(t *testing.T) {
	_, err := NewBoltStore(filepath.Join(t.TempDir(), "index.db"), true)
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestCheckManifest(t *testing.T) {
	warn, err := CheckManifest(domain.Manifest{SchemaVersion: 1, EmbeddingModel: "nomic-embed-text"}, "nomic-embed-text")
	require.NoError(t, err)
	assert.Empty(t, warn)

	warn, err = CheckManifest(domain.Manifest{SchemaVersion: 1, EmbeddingModel: "nomic-embed-text"}, "mock")
	require.NoError(t, err)
	assert.Contains(t, warn, "mock")

	_, err = CheckManifest(domain.Manifest{SchemaVersion: CurrentSchemaVersion + 1}, "m")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()

	s, err := Open(dir, cfg, false)
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, s)

	cfg.Store.Backend = "bolt"
	s, err = Open(dir, cfg, false)
	require.NoError(t, err)
	assert.IsType(t, &BoltStore{}, s)
	require.NoError(t, s.Close())

	cfg.Store.Backend = "redis"
	_, err = Open(dir, cfg, false)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}
