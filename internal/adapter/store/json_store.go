package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docrag/internal/domain"
)

// JSONStore persists the chunk index as a single JSON array of
// {id, doc_id, text, embedding} records, with the manifest in a sibling file.
type JSONStore struct {
	path string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) manifestPath() string {
	return strings.TrimSuffix(s.path, ".json") + ".manifest.json"
}

// Save overwrites any existing index. Files are replaced atomically and the
// write is guarded by a lock file so two builds cannot interleave.
func (s *JSONStore) Save(chunks []domain.Chunk, manifest domain.Manifest) error {
	lock := NewFileLock(s.path)
	if err := lock.TryLock(); err != nil {
		return err
	}
	defer lock.Unlock()

	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("failed to encode chunks: %w", err)
	}
	meta, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}
	return writeFileAtomic(s.manifestPath(), meta)
}

func (s *JSONStore) Load() ([]domain.Chunk, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, s.path)
		}
		return nil, err
	}

	var chunks []domain.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return chunks, nil
}

func (s *JSONStore) Manifest() (domain.Manifest, error) {
	var m domain.Manifest
	data, err := os.ReadFile(s.manifestPath())
	if err != nil {
		if os.IsNotExist(err) {
			return m, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, s.manifestPath())
		}
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return m, nil
}

func (s *JSONStore) Close() error {
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
