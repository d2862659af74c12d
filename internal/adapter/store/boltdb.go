package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"docrag/internal/domain"
)

var (
	bucketChunks = []byte("chunks")
	bucketMeta   = []byte("meta")
	keyManifest  = []byte("manifest")
)

// BoltStore persists the chunk index in a bbolt database. Chunks are keyed
// by their position so Load returns them in build order.
type BoltStore struct {
	db *bbolt.DB
}

type chunkRecord struct {
	ID        string    `json:"id"`
	DocID     string    `json:"doc_id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// NewBoltStore opens (or, unless readOnly, creates) the database at path.
// bbolt holds a file lock while open; a second writer gets domain.ErrIndexLocked.
func NewBoltStore(path string, readOnly bool) (*BoltStore, error) {
	if readOnly {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, path)
		}
	} else if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second, ReadOnly: readOnly})
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexLocked, path)
		}
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Save replaces the chunk bucket and manifest in a single transaction.
func (s *BoltStore) Save(chunks []domain.Chunk, manifest domain.Manifest) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketChunks) != nil {
			if err := tx.DeleteBucket(bucketChunks); err != nil {
				return fmt.Errorf("failed to clear chunks: %w", err)
			}
		}
		b, err := tx.CreateBucket(bucketChunks)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketChunks, err)
		}

		for i, c := range chunks {
			data, err := json.Marshal(chunkRecord(c))
			if err != nil {
				return err
			}
			if err := b.Put(seqKey(uint64(i)), data); err != nil {
				return err
			}
		}

		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketMeta, err)
		}
		data, err := json.Marshal(manifest)
		if err != nil {
			return err
		}
		return meta.Put(keyManifest, data)
	})
}

func (s *BoltStore) Load() ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		if b == nil {
			return domain.ErrIndexNotFound
		}

		chunks = make([]domain.Chunk, 0, b.Stats().KeyN)
		return b.ForEach(func(k, v []byte) error {
			var rec chunkRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt chunk record %d: %w", binary.BigEndian.Uint64(k), err)
			}
			chunks = append(chunks, domain.Chunk(rec))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

func (s *BoltStore) Manifest() (domain.Manifest, error) {
	var m domain.Manifest
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b == nil {
			return domain.ErrIndexNotFound
		}
		data := b.Get(keyManifest)
		if data == nil {
			return domain.ErrIndexNotFound
		}
		return json.Unmarshal(data, &m)
	})
	return m, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func seqKey(i uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, i)
	return key
}
