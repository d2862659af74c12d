package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"docrag/internal/port"
)

const DefaultCacheSize = 1000

// CachedEmbedder keeps recent embeddings in an LRU keyed by model and text.
// Failed calls are not cached. Concurrent misses for the same text share
// one call to the inner embedder; a caller that gives up does not cancel it
// for the others. The inner embedder bounds the call with its own timeout.
type CachedEmbedder struct {
	inner port.Embedder
	cache *lru.Cache[string, []float32]
	group singleflight.Group
}

func NewCachedEmbedder(inner port.Embedder, size int) *CachedEmbedder {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](size)
	return &CachedEmbedder{inner: inner, cache: cache}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(c.inner.ModelName() + "\x00" + text))
	return hex.EncodeToString(hash[:])
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if vec, ok := c.cache.Get(key); ok {
			return vec, nil
		}
		vec, err := c.inner.Embed(shared, text)
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, vec)
		return vec, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]float32), nil
	}
}

func (c *CachedEmbedder) ModelName() string {
	return c.inner.ModelName()
}

func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}
