package embedcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// NewLRU builds the in-process tier. Vectors are cloned on both sides of
// the cache so callers can never alias its storage.
func NewLRU(size int, ttl time.Duration) Cache {
	if size <= 0 || ttl <= 0 {
		return nil
	}
	return &lruCache{
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruCache struct {
	cache *expirable.LRU[string, []float32]
}

func (l *lruCache) GetBatch(ctx context.Context, modelName string, hashes []string) map[string][]float32 {
	_ = ctx
	found := make(map[string][]float32)
	for _, hash := range hashes {
		if values, ok := l.cache.Get(cacheKey(modelName, hash)); ok {
			found[hash] = cloneEmbedding(values)
		}
	}
	return found
}

func (l *lruCache) PutBatch(ctx context.Context, modelName string, entries map[string][]float32) {
	_ = ctx
	for hash, values := range entries {
		l.cache.Add(cacheKey(modelName, hash), cloneEmbedding(values))
	}
}
