package embedcache

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/newsrag/internal/model"
	"github.com/xxxsen/newsrag/internal/repo"
)

// NewDBCache wraps the shared postgres cache. All repo errors are logged
// and swallowed: an unreachable cache service only costs recomputation.
func NewDBCache(cacheRepo *repo.EmbeddingCacheRepo) Cache {
	if cacheRepo == nil {
		return nil
	}
	return &dbCache{repo: cacheRepo}
}

type dbCache struct {
	repo *repo.EmbeddingCacheRepo
}

func (d *dbCache) GetBatch(ctx context.Context, modelName string, hashes []string) map[string][]float32 {
	found, err := d.repo.GetBatch(ctx, modelName, hashes)
	if err != nil {
		logutil.GetLogger(ctx).Warn("embedding cache lookup failed", zap.Error(err))
		return map[string][]float32{}
	}
	return found
}

func (d *dbCache) PutBatch(ctx context.Context, modelName string, entries map[string][]float32) {
	if len(entries) == 0 {
		return
	}
	now := time.Now().Unix()
	items := make([]*model.EmbeddingCache, 0, len(entries))
	for hash, values := range entries {
		items = append(items, &model.EmbeddingCache{
			ModelName:   modelName,
			ContentHash: hash,
			Embedding:   values,
			Ctime:       now,
		})
	}
	if err := d.repo.SaveBatch(ctx, items); err != nil {
		logutil.GetLogger(ctx).Warn("failed to cache embeddings", zap.Error(err), zap.Int("count", len(items)))
	}
}
