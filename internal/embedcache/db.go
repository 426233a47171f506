package embedcache

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/quillhq/kbase/internal/model"
	"github.com/quillhq/kbase/internal/pkg/timeutil"
	"github.com/quillhq/kbase/internal/repo"
)

// NewDBCache persists embeddings across restarts via the embedding_cache
// table. Repo errors degrade to cache misses.
func NewDBCache(cacheRepo *repo.EmbeddingCacheRepo) Cache {
	if cacheRepo == nil {
		return nil
	}
	return &dbCache{repo: cacheRepo}
}

type dbCache struct {
	repo *repo.EmbeddingCacheRepo
}

func (d *dbCache) Get(ctx context.Context, modelName, taskType, hash string) ([]float32, bool) {
	values, ok, err := d.repo.Get(ctx, modelName, taskType, hash)
	if err != nil {
		logutil.GetLogger(ctx).Warn("embedding cache read failed", zap.Error(err))
		return nil, false
	}
	return values, ok
}

func (d *dbCache) Save(ctx context.Context, modelName, taskType, hash string, values []float32) {
	err := d.repo.Save(ctx, &model.EmbeddingCache{
		ModelName:   modelName,
		TaskType:    taskType,
		ContentHash: hash,
		Embedding:   values,
		Ctime:       timeutil.NowUnix(),
	})
	if err != nil {
		logutil.GetLogger(ctx).Warn("embedding cache write failed", zap.Error(err))
	}
}
