package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/quillhq/kbase/internal/repo"
)

const defaultCacheMaxAgeDays = 30

// EmbeddingCacheCleanupJob evicts durable cache entries that have not been
// written to within the retention window.
type EmbeddingCacheCleanupJob struct {
	cache      *repo.EmbeddingCacheRepo
	maxAgeDays int
}

func NewEmbeddingCacheCleanupJob(cache *repo.EmbeddingCacheRepo, maxAgeDays int) *EmbeddingCacheCleanupJob {
	if maxAgeDays <= 0 {
		maxAgeDays = defaultCacheMaxAgeDays
	}
	return &EmbeddingCacheCleanupJob{cache: cache, maxAgeDays: maxAgeDays}
}

func (j *EmbeddingCacheCleanupJob) Name() string {
	return "embedding_cache_cleanup"
}

func (j *EmbeddingCacheCleanupJob) Run(ctx context.Context) error {
	if j.cache == nil {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -j.maxAgeDays).Unix()
	deleted, err := j.cache.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logutil.GetLogger(ctx).Info("embedding cache pruned", zap.Int64("deleted", deleted))
	}
	return nil
}
