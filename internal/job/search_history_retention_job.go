package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/quillhq/kbase/internal/repo"
)

const defaultHistoryMaxAgeDays = 180

// SearchHistoryRetentionJob trims old search history rows so the stats
// surface stays bounded over time.
type SearchHistoryRetentionJob struct {
	history    *repo.SearchHistoryRepo
	maxAgeDays int
}

func NewSearchHistoryRetentionJob(history *repo.SearchHistoryRepo, maxAgeDays int) *SearchHistoryRetentionJob {
	if maxAgeDays <= 0 {
		maxAgeDays = defaultHistoryMaxAgeDays
	}
	return &SearchHistoryRetentionJob{history: history, maxAgeDays: maxAgeDays}
}

func (j *SearchHistoryRetentionJob) Name() string {
	return "search_history_retention"
}

func (j *SearchHistoryRetentionJob) Run(ctx context.Context) error {
	if j.history == nil {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -j.maxAgeDays).Unix()
	deleted, err := j.history.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logutil.GetLogger(ctx).Info("search history pruned", zap.Int64("deleted", deleted))
	}
	return nil
}
