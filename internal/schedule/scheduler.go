package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Job is a named unit of background work. Run is invoked on the cron
// schedule and must respect ctx cancellation.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// CronScheduler runs jobs on standard five-field cron expressions. A job
// still running when its next tick fires is skipped, not stacked.
type CronScheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{cron: cron.New(cron.WithParser(parser))}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	if _, err := c.cron.AddFunc(spec, c.runner(job)); err != nil {
		logutil.GetLogger(context.Background()).Error("schedule job failed",
			zap.String("job", job.Name()),
			zap.String("spec", spec),
			zap.Error(err),
		)
		return err
	}
	logutil.GetLogger(context.Background()).Info("job scheduled",
		zap.String("job", job.Name()),
		zap.String("spec", spec),
	)
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.cron.Start()
}

// Stop blocks until in-flight jobs return.
func (c *CronScheduler) Stop() {
	<-c.cron.Stop().Done()
}

func (c *CronScheduler) runner(job Job) func() {
	var running atomic.Bool
	return func() {
		ctx := c.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		logger := logutil.GetLogger(ctx).With(zap.String("job", job.Name()))
		if !running.CompareAndSwap(false, true) {
			logger.Info("job skipped: previous run still active")
			return
		}
		defer running.Store(false)

		start := time.Now()
		logger.Info("job started")
		if err := job.Run(ctx); err != nil {
			logger.Error("job finished", zap.Error(err), zap.Duration("duration", time.Since(start)))
			return
		}
		logger.Info("job finished", zap.Duration("duration", time.Since(start)))
	}
}
