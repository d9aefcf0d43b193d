package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/inventario/inventario/internal/jobs"
)

// StatsWarmer recomputes and caches the admin statistics.
type StatsWarmer interface {
	Warm(ctx context.Context) error
}

// StatsWarmupJob handles TaskCatalogStatsWarmup.
type StatsWarmupJob struct {
	Stats   StatsWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewStatsWarmupJob wires dependencies for the warmup handler.
func NewStatsWarmupJob(stats StatsWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *StatsWarmupJob {
	return &StatsWarmupJob{Stats: stats, Logger: logger, Metrics: metrics, Timeout: 30 * time.Second}
}

// Handle processes statistics warmup tasks.
func (j *StatsWarmupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Stats == nil {
		return errors.New("stats warmup: handler not configured")
	}
	var payload StatsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskCatalogStatsWarmup)
	defer func() { err = tracker.End(err) }()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	start := time.Now()
	if err := j.Stats.Warm(ctx); err != nil {
		logger.Error("warm statistics", slog.Any("error", err))
		return err
	}
	j.Metrics.AddProcessed(TaskCatalogStatsWarmup, 1)
	logger.Info("statistics warmed", slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *StatsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCatalogStatsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskCatalogStatsWarmup))
}

// StatsInvalidator drops cached statistics.
type StatsInvalidator interface {
	Invalidate(ctx context.Context) error
}

// WarmupEnqueuer schedules a statistics warmup.
type WarmupEnqueuer interface {
	EnqueueStatsWarmup(ctx context.Context, reason string) error
}

// CatalogChanged is registered with the catalog service: every write bumps
// the statistics cache version and queues a warmup for the worker.
type CatalogChanged struct {
	Stats  StatsInvalidator
	Queue  WarmupEnqueuer
	Logger *slog.Logger
}

// Invalidate implements catalog.Invalidator. Queue failures are logged; the
// next admin request recomputes the statistics anyway.
func (c CatalogChanged) Invalidate(ctx context.Context) error {
	if c.Stats != nil {
		if err := c.Stats.Invalidate(ctx); err != nil {
			return err
		}
	}
	if c.Queue == nil {
		return nil
	}
	if err := c.Queue.EnqueueStatsWarmup(ctx, "catalog_write"); err != nil && c.Logger != nil {
		c.Logger.Warn("enqueue stats warmup", slog.Any("error", err))
	}
	return nil
}
