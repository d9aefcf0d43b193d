package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	jobmetrics "github.com/inventario/inventario/internal/jobs"
)

// Sweeper removes idle sessions and reports how many were dropped.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// SessionSweepJob runs Sweeper on a cron schedule inside the web process,
// since the in-memory session store is only reachable from there.
type SessionSweepJob struct {
	sweeper Sweeper
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
	timeout time.Duration
}

// NewSessionSweepJob constructs a SessionSweepJob.
func NewSessionSweepJob(sweeper Sweeper, logger *slog.Logger, metrics *jobmetrics.Metrics, timeout time.Duration) *SessionSweepJob {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SessionSweepJob{sweeper: sweeper, logger: logger.With(slog.String("job", JobSessionSweep)), metrics: metrics, timeout: timeout}
}

// Run implements cron.Job.
func (j *SessionSweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	_, _ = j.RunOnce(ctx)
}

// RunOnce performs a single sweep.
func (j *SessionSweepJob) RunOnce(ctx context.Context) (int, error) {
	tracker := j.metrics.Track(JobSessionSweep)
	removed, err := j.sweeper.Sweep(ctx)
	if err = tracker.End(err); err != nil {
		j.logger.Error("sweep sessions", slog.Any("error", err))
		return removed, err
	}
	j.metrics.AddProcessed(JobSessionSweep, removed)
	if removed > 0 {
		j.logger.Info("swept idle sessions", slog.Int("removed", removed))
	}
	return removed, nil
}

// Schedule registers the job on a new cron runner. The caller starts and
// stops the returned runner.
func Schedule(spec string, job cron.Job, logger *slog.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger), cron.Recover(cron.DiscardLogger)))
	if _, err := c.AddJob(spec, job); err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("cron job scheduled", slog.String("spec", spec))
	}
	return c, nil
}
