package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCatalogStatsWarmup recomputes the admin statistics into the cache.
	TaskCatalogStatsWarmup = "catalog:stats_warmup"
	// JobSessionSweep is the metrics label of the in-process session sweep.
	JobSessionSweep = "session_sweep"
)

// StatsWarmupPayload describes why a warmup was requested.
type StatsWarmupPayload struct {
	Reason string `json:"reason"`
}

// NewStatsWarmupTask constructs an Asynq task.
func NewStatsWarmupTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(StatsWarmupPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogStatsWarmup, data), nil
}
