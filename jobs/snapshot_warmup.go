package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/vantage-ops/vantage/internal/finance"
	jobmetrics "github.com/vantage-ops/vantage/internal/jobs"
)

// SnapshotWarmupJob recomputes a project's financial snapshot so the next
// read is served from cache.
type SnapshotWarmupJob struct {
	Finance *finance.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSnapshotWarmupJob wires dependencies for the warmup handler.
func NewSnapshotWarmupJob(financeSvc *finance.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *SnapshotWarmupJob {
	return &SnapshotWarmupJob{Finance: financeSvc, Logger: logger, Metrics: metrics}
}

// Handle processes snapshot warmup tasks.
func (j *SnapshotWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Finance == nil {
		return errors.New("snapshot warmup: handler not configured")
	}
	var payload SnapshotWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Tenant == "" || payload.ProjectID == 0 {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskSnapshotWarmup)
	_, err := j.Finance.Snapshot(ctx, payload.Tenant, payload.ProjectID)
	err = tracker.End(err)
	if err != nil {
		j.logger().Warn("snapshot warmup failed",
			slog.String("tenant", payload.Tenant),
			slog.Int64("project_id", payload.ProjectID),
			slog.Any("error", err))
		return err
	}
	return nil
}

func (j *SnapshotWarmupJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
