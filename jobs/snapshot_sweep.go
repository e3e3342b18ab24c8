package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/vantage-ops/vantage/internal/finance"
	jobmetrics "github.com/vantage-ops/vantage/internal/jobs"
)

// WarmupEnqueuer is the slice of Client the sweep needs.
type WarmupEnqueuer interface {
	EnqueueSnapshotWarmup(ctx context.Context, payload SnapshotWarmupPayload) (*asynq.TaskInfo, error)
}

// SnapshotSweepJob enqueues a warmup task for every active project so their
// financial snapshots stay warm between lifecycle mutations.
type SnapshotSweepJob struct {
	Projects finance.ProjectLister
	Client   WarmupEnqueuer
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewSnapshotSweepJob wires dependencies for the sweep handler.
func NewSnapshotSweepJob(projects finance.ProjectLister, client WarmupEnqueuer, logger *slog.Logger, metrics *jobmetrics.Metrics) *SnapshotSweepJob {
	return &SnapshotSweepJob{Projects: projects, Client: client, Logger: logger, Metrics: metrics}
}

// Handle processes snapshot sweep tasks.
func (j *SnapshotSweepJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Projects == nil || j.Client == nil {
		return errors.New("snapshot sweep: handler not configured")
	}

	tracker := j.Metrics.Track(TaskSnapshotSweep)
	err := j.sweep(ctx)
	return tracker.End(err)
}

func (j *SnapshotSweepJob) sweep(ctx context.Context) error {
	refs, err := j.Projects.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		_, err := j.Client.EnqueueSnapshotWarmup(ctx, SnapshotWarmupPayload{
			Tenant:    ref.Tenant,
			ProjectID: ref.ProjectID,
		})
		if err != nil {
			// Keep sweeping; a single failed enqueue only leaves one
			// snapshot cold until the next pass.
			j.logger().Warn("snapshot sweep enqueue failed",
				slog.String("tenant", ref.Tenant),
				slog.Int64("project_id", ref.ProjectID),
				slog.Any("error", err))
		}
	}
	return nil
}

func (j *SnapshotSweepJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
