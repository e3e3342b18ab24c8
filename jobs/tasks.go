package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSnapshotWarmup recomputes and re-caches a project's financial
	// snapshot after a lifecycle mutation bumped the cache version.
	TaskSnapshotWarmup = "finance:snapshot_warmup"
	// TaskSnapshotSweep fans out a warmup task for every active project.
	// Registered on a cron schedule so snapshots stay warm between mutations.
	TaskSnapshotSweep = "finance:snapshot_sweep"
)

// SnapshotWarmupPayload identifies the project whose snapshot should be
// recomputed.
type SnapshotWarmupPayload struct {
	Tenant    string `json:"tenant"`
	ProjectID int64  `json:"project_id"`
}

// NewSnapshotWarmupTask constructs the Asynq task.
func NewSnapshotWarmupTask(payload SnapshotWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSnapshotWarmup, data), nil
}

// NewSnapshotSweepTask constructs the periodic sweep task. It carries no
// payload; the handler enumerates active projects itself.
func NewSnapshotSweepTask() *asynq.Task {
	return asynq.NewTask(TaskSnapshotSweep, nil)
}
