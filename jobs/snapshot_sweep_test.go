package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vantage-ops/vantage/internal/finance"
	jobmetrics "github.com/vantage-ops/vantage/internal/jobs"
)

type staticLister struct {
	refs []finance.ProjectRef
	err  error
}

func (l staticLister) ListActive(ctx context.Context) ([]finance.ProjectRef, error) {
	return l.refs, l.err
}

type recordingEnqueuer struct {
	payloads []SnapshotWarmupPayload
	failOn   int64
}

func (e *recordingEnqueuer) EnqueueSnapshotWarmup(ctx context.Context, payload SnapshotWarmupPayload) (*asynq.TaskInfo, error) {
	if e.failOn != 0 && payload.ProjectID == e.failOn {
		return nil, errors.New("enqueue refused")
	}
	e.payloads = append(e.payloads, payload)
	return &asynq.TaskInfo{}, nil
}

func TestSweepEnqueuesWarmupPerActiveProject(t *testing.T) {
	lister := staticLister{refs: []finance.ProjectRef{
		{Tenant: "org-1", ProjectID: 1},
		{Tenant: "org-1", ProjectID: 2},
		{Tenant: "org-2", ProjectID: 9},
	}}
	enq := &recordingEnqueuer{}
	job := NewSnapshotSweepJob(lister, enq, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), NewSnapshotSweepTask())
	require.NoError(t, err)
	require.Len(t, enq.payloads, 3)
	require.Equal(t, SnapshotWarmupPayload{Tenant: "org-2", ProjectID: 9}, enq.payloads[2])
}

func TestSweepContinuesPastFailedEnqueue(t *testing.T) {
	lister := staticLister{refs: []finance.ProjectRef{
		{Tenant: "org-1", ProjectID: 1},
		{Tenant: "org-1", ProjectID: 2},
	}}
	enq := &recordingEnqueuer{failOn: 1}
	job := NewSnapshotSweepJob(lister, enq, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), NewSnapshotSweepTask())
	require.NoError(t, err)
	require.Len(t, enq.payloads, 1)
	require.Equal(t, int64(2), enq.payloads[0].ProjectID)
}

func TestSweepPropagatesListerError(t *testing.T) {
	lister := staticLister{err: errors.New("db down")}
	job := NewSnapshotSweepJob(lister, &recordingEnqueuer{}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), NewSnapshotSweepTask())
	require.Error(t, err)
}
