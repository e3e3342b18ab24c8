package app

import (
	"context"
	"log/slog"

	"github.com/vantage-ops/vantage/internal/platform/cache"
	"github.com/vantage-ops/vantage/jobs"
)

// ProjectSignal invalidates cached snapshots and schedules a warmup after a
// lifecycle mutation. Both effects are best-effort: the mutation already
// committed, so failures here are logged, never surfaced to the caller.
type ProjectSignal struct {
	Cache  *cache.Cache
	Jobs   *jobs.Client
	Logger *slog.Logger
}

// ProjectChanged bumps the cache version and enqueues a snapshot warmup.
func (s *ProjectSignal) ProjectChanged(ctx context.Context, tenant string, projectID int64) {
	if s == nil {
		return
	}
	if s.Cache != nil {
		if err := s.Cache.Bump(ctx); err != nil {
			s.logger().Warn("cache bump failed", slog.Any("error", err))
		}
	}
	if s.Jobs != nil {
		payload := jobs.SnapshotWarmupPayload{Tenant: tenant, ProjectID: projectID}
		if _, err := s.Jobs.EnqueueSnapshotWarmup(ctx, payload); err != nil {
			s.logger().Warn("snapshot warmup enqueue failed",
				slog.String("tenant", tenant),
				slog.Int64("project_id", projectID),
				slog.Any("error", err))
		}
	}
}

func (s *ProjectSignal) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
