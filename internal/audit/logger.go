package audit

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-ops/vantage/internal/platform/db"
)

// Logger records lifecycle transitions. A failed write must fail the
// enclosing operation; callers never swallow the error.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// PGLogger writes entries into audit_logs. When the context carries an open
// transaction the insert joins it, so a rolled back transition leaves no
// audit record behind.
type PGLogger struct {
	pool *pgxpool.Pool
}

// NewPGLogger returns a new PGLogger.
func NewPGLogger(pool *pgxpool.Pool) *PGLogger {
	return &PGLogger{pool: pool}
}

// Log persists the entry.
func (l *PGLogger) Log(ctx context.Context, entry Entry) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if entry.Action == "" || entry.Tenant == "" || entry.ProjectID == 0 {
		return errors.New("audit entry requires action/tenant/project")
	}
	if entry.Actor == "" {
		entry.Actor = SystemActor
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	q := db.QuerierFrom(ctx, l.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO audit_logs (org_id, project_id, action, detail, actor, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.Tenant, entry.ProjectID, entry.Action, entry.Detail, entry.Actor, entry.At)
	return err
}
