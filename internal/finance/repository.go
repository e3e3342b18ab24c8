package finance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-ops/vantage/internal/shared"
)

// Project is the schedule and budget slice of the project row that the
// scorer needs. The project subsystem owns the row; this is a read model.
type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	BudgetNet float64   `json:"budget_net"`
	Progress  float64   `json:"progress"`
	StartsOn  time.Time `json:"starts_on"`
	EndsOn    time.Time `json:"ends_on"`
}

// ProjectRef identifies a project across tenants.
type ProjectRef struct {
	Tenant    string
	ProjectID int64
}

// ProjectReader resolves the project read model.
type ProjectReader interface {
	Get(ctx context.Context, tenant string, projectID int64) (*Project, error)
}

// ProjectLister enumerates projects whose snapshots are worth keeping warm.
type ProjectLister interface {
	ListActive(ctx context.Context) ([]ProjectRef, error)
}

type PGProjectReader struct {
	pool *pgxpool.Pool
}

// NewProjectReader returns the Postgres-backed project read model.
func NewProjectReader(pool *pgxpool.Pool) *PGProjectReader {
	return &PGProjectReader{pool: pool}
}

func (r *PGProjectReader) Get(ctx context.Context, tenant string, projectID int64) (*Project, error) {
	var p Project
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(budget_net, 0), COALESCE(progress, 0),
		       COALESCE(starts_on, '0001-01-01'), COALESCE(ends_on, '0001-01-01')
		FROM projects
		WHERE org_id = $1 AND id = $2
	`, tenant, projectID).Scan(&p.ID, &p.Name, &p.BudgetNet, &p.Progress, &p.StartsOn, &p.EndsOn)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGProjectReader) ListActive(ctx context.Context) ([]ProjectRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT org_id, id
		FROM projects
		WHERE COALESCE(progress, 0) < 1
		ORDER BY org_id, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []ProjectRef
	for rows.Next() {
		var ref ProjectRef
		if err := rows.Scan(&ref.Tenant, &ref.ProjectID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
