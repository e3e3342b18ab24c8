package costs

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads cost entries for a project.
type Repository interface {
	ListForProject(ctx context.Context, tenant string, projectID int64) ([]CostEntry, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed cost reader.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ListForProject(ctx context.Context, tenant string, projectID int64) ([]CostEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, amount_net, incurred_on
		FROM cost_entries
		WHERE org_id = $1 AND project_id = $2
		ORDER BY incurred_on, id
	`, tenant, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []CostEntry
	for rows.Next() {
		var e CostEntry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.AmountNet, &e.IncurredOn); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
