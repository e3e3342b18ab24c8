package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed timeline repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) TimelineWindow(ctx context.Context, filters TimelineFilters, offset, limit int) ([]Entry, error) {
	conditions := []string{"org_id = $1"}
	args := []interface{}{filters.Tenant}
	argPos := 2

	if filters.ProjectID != 0 {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argPos))
		args = append(args, filters.ProjectID)
		argPos++
	}
	if filters.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", argPos))
		args = append(args, filters.Action)
		argPos++
	}
	if filters.Actor != "" {
		conditions = append(conditions, fmt.Sprintf("actor = $%d", argPos))
		args = append(args, filters.Actor)
		argPos++
	}
	if !filters.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("occurred_at >= $%d", argPos))
		args = append(args, filters.From)
		argPos++
	}
	if !filters.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("occurred_at <= $%d", argPos))
		args = append(args, filters.To)
		argPos++
	}

	whereClause := conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	query := fmt.Sprintf(`
		SELECT org_id, project_id, action, detail, actor, occurred_at
		FROM audit_logs
		WHERE %s
		ORDER BY occurred_at DESC, id DESC
		OFFSET $%d LIMIT $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, offset, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Tenant, &e.ProjectID, &e.Action, &e.Detail, &e.Actor, &e.At); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
