package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-ops/vantage/internal/platform/db"
	"github.com/vantage-ops/vantage/internal/shared"
)

// Repository defines data access for quotes and their items. All methods
// scope reads and writes to the supplied tenant.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, tenant string, id int64) (*Quote, error)
	List(ctx context.Context, tenant string, req ListQuotesRequest) ([]Quote, int, error)
	FindDraft(ctx context.Context, tenant string, projectID int64) (*Quote, error)
	NextVersion(ctx context.Context, tenant string, projectID int64) (int, error)
	Create(ctx context.Context, tenant string, quote Quote) (int64, error)
	UpdateStatus(ctx context.Context, tenant string, id int64, status QuoteStatus, sentAt *time.Time) error
	ListLiveItems(ctx context.Context, tenant string, projectID int64) ([]QuoteItem, error)
	CloneItems(ctx context.Context, tenant string, items []QuoteItem, targetQuoteID int64) error
	ProjectHasClient(ctx context.Context, tenant string, projectID int64) (bool, error)
}

// ListQuotesRequest filters the quote listing.
type ListQuotesRequest struct {
	ProjectID int64
	Status    *QuoteStatus
	Limit     int
	Offset    int
}

type repository struct {
	db   db.Querier
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed quote repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		repoTx := &repository{db: tx, pool: r.pool}
		return fn(db.ContextWithTx(ctx, tx), repoTx)
	})
}

const quoteColumns = `id, project_id, version, status, total_net, total_tax, revision_of, sent_at, frozen_at, created_at, updated_at`

func (r *repository) Get(ctx context.Context, tenant string, id int64) (*Quote, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM quotes WHERE org_id = $1 AND id = $2
	`, quoteColumns), tenant, id)
	q, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	items, err := r.listItemsForQuote(ctx, tenant, q.ID)
	if err != nil {
		return nil, err
	}
	q.Items = items
	return q, nil
}

func (r *repository) List(ctx context.Context, tenant string, req ListQuotesRequest) ([]Quote, int, error) {
	conditions := []string{"org_id = $1"}
	args := []interface{}{tenant}
	argPos := 2

	if req.ProjectID != 0 {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argPos))
		args = append(args, req.ProjectID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}

	whereClause := conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM quotes WHERE %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`
		SELECT %s FROM quotes
		WHERE %s
		ORDER BY project_id, version DESC
		LIMIT $%d OFFSET $%d
	`, quoteColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, total, rows.Err()
}

func (r *repository) FindDraft(ctx context.Context, tenant string, projectID int64) (*Quote, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM quotes WHERE org_id = $1 AND project_id = $2 AND status = $3
	`, quoteColumns), tenant, projectID, QuoteStatusDraft)
	q, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	items, err := r.listItemsForQuote(ctx, tenant, q.ID)
	if err != nil {
		return nil, err
	}
	q.Items = items
	return q, nil
}

// NextVersion continues the project's single version sequence regardless of
// source quote or status, so revisions off an old quote never branch the
// numbering. Uniqueness is additionally backed by an index on
// (org_id, project_id, version).
func (r *repository) NextVersion(ctx context.Context, tenant string, projectID int64) (int, error) {
	var next int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(version), 0) + 1 FROM quotes WHERE org_id = $1 AND project_id = $2
	`, tenant, projectID).Scan(&next)
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *repository) Create(ctx context.Context, tenant string, q Quote) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotes (org_id, project_id, version, status, total_net, total_tax, revision_of, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id
	`, tenant, q.ProjectID, q.Version, q.Status, q.TotalNet, q.TotalTax, q.RevisionOf).Scan(&id)
	if err != nil {
		// The partial unique index allows one DRAFT per project; a racing
		// insert loses with 23505.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, shared.ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) UpdateStatus(ctx context.Context, tenant string, id int64, status QuoteStatus, sentAt *time.Time) error {
	if sentAt != nil {
		// sent_at and frozen_at are set from the same instant on send.
		_, err := r.db.Exec(ctx, `
			UPDATE quotes SET status = $1, sent_at = $2, frozen_at = $2, updated_at = NOW()
			WHERE org_id = $3 AND id = $4
		`, status, *sentAt, tenant, id)
		return err
	}
	_, err := r.db.Exec(ctx, `
		UPDATE quotes SET status = $1, updated_at = NOW()
		WHERE org_id = $2 AND id = $3
	`, status, tenant, id)
	return err
}

func (r *repository) ListLiveItems(ctx context.Context, tenant string, projectID int64) ([]QuoteItem, error) {
	return r.listItems(ctx, `
		SELECT id, project_id, quote_id, description, quantity, unit_price_net, unit_cost_net, unit, sku, is_selected
		FROM quote_items
		WHERE org_id = $1 AND project_id = $2 AND quote_id IS NULL
		ORDER BY id
	`, tenant, projectID)
}

func (r *repository) listItemsForQuote(ctx context.Context, tenant string, quoteID int64) ([]QuoteItem, error) {
	return r.listItems(ctx, `
		SELECT id, project_id, quote_id, description, quantity, unit_price_net, unit_cost_net, unit, sku, is_selected
		FROM quote_items
		WHERE org_id = $1 AND quote_id = $2
		ORDER BY id
	`, tenant, quoteID)
}

func (r *repository) listItems(ctx context.Context, query string, args ...interface{}) ([]QuoteItem, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []QuoteItem
	for rows.Next() {
		var item QuoteItem
		if err := rows.Scan(&item.ID, &item.ProjectID, &item.QuoteID, &item.Description, &item.Quantity,
			&item.UnitPriceNet, &item.UnitCostNet, &item.Unit, &item.SKU, &item.IsSelected); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CloneItems deep-copies the given items as new rows owned by targetQuoteID.
// Both snapshot call sites (quote from project, revision from quote) share
// this path so the freezing semantics cannot diverge.
func (r *repository) CloneItems(ctx context.Context, tenant string, items []QuoteItem, targetQuoteID int64) error {
	for _, item := range items {
		_, err := r.db.Exec(ctx, `
			INSERT INTO quote_items (org_id, project_id, quote_id, description, quantity, unit_price_net, unit_cost_net, unit, sku, is_selected)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, tenant, item.ProjectID, targetQuoteID, item.Description, item.Quantity,
			item.UnitPriceNet, item.UnitCostNet, item.Unit, item.SKU, item.IsSelected)
		if err != nil {
			return fmt.Errorf("clone quote item: %w", err)
		}
	}
	return nil
}

func (r *repository) ProjectHasClient(ctx context.Context, tenant string, projectID int64) (bool, error) {
	var hasClient bool
	err := r.db.QueryRow(ctx, `
		SELECT client_id IS NOT NULL FROM projects WHERE org_id = $1 AND id = $2
	`, tenant, projectID).Scan(&hasClient)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, shared.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return hasClient, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuote(row rowScanner) (*Quote, error) {
	var q Quote
	err := row.Scan(&q.ID, &q.ProjectID, &q.Version, &q.Status, &q.TotalNet, &q.TotalTax,
		&q.RevisionOf, &q.SentAt, &q.FrozenAt, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}
