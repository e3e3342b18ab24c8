package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-ops/vantage/internal/platform/db"
	"github.com/vantage-ops/vantage/internal/shared"
)

// Repository defines data access for invoices and payment records.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, tenant string, id int64) (*Invoice, error)
	GetByQuote(ctx context.Context, tenant string, quoteID int64) (*Invoice, error)
	ListForProject(ctx context.Context, tenant string, projectID int64) ([]Invoice, error)
	Create(ctx context.Context, tenant string, invoice Invoice) (int64, error)
	InsertPayment(ctx context.Context, tenant string, payment PaymentRecord) (int64, error)
	ApplyPayment(ctx context.Context, tenant string, invoiceID int64, amount float64) error
	ListPayments(ctx context.Context, tenant string, invoiceID int64) ([]PaymentRecord, error)
}

type repository struct {
	db   db.Querier
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed invoice repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		repoTx := &repository{db: tx, pool: r.pool}
		return fn(db.ContextWithTx(ctx, tx), repoTx)
	})
}

const invoiceColumns = `id, project_id, quote_id, amount_invoiced_gross, amount_paid_gross, status, currency, due_date, sent_date, created_at, updated_at`

func (r *repository) Get(ctx context.Context, tenant string, id int64) (*Invoice, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM invoices WHERE org_id = $1 AND id = $2
	`, invoiceColumns), tenant, id)
	return scanInvoice(row)
}

func (r *repository) GetByQuote(ctx context.Context, tenant string, quoteID int64) (*Invoice, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM invoices WHERE org_id = $1 AND quote_id = $2
	`, invoiceColumns), tenant, quoteID)
	return scanInvoice(row)
}

func (r *repository) ListForProject(ctx context.Context, tenant string, projectID int64) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM invoices WHERE org_id = $1 AND project_id = $2 ORDER BY id
	`, invoiceColumns), tenant, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

// Create inserts the invoice. The unique index on (org_id, quote_id) closes
// the check-then-act window of the application-level duplicate lookup; a
// unique violation surfaces as ErrDuplicate.
func (r *repository) Create(ctx context.Context, tenant string, inv Invoice) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoices (org_id, project_id, quote_id, amount_invoiced_gross, amount_paid_gross, status, currency, due_date, sent_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id
	`, tenant, inv.ProjectID, inv.QuoteID, inv.AmountInvoicedGross, inv.AmountPaidGross,
		inv.Status, inv.Currency, inv.DueDate, inv.SentDate).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, shared.ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) InsertPayment(ctx context.Context, tenant string, p PaymentRecord) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO payment_records (org_id, invoice_id, amount, method, reference, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, tenant, p.InvoiceID, p.Amount, p.Method, p.Reference, p.ReceivedAt).Scan(&id)
	return id, err
}

// ApplyPayment increments the paid amount and derives the status in one
// statement evaluated by the datastore. A read-increment-write pair in Go
// would lose updates under concurrent payment registration.
func (r *repository) ApplyPayment(ctx context.Context, tenant string, invoiceID int64, amount float64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices
		SET amount_paid_gross = amount_paid_gross + $1,
		    status = CASE
		        WHEN amount_paid_gross + $1 >= amount_invoiced_gross THEN 'PAID'
		        WHEN amount_paid_gross + $1 > 0 THEN 'PARTIALLY_PAID'
		        ELSE status
		    END,
		    updated_at = NOW()
		WHERE org_id = $2 AND id = $3
	`, amount, tenant, invoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListPayments(ctx context.Context, tenant string, invoiceID int64) ([]PaymentRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_id, amount, method, reference, received_at
		FROM payment_records
		WHERE org_id = $1 AND invoice_id = $2
		ORDER BY received_at, id
	`, tenant, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []PaymentRecord
	for rows.Next() {
		var p PaymentRecord
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.Reference, &p.ReceivedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row rowScanner) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.ProjectID, &inv.QuoteID, &inv.AmountInvoicedGross, &inv.AmountPaidGross,
		&inv.Status, &inv.Currency, &inv.DueDate, &inv.SentDate, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}
