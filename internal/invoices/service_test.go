package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vantage-ops/vantage/internal/audit"
	"github.com/vantage-ops/vantage/internal/quotes"
	"github.com/vantage-ops/vantage/internal/settings"
	"github.com/vantage-ops/vantage/internal/shared"
)

type memoryInvoiceRepo struct {
	invoices      map[int64]*Invoice
	payments      map[int64][]PaymentRecord
	nextInvoiceID int64
	nextPaymentID int64
}

func newMemoryInvoiceRepo() *memoryInvoiceRepo {
	return &memoryInvoiceRepo{
		invoices: make(map[int64]*Invoice),
		payments: make(map[int64][]PaymentRecord),
	}
}

func (r *memoryInvoiceRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryInvoiceRepo) Get(ctx context.Context, tenant string, id int64) (*Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := *inv
	return &out, nil
}

func (r *memoryInvoiceRepo) GetByQuote(ctx context.Context, tenant string, quoteID int64) (*Invoice, error) {
	for _, inv := range r.invoices {
		if inv.QuoteID == quoteID {
			out := *inv
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryInvoiceRepo) ListForProject(ctx context.Context, tenant string, projectID int64) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		if inv.ProjectID == projectID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (r *memoryInvoiceRepo) Create(ctx context.Context, tenant string, inv Invoice) (int64, error) {
	for _, existing := range r.invoices {
		if existing.QuoteID == inv.QuoteID {
			return 0, shared.ErrDuplicate
		}
	}
	r.nextInvoiceID++
	inv.ID = r.nextInvoiceID
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	r.invoices[inv.ID] = &inv
	return inv.ID, nil
}

func (r *memoryInvoiceRepo) InsertPayment(ctx context.Context, tenant string, p PaymentRecord) (int64, error) {
	r.nextPaymentID++
	p.ID = r.nextPaymentID
	r.payments[p.InvoiceID] = append(r.payments[p.InvoiceID], p)
	return p.ID, nil
}

func (r *memoryInvoiceRepo) ApplyPayment(ctx context.Context, tenant string, invoiceID int64, amount float64) error {
	inv, ok := r.invoices[invoiceID]
	if !ok {
		return shared.ErrNotFound
	}
	inv.AmountPaidGross += amount
	switch {
	case inv.AmountPaidGross >= inv.AmountInvoicedGross:
		inv.Status = InvoiceStatusPaid
	case inv.AmountPaidGross > 0:
		inv.Status = InvoiceStatusPartiallyPaid
	}
	inv.UpdatedAt = time.Now()
	return nil
}

func (r *memoryInvoiceRepo) ListPayments(ctx context.Context, tenant string, invoiceID int64) ([]PaymentRecord, error) {
	return r.payments[invoiceID], nil
}

type memoryQuoteReader struct {
	quotes map[int64]*quotes.Quote
}

func (r *memoryQuoteReader) Get(ctx context.Context, tenant string, id int64) (*quotes.Quote, error) {
	q, ok := r.quotes[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := *q
	return &out, nil
}

type recordingAudit struct {
	entries []audit.Entry
}

func (a *recordingAudit) Log(ctx context.Context, entry audit.Entry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func (a *recordingAudit) count(action string) int {
	n := 0
	for _, e := range a.entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

const tenant = "org-1"

func acceptedQuote(id, projectID int64, net, tax float64) *quotes.Quote {
	return &quotes.Quote{
		ID:        id,
		ProjectID: projectID,
		Version:   1,
		Status:    quotes.QuoteStatusAccepted,
		TotalNet:  net,
		TotalTax:  tax,
	}
}

func newTestService(repo *memoryInvoiceRepo, reader *memoryQuoteReader) (*Service, *recordingAudit) {
	auditLog := &recordingAudit{}
	svc := NewService(repo, reader, auditLog, settings.Static{Settings: settings.Defaults}, nil)
	return svc, auditLog
}

func TestGenerateFromQuote(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryInvoiceRepo()
	reader := &memoryQuoteReader{quotes: map[int64]*quotes.Quote{
		1: acceptedQuote(1, 7, 2000, 380),
	}}
	svc, auditLog := newTestService(repo, reader)

	inv, err := svc.GenerateFromQuote(ctx, tenant, 1, "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(7), inv.ProjectID)
	require.Equal(t, int64(1), inv.QuoteID)
	require.Equal(t, 2380.0, inv.AmountInvoicedGross)
	require.Equal(t, 0.0, inv.AmountPaidGross)
	require.Equal(t, InvoiceStatusOpen, inv.Status)
	require.Equal(t, "EUR", inv.Currency)
	require.Equal(t, inv.SentDate.AddDate(0, 0, settings.Defaults.PaymentTermDays), inv.DueDate)
	require.Equal(t, 1, auditLog.count(audit.ActionInvoiceGenerated))
}

func TestGenerateRequiresAcceptedQuote(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryInvoiceRepo()
	q := acceptedQuote(1, 7, 2000, 380)
	q.Status = quotes.QuoteStatusSent
	reader := &memoryQuoteReader{quotes: map[int64]*quotes.Quote{1: q}}
	svc, _ := newTestService(repo, reader)

	_, err := svc.GenerateFromQuote(ctx, tenant, 1, "user-1")
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestGenerateMissingQuote(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(newMemoryInvoiceRepo(), &memoryQuoteReader{quotes: map[int64]*quotes.Quote{}})

	_, err := svc.GenerateFromQuote(ctx, tenant, 99, "user-1")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGenerateDuplicateGuard(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryInvoiceRepo()
	reader := &memoryQuoteReader{quotes: map[int64]*quotes.Quote{
		1: acceptedQuote(1, 7, 2000, 380),
	}}
	svc, _ := newTestService(repo, reader)

	_, err := svc.GenerateFromQuote(ctx, tenant, 1, "user-1")
	require.NoError(t, err)

	_, err = svc.GenerateFromQuote(ctx, tenant, 1, "user-1")
	require.ErrorIs(t, err, shared.ErrDuplicate)
	require.Len(t, repo.invoices, 1)
}

func TestRegisterPaymentRejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(newMemoryInvoiceRepo(), &memoryQuoteReader{})

	_, err := svc.RegisterPayment(ctx, tenant, 1, 0, "transfer", "", "user-1")
	require.ErrorIs(t, err, shared.ErrInvalidAmount)

	_, err = svc.RegisterPayment(ctx, tenant, 1, -50, "transfer", "", "user-1")
	require.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestRegisterPaymentMissingInvoice(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(newMemoryInvoiceRepo(), &memoryQuoteReader{})

	_, err := svc.RegisterPayment(ctx, tenant, 42, 100, "transfer", "", "user-1")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPaymentsDeriveStatus(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryInvoiceRepo()
	reader := &memoryQuoteReader{quotes: map[int64]*quotes.Quote{
		1: acceptedQuote(1, 7, 2000, 380),
	}}
	svc, auditLog := newTestService(repo, reader)

	inv, err := svc.GenerateFromQuote(ctx, tenant, 1, "user-1")
	require.NoError(t, err)

	partial, err := svc.RegisterPayment(ctx, tenant, inv.ID, 1000, "transfer", "PAY-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, InvoiceStatusPartiallyPaid, partial.Status)
	require.Equal(t, 1000.0, partial.AmountPaidGross)

	paid, err := svc.RegisterPayment(ctx, tenant, inv.ID, 1380, "transfer", "PAY-2", "user-1")
	require.NoError(t, err)
	require.Equal(t, InvoiceStatusPaid, paid.Status)
	require.Equal(t, paid.AmountInvoicedGross, paid.AmountPaidGross)

	require.Equal(t, 2, auditLog.count(audit.ActionPaymentRegistered))

	payments, err := svc.Payments(ctx, tenant, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
}

func TestPaymentsSumToTotalRegardlessOfBatching(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryInvoiceRepo()
	reader := &memoryQuoteReader{quotes: map[int64]*quotes.Quote{
		1: acceptedQuote(1, 7, 2000, 380),
	}}
	svc, _ := newTestService(repo, reader)

	inv, err := svc.GenerateFromQuote(ctx, tenant, 1, "user-1")
	require.NoError(t, err)

	for _, amount := range []float64{380, 1000, 500, 500} {
		_, err := svc.RegisterPayment(ctx, tenant, inv.ID, amount, "transfer", "", "user-1")
		require.NoError(t, err)
	}

	final, err := svc.Get(ctx, tenant, inv.ID)
	require.NoError(t, err)
	require.Equal(t, InvoiceStatusPaid, final.Status)
	require.Equal(t, final.AmountInvoicedGross, final.AmountPaidGross)
}

func TestOverpaymentIsRecordedAsIs(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryInvoiceRepo()
	reader := &memoryQuoteReader{quotes: map[int64]*quotes.Quote{
		1: acceptedQuote(1, 7, 2000, 380),
	}}
	svc, _ := newTestService(repo, reader)

	inv, err := svc.GenerateFromQuote(ctx, tenant, 1, "user-1")
	require.NoError(t, err)

	over, err := svc.RegisterPayment(ctx, tenant, inv.ID, 3000, "transfer", "", "user-1")
	require.NoError(t, err)
	require.Equal(t, 3000.0, over.AmountPaidGross)
	require.Equal(t, InvoiceStatusPaid, over.Status)
}

func TestRegisterPaymentGeneratesReference(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryInvoiceRepo()
	reader := &memoryQuoteReader{quotes: map[int64]*quotes.Quote{
		1: acceptedQuote(1, 7, 2000, 380),
	}}
	svc, _ := newTestService(repo, reader)

	inv, err := svc.GenerateFromQuote(ctx, tenant, 1, "user-1")
	require.NoError(t, err)

	_, err = svc.RegisterPayment(ctx, tenant, inv.ID, 100, "cash", "", "user-1")
	require.NoError(t, err)

	payments, err := svc.Payments(ctx, tenant, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.NotEmpty(t, payments[0].Reference)
}
