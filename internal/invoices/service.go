package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/vantage-ops/vantage/internal/audit"
	"github.com/vantage-ops/vantage/internal/quotes"
	"github.com/vantage-ops/vantage/internal/settings"
	"github.com/vantage-ops/vantage/internal/shared"
)

// QuoteReader is the slice of the quote repository the generator needs.
type QuoteReader interface {
	Get(ctx context.Context, tenant string, id int64) (*quotes.Quote, error)
}

// Signal mirrors quotes.Signal for cache invalidation after mutations.
type Signal interface {
	ProjectChanged(ctx context.Context, tenant string, projectID int64)
}

// Service derives invoices from accepted quotes and reconciles payments.
type Service struct {
	repo     Repository
	quotes   QuoteReader
	auditLog audit.Logger
	settings settings.Provider
	signal   Signal
	clock    func() time.Time
}

// NewService wires the invoice generator and payment ledger. signal may be nil.
func NewService(repo Repository, quoteReader QuoteReader, auditLog audit.Logger, provider settings.Provider, signal Signal) *Service {
	return &Service{
		repo:     repo,
		quotes:   quoteReader,
		auditLog: auditLog,
		settings: provider,
		signal:   signal,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

var detail = message.NewPrinter(language.English)

func amountFmt(v float64) number.Formatter {
	return number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2))
}

// GenerateFromQuote creates the single invoice for an accepted quote. The
// gross amount is the quote's frozen net plus tax totals, never a live
// recomputation from items.
func (s *Service) GenerateFromQuote(ctx context.Context, tenant string, quoteID int64, actor string) (*Invoice, error) {
	quote, err := s.quotes.Get(ctx, tenant, quoteID)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if quote.Status != quotes.QuoteStatusAccepted {
		return nil, fmt.Errorf("%w: only accepted quotes can be invoiced", shared.ErrInvalidState)
	}

	cfg, err := s.settings.Get(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	var createdID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		_, err := repo.GetByQuote(ctx, tenant, quoteID)
		if err == nil {
			return shared.ErrDuplicate
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("check existing invoice: %w", err)
		}

		now := s.clock()
		gross := quote.TotalNet + quote.TotalTax
		createdID, err = repo.Create(ctx, tenant, Invoice{
			ProjectID:           quote.ProjectID,
			QuoteID:             quote.ID,
			AmountInvoicedGross: gross,
			AmountPaidGross:     0,
			Status:              InvoiceStatusOpen,
			Currency:            cfg.Currency,
			DueDate:             now.AddDate(0, 0, cfg.PaymentTermDays),
			SentDate:            now,
		})
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		return s.auditLog.Log(ctx, audit.Entry{
			ProjectID: quote.ProjectID,
			Tenant:    tenant,
			Action:    audit.ActionInvoiceGenerated,
			Detail:    detail.Sprintf("invoice generated from quote v%d (gross %v %s)", quote.Version, amountFmt(gross), cfg.Currency),
			Actor:     actor,
		})
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, tenant, quote.ProjectID)
	return s.repo.Get(ctx, tenant, createdID)
}

// RegisterPayment appends a payment record and applies the amount to the
// invoice atomically at the datastore. Overpayment is recorded as-is; the
// ledger reflects what was received, not what was expected.
func (s *Service) RegisterPayment(ctx context.Context, tenant string, invoiceID int64, amount float64, method, reference, actor string) (*Invoice, error) {
	if amount <= 0 {
		return nil, shared.ErrInvalidAmount
	}
	if reference == "" {
		reference = uuid.NewString()
	}

	var projectID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.Get(ctx, tenant, invoiceID)
		if err != nil {
			return fmt.Errorf("get invoice: %w", err)
		}
		projectID = inv.ProjectID

		now := s.clock()
		if _, err := repo.InsertPayment(ctx, tenant, PaymentRecord{
			InvoiceID:  invoiceID,
			Amount:     amount,
			Method:     method,
			Reference:  reference,
			ReceivedAt: now,
		}); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		if err := repo.ApplyPayment(ctx, tenant, invoiceID, amount); err != nil {
			return fmt.Errorf("apply payment: %w", err)
		}
		return s.auditLog.Log(ctx, audit.Entry{
			ProjectID: inv.ProjectID,
			Tenant:    tenant,
			Action:    audit.ActionPaymentRegistered,
			Detail:    detail.Sprintf("payment of %v %s registered (%s, ref %s)", amountFmt(amount), inv.Currency, method, reference),
			Actor:     actor,
		})
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, tenant, projectID)
	return s.repo.Get(ctx, tenant, invoiceID)
}

// Get loads one invoice.
func (s *Service) Get(ctx context.Context, tenant string, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, tenant, id)
}

// ListForProject returns the project's invoices.
func (s *Service) ListForProject(ctx context.Context, tenant string, projectID int64) ([]Invoice, error) {
	return s.repo.ListForProject(ctx, tenant, projectID)
}

// Payments returns the payment records of an invoice.
func (s *Service) Payments(ctx context.Context, tenant string, invoiceID int64) ([]PaymentRecord, error) {
	if _, err := s.repo.Get(ctx, tenant, invoiceID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, tenant, invoiceID)
}

func (s *Service) notify(ctx context.Context, tenant string, projectID int64) {
	if s.signal == nil || projectID == 0 {
		return
	}
	s.signal.ProjectChanged(ctx, tenant, projectID)
}
