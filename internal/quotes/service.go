package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/vantage-ops/vantage/internal/audit"
	"github.com/vantage-ops/vantage/internal/settings"
	"github.com/vantage-ops/vantage/internal/shared"
)

// Signal notifies collaborators that a project's commercial data changed,
// typically to invalidate cached snapshots and enqueue a warmup job.
type Signal interface {
	ProjectChanged(ctx context.Context, tenant string, projectID int64)
}

// Service owns the quote state machine. Each operation runs inside one
// repository transaction together with its audit entry, so a failed audit
// write rolls the transition back.
type Service struct {
	repo     Repository
	auditLog audit.Logger
	settings settings.Provider
	signal   Signal
	clock    func() time.Time
}

// NewService wires the lifecycle manager. signal may be nil.
func NewService(repo Repository, auditLog audit.Logger, provider settings.Provider, signal Signal) *Service {
	return &Service{
		repo:     repo,
		auditLog: auditLog,
		settings: provider,
		signal:   signal,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

var detail = message.NewPrinter(language.English)

func amount(v float64) number.Formatter {
	return number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2))
}

// Create inserts a version-1 DRAFT for a project that has no quotes yet.
func (s *Service) Create(ctx context.Context, tenant string, projectID int64, actor string) (*Quote, error) {
	var createdID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		version, err := repo.NextVersion(ctx, tenant, projectID)
		if err != nil {
			return fmt.Errorf("next version: %w", err)
		}
		if version != 1 {
			return fmt.Errorf("%w: project already has quotes, revise instead", shared.ErrInvalidState)
		}
		createdID, err = repo.Create(ctx, tenant, Quote{
			ProjectID: projectID,
			Version:   1,
			Status:    QuoteStatusDraft,
		})
		if err != nil {
			return fmt.Errorf("create quote: %w", err)
		}
		return s.auditLog.Log(ctx, audit.Entry{
			ProjectID: projectID,
			Tenant:    tenant,
			Action:    audit.ActionQuoteCreated,
			Detail:    "quote v1 created",
			Actor:     actor,
		})
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, tenant, projectID)
	return s.repo.Get(ctx, tenant, createdID)
}

// CreateFromProject snapshots the project's live items into a new DRAFT at
// the next version. Once cloned, later edits to the live items never affect
// the new quote.
func (s *Service) CreateFromProject(ctx context.Context, tenant string, projectID int64, actor string) (*Quote, error) {
	cfg, err := s.settings.Get(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	var createdID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		version, err := repo.NextVersion(ctx, tenant, projectID)
		if err != nil {
			return fmt.Errorf("next version: %w", err)
		}
		liveItems, err := repo.ListLiveItems(ctx, tenant, projectID)
		if err != nil {
			return fmt.Errorf("list live items: %w", err)
		}
		totalNet := SelectedNetTotal(liveItems)
		totalTax := totalNet * cfg.VATRate

		createdID, err = repo.Create(ctx, tenant, Quote{
			ProjectID: projectID,
			Version:   version,
			Status:    QuoteStatusDraft,
			TotalNet:  totalNet,
			TotalTax:  totalTax,
		})
		if err != nil {
			return fmt.Errorf("create quote: %w", err)
		}
		if err := repo.CloneItems(ctx, tenant, liveItems, createdID); err != nil {
			return err
		}
		return s.auditLog.Log(ctx, audit.Entry{
			ProjectID: projectID,
			Tenant:    tenant,
			Action:    audit.ActionQuoteCreated,
			Detail:    detail.Sprintf("quote v%d created from project (net %v)", version, amount(totalNet)),
			Actor:     actor,
		})
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, tenant, projectID)
	return s.repo.Get(ctx, tenant, createdID)
}

// Send freezes a DRAFT quote. The quote needs a billable party, so a project
// without a client rejects with ErrClientRequired and the status stays DRAFT.
func (s *Service) Send(ctx context.Context, tenant string, quoteID int64, actor string) (*Quote, error) {
	var projectID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		q, err := repo.Get(ctx, tenant, quoteID)
		if err != nil {
			return fmt.Errorf("get quote: %w", err)
		}
		projectID = q.ProjectID
		if _, err := Apply(q.Status, OpSend); err != nil {
			return err
		}
		hasClient, err := repo.ProjectHasClient(ctx, tenant, q.ProjectID)
		if err != nil {
			return fmt.Errorf("check project client: %w", err)
		}
		if !hasClient {
			return shared.ErrClientRequired
		}
		now := s.clock()
		if err := repo.UpdateStatus(ctx, tenant, quoteID, QuoteStatusSent, &now); err != nil {
			return fmt.Errorf("send quote: %w", err)
		}
		return s.auditLog.Log(ctx, audit.Entry{
			ProjectID: q.ProjectID,
			Tenant:    tenant,
			Action:    audit.ActionQuoteSent,
			Detail:    detail.Sprintf("quote v%d sent and frozen (net %v)", q.Version, amount(q.TotalNet)),
			Actor:     actor,
		})
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, tenant, projectID)
	return s.repo.Get(ctx, tenant, quoteID)
}

// Revise opens a new DRAFT chained to the given quote. Idempotent by
// project: when a DRAFT already exists it is returned as-is with no write
// and no audit entry.
func (s *Service) Revise(ctx context.Context, tenant string, quoteID int64, actor string) (*Quote, error) {
	var (
		resultID  int64
		projectID int64
		existing  *Quote
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		original, err := repo.Get(ctx, tenant, quoteID)
		if err != nil {
			return fmt.Errorf("get quote: %w", err)
		}
		projectID = original.ProjectID
		draft, err := repo.FindDraft(ctx, tenant, original.ProjectID)
		if err == nil {
			existing = draft
			return nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("find draft: %w", err)
		}

		version, err := repo.NextVersion(ctx, tenant, original.ProjectID)
		if err != nil {
			return fmt.Errorf("next version: %w", err)
		}
		originalID := original.ID
		resultID, err = repo.Create(ctx, tenant, Quote{
			ProjectID:  original.ProjectID,
			Version:    version,
			Status:     QuoteStatusDraft,
			TotalNet:   original.TotalNet,
			TotalTax:   original.TotalTax,
			RevisionOf: &originalID,
		})
		if err != nil {
			return fmt.Errorf("create revision: %w", err)
		}
		// The revision starts from the original's frozen items, not from
		// the project's live items.
		if err := repo.CloneItems(ctx, tenant, original.Items, resultID); err != nil {
			return err
		}
		return s.auditLog.Log(ctx, audit.Entry{
			ProjectID: original.ProjectID,
			Tenant:    tenant,
			Action:    audit.ActionQuoteRevision,
			Detail:    detail.Sprintf("quote v%d revised as v%d", original.Version, version),
			Actor:     actor,
		})
	})
	if errors.Is(err, shared.ErrDuplicate) {
		// Lost a race against a concurrent revision: the other call's
		// draft hit the one-draft index first. Return that draft, same
		// as if FindDraft had seen it.
		return s.repo.FindDraft(ctx, tenant, projectID)
	}
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	s.notify(ctx, tenant, projectID)
	return s.repo.Get(ctx, tenant, resultID)
}

// Accept transitions a SENT quote to ACCEPTED. Repeating the call on an
// already accepted quote returns it unchanged with no second audit entry.
// An empty actor represents acceptance through an unauthenticated public
// link and is recorded as the system sentinel.
func (s *Service) Accept(ctx context.Context, tenant string, quoteID int64, actor string) (*Quote, error) {
	var (
		projectID int64
		noop      bool
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		q, err := repo.Get(ctx, tenant, quoteID)
		if err != nil {
			return fmt.Errorf("get quote: %w", err)
		}
		projectID = q.ProjectID
		tr, err := Apply(q.Status, OpAccept)
		if err != nil {
			return fmt.Errorf("%w: only sent quotes can be accepted", shared.ErrInvalidState)
		}
		if tr.NoOp {
			noop = true
			return nil
		}
		if err := repo.UpdateStatus(ctx, tenant, quoteID, tr.Next, nil); err != nil {
			return fmt.Errorf("accept quote: %w", err)
		}
		if actor == "" {
			actor = audit.SystemActor
		}
		return s.auditLog.Log(ctx, audit.Entry{
			ProjectID: q.ProjectID,
			Tenant:    tenant,
			Action:    audit.ActionQuoteAccepted,
			Detail:    detail.Sprintf("quote v%d accepted (net %v)", q.Version, amount(q.TotalNet)),
			Actor:     actor,
		})
	})
	if err != nil {
		return nil, err
	}
	if !noop {
		s.notify(ctx, tenant, projectID)
	}
	return s.repo.Get(ctx, tenant, quoteID)
}

// RevokeAcceptance sets the quote back to SENT. The transition is
// unconditional; blocking revocation once an invoice exists is an open
// product decision.
func (s *Service) RevokeAcceptance(ctx context.Context, tenant string, quoteID int64, actor string) (*Quote, error) {
	var (
		projectID int64
		noop      bool
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		q, err := repo.Get(ctx, tenant, quoteID)
		if err != nil {
			return fmt.Errorf("get quote: %w", err)
		}
		projectID = q.ProjectID
		tr, err := Apply(q.Status, OpRevoke)
		if err != nil {
			return err
		}
		if tr.NoOp {
			noop = true
			return nil
		}
		if err := repo.UpdateStatus(ctx, tenant, quoteID, tr.Next, nil); err != nil {
			return fmt.Errorf("revoke acceptance: %w", err)
		}
		return s.auditLog.Log(ctx, audit.Entry{
			ProjectID: q.ProjectID,
			Tenant:    tenant,
			Action:    audit.ActionQuoteRevoked,
			Detail:    detail.Sprintf("quote v%d acceptance revoked", q.Version),
			Actor:     actor,
		})
	})
	if err != nil {
		return nil, err
	}
	if !noop {
		s.notify(ctx, tenant, projectID)
	}
	return s.repo.Get(ctx, tenant, quoteID)
}

// Get loads a quote with its items.
func (s *Service) Get(ctx context.Context, tenant string, quoteID int64) (*Quote, error) {
	return s.repo.Get(ctx, tenant, quoteID)
}

// List returns quotes matching the request.
func (s *Service) List(ctx context.Context, tenant string, req ListQuotesRequest) ([]Quote, int, error) {
	return s.repo.List(ctx, tenant, req)
}

func (s *Service) notify(ctx context.Context, tenant string, projectID int64) {
	if s.signal == nil || projectID == 0 {
		return
	}
	s.signal.ProjectChanged(ctx, tenant, projectID)
}
