package finance

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vantage-ops/vantage/internal/costs"
	"github.com/vantage-ops/vantage/internal/invoices"
	"github.com/vantage-ops/vantage/internal/platform/cache"
	"github.com/vantage-ops/vantage/internal/quotes"
	"github.com/vantage-ops/vantage/internal/settings"
)

// ItemReader lists a project's live quote items.
type ItemReader interface {
	ListLiveItems(ctx context.Context, tenant string, projectID int64) ([]quotes.QuoteItem, error)
}

// InvoiceReader lists a project's invoices.
type InvoiceReader interface {
	ListForProject(ctx context.Context, tenant string, projectID int64) ([]invoices.Invoice, error)
}

// Snapshot is the cached read model served to the project finance screen.
type Snapshot struct {
	ProjectID   int64      `json:"project_id"`
	GeneratedAt time.Time  `json:"generated_at"`
	Figures     Figures    `json:"figures"`
	Risk        Assessment `json:"risk"`
}

// Service assembles the financial snapshot from the lifecycle collections.
// Read-side only: it never mutates quotes, invoices or payments.
type Service struct {
	projects ProjectReader
	items    ItemReader
	costs    costs.Repository
	invoices InvoiceReader
	settings settings.Provider
	cache    *cache.Cache
	clock    func() time.Time
}

// NewService wires the snapshot readers with the cache layer. cache may be
// nil, in which case every call recomputes.
func NewService(projects ProjectReader, items ItemReader, costRepo costs.Repository, invoiceReader InvoiceReader, provider settings.Provider, c *cache.Cache) *Service {
	return &Service{
		projects: projects,
		items:    items,
		costs:    costRepo,
		invoices: invoiceReader,
		settings: provider,
		cache:    c,
		clock:    time.Now,
	}
}

// Snapshot resolves the project's financial snapshot, serving a cached copy
// when the cache version has not been bumped since it was computed.
func (s *Service) Snapshot(ctx context.Context, tenant string, projectID int64) (*Snapshot, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		return s.compute(ctx, tenant, projectID)
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return value.(*Snapshot), nil
	}

	key, err := s.cache.BuildKey(ctx, cache.SnapshotKey(tenant, projectID)...)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := s.cache.FetchJSON(ctx, key, &snap, loader); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Service) compute(ctx context.Context, tenant string, projectID int64) (*Snapshot, error) {
	project, err := s.projects.Get(ctx, tenant, projectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}

	// The remaining reads are independent of each other.
	var (
		items       []quotes.QuoteItem
		costEntries []costs.CostEntry
		invoiceList []invoices.Invoice
		cfg         settings.Settings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.items.ListLiveItems(gctx, tenant, projectID)
		if err != nil {
			return fmt.Errorf("load items: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		costEntries, err = s.costs.ListForProject(gctx, tenant, projectID)
		if err != nil {
			return fmt.Errorf("load costs: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		invoiceList, err = s.invoices.ListForProject(gctx, tenant, projectID)
		if err != nil {
			return fmt.Errorf("load invoices: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		cfg, err = s.settings.Get(gctx, tenant)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.clock()
	figures := Calculate(CalculatorInput{
		BudgetNet: project.BudgetNet,
		Items:     items,
		Costs:     costEntries,
		Invoices:  invoiceList,
		AsOf:      now,
	})
	risk := Score(RiskInput{
		Figures:            figures,
		BudgetNet:          project.BudgetNet,
		Progress:           project.Progress,
		StartsOn:           project.StartsOn,
		EndsOn:             project.EndsOn,
		AsOf:               now,
		LiquidityThreshold: cfg.LiquidityThreshold,
	})

	return &Snapshot{
		ProjectID:   projectID,
		GeneratedAt: now,
		Figures:     figures,
		Risk:        risk,
	}, nil
}
