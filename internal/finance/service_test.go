package finance

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vantage-ops/vantage/internal/costs"
	"github.com/vantage-ops/vantage/internal/invoices"
	"github.com/vantage-ops/vantage/internal/platform/cache"
	"github.com/vantage-ops/vantage/internal/quotes"
	"github.com/vantage-ops/vantage/internal/settings"
	"github.com/vantage-ops/vantage/internal/shared"
)

const tenant = "org-1"

type memoryProjectReader struct {
	projects map[int64]*Project
	calls    int
}

func (r *memoryProjectReader) Get(ctx context.Context, tenant string, projectID int64) (*Project, error) {
	r.calls++
	p, ok := r.projects[projectID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := *p
	return &out, nil
}

type memoryItemReader struct {
	items []quotes.QuoteItem
}

func (r *memoryItemReader) ListLiveItems(ctx context.Context, tenant string, projectID int64) ([]quotes.QuoteItem, error) {
	return r.items, nil
}

type memoryCostReader struct {
	entries []costs.CostEntry
}

func (r *memoryCostReader) ListForProject(ctx context.Context, tenant string, projectID int64) ([]costs.CostEntry, error) {
	return r.entries, nil
}

type memoryInvoiceReader struct {
	invoices []invoices.Invoice
}

func (r *memoryInvoiceReader) ListForProject(ctx context.Context, tenant string, projectID int64) ([]invoices.Invoice, error) {
	return r.invoices, nil
}

func newSnapshotService(projects *memoryProjectReader, c *cache.Cache) *Service {
	svc := NewService(
		projects,
		&memoryItemReader{items: []quotes.QuoteItem{
			{Quantity: 10, UnitPriceNet: 100, IsSelected: true},
			{Quantity: 5, UnitPriceNet: 200, IsSelected: true},
		}},
		&memoryCostReader{entries: []costs.CostEntry{{AmountNet: 500}}},
		&memoryInvoiceReader{},
		settings.Static{Settings: settings.Defaults},
		c,
	)
	svc.clock = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func testProject() *Project {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &Project{
		ID:        42,
		Name:      "Office refit",
		BudgetNet: 2500,
		Progress:  0.8,
		StartsOn:  start,
		EndsOn:    start.AddDate(0, 0, 300),
	}
}

func TestSnapshotComputesFiguresAndRisk(t *testing.T) {
	ctx := context.Background()
	projects := &memoryProjectReader{projects: map[int64]*Project{42: testProject()}}
	svc := newSnapshotService(projects, nil)

	snap, err := svc.Snapshot(ctx, tenant, 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), snap.ProjectID)
	require.Equal(t, 2000.0, snap.Figures.PriceNet)
	require.Equal(t, 500.0, snap.Figures.CostNet)
	require.Equal(t, 1500.0, snap.Figures.MarginAmountNet)
	require.Equal(t, RiskLevelLow, snap.Risk.Level)
}

func TestSnapshotMissingProject(t *testing.T) {
	ctx := context.Background()
	projects := &memoryProjectReader{projects: map[int64]*Project{}}
	svc := newSnapshotService(projects, nil)

	_, err := svc.Snapshot(ctx, tenant, 42)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSnapshotUsesCacheUntilBumped(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := cache.New(client, time.Minute)

	projects := &memoryProjectReader{projects: map[int64]*Project{42: testProject()}}
	svc := newSnapshotService(projects, c)

	_, err := svc.Snapshot(ctx, tenant, 42)
	require.NoError(t, err)
	require.Equal(t, 1, projects.calls)

	_, err = svc.Snapshot(ctx, tenant, 42)
	require.NoError(t, err)
	require.Equal(t, 1, projects.calls)

	require.NoError(t, c.Bump(ctx))

	_, err = svc.Snapshot(ctx, tenant, 42)
	require.NoError(t, err)
	require.Equal(t, 2, projects.calls)
}
