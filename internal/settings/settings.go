package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Settings carries the per-tenant commercial defaults consumed by the
// invoice generator and the financial calculator.
type Settings struct {
	VATRate            float64 `json:"vat_rate"`
	Currency           string  `json:"currency"`
	PaymentTermDays    int     `json:"payment_term_days"`
	LiquidityThreshold float64 `json:"liquidity_threshold"`
}

// Defaults applied when a tenant has no settings row.
var Defaults = Settings{
	VATRate:            0.19,
	Currency:           "EUR",
	PaymentTermDays:    14,
	LiquidityThreshold: 0.25,
}

// Provider resolves settings for a tenant.
type Provider interface {
	Get(ctx context.Context, tenant string) (Settings, error)
}

// PGProvider reads tenant settings from Postgres, falling back to Defaults.
type PGProvider struct {
	pool *pgxpool.Pool
}

// NewPGProvider builds the Postgres-backed provider.
func NewPGProvider(pool *pgxpool.Pool) *PGProvider {
	return &PGProvider{pool: pool}
}

// Get resolves the tenant's settings row.
func (p *PGProvider) Get(ctx context.Context, tenant string) (Settings, error) {
	s := Defaults
	err := p.pool.QueryRow(ctx, `
		SELECT vat_rate, currency, payment_term_days, liquidity_threshold
		FROM org_settings
		WHERE org_id = $1
	`, tenant).Scan(&s.VATRate, &s.Currency, &s.PaymentTermDays, &s.LiquidityThreshold)
	if errors.Is(err, pgx.ErrNoRows) {
		return Defaults, nil
	}
	if err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Static is a fixed-value provider used in tests and single-tenant setups.
type Static struct {
	Settings Settings
}

// Get returns the fixed settings.
func (s Static) Get(ctx context.Context, tenant string) (Settings, error) {
	return s.Settings, nil
}
