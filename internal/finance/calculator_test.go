package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vantage-ops/vantage/internal/costs"
	"github.com/vantage-ops/vantage/internal/invoices"
	"github.com/vantage-ops/vantage/internal/quotes"
)

func TestCalculateFromSelectedItems(t *testing.T) {
	f := Calculate(CalculatorInput{
		BudgetNet: 9999,
		Items: []quotes.QuoteItem{
			{Description: "design", Quantity: 10, UnitPriceNet: 100, IsSelected: true},
			{Description: "build", Quantity: 5, UnitPriceNet: 200, IsSelected: true},
			{Description: "optional extras", Quantity: 3, UnitPriceNet: 500, IsSelected: false},
		},
		Costs: []costs.CostEntry{
			{AmountNet: 400},
			{AmountNet: 600},
		},
	})

	require.Equal(t, 2000.0, f.PriceNet)
	require.Equal(t, 1000.0, f.CostNet)
	require.Equal(t, 1000.0, f.MarginAmountNet)
	require.Equal(t, 0.5, f.MarginPct)
}

func TestCalculateFallsBackToBudget(t *testing.T) {
	f := Calculate(CalculatorInput{BudgetNet: 5000})

	require.Equal(t, 5000.0, f.PriceNet)
	require.Equal(t, 5000.0, f.MarginAmountNet)
}

func TestCalculateEmptyProjectIsZero(t *testing.T) {
	f := Calculate(CalculatorInput{})

	require.Equal(t, Figures{}, f)
}

func TestCalculateInvoiceExposure(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	f := Calculate(CalculatorInput{
		AsOf: now,
		Invoices: []invoices.Invoice{
			{AmountInvoicedGross: 1000, AmountPaidGross: 1000, DueDate: now.AddDate(0, 0, -30)},
			{AmountInvoicedGross: 2000, AmountPaidGross: 500, DueDate: now.AddDate(0, 0, -10)},
			{AmountInvoicedGross: 3000, AmountPaidGross: 0, DueDate: now.AddDate(0, 0, 14)},
		},
	})

	require.Equal(t, 6000.0, f.InvoicedGross)
	require.Equal(t, 1500.0, f.PaidGross)
	// Due volume counts the fully paid invoice; overdue counts open amounts only.
	require.Equal(t, 3000.0, f.DueGross)
	require.Equal(t, 4500.0, f.OutstandingGross)
	require.Equal(t, 1500.0, f.OverdueGross)
}
