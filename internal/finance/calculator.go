package finance

import (
	"time"

	"github.com/vantage-ops/vantage/internal/costs"
	"github.com/vantage-ops/vantage/internal/invoices"
	"github.com/vantage-ops/vantage/internal/quotes"
)

// CalculatorInput bundles everything the calculator reads. All collections
// may be empty; an empty project simply produces zero figures.
type CalculatorInput struct {
	BudgetNet float64
	Items     []quotes.QuoteItem
	Costs     []costs.CostEntry
	Invoices  []invoices.Invoice
	AsOf      time.Time
}

// Figures are the derived monetary indicators for one project. They are
// recomputed on every read and never stored back.
type Figures struct {
	PriceNet         float64 `json:"price_net"`
	CostNet          float64 `json:"cost_net"`
	MarginAmountNet  float64 `json:"margin_amount_net"`
	MarginPct        float64 `json:"margin_pct"`
	InvoicedGross    float64 `json:"invoiced_gross"`
	PaidGross        float64 `json:"paid_gross"`
	DueGross         float64 `json:"due_gross"`
	OutstandingGross float64 `json:"outstanding_gross"`
	OverdueGross     float64 `json:"overdue_gross"`
}

// Calculate derives the project figures. Pure: no I/O, no mutation of the
// input, safe to call on every report render.
func Calculate(in CalculatorInput) Figures {
	var f Figures

	f.PriceNet = quotes.SelectedNetTotal(in.Items)
	if len(in.Items) == 0 {
		f.PriceNet = in.BudgetNet
	}

	for _, c := range in.Costs {
		f.CostNet += c.AmountNet
	}
	f.MarginAmountNet = f.PriceNet - f.CostNet
	if f.PriceNet != 0 {
		f.MarginPct = f.MarginAmountNet / f.PriceNet
	}

	asOf := in.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	for _, inv := range in.Invoices {
		f.InvoicedGross += inv.AmountInvoicedGross
		f.PaidGross += inv.AmountPaidGross
		due := inv.DueDate.Before(asOf)
		if due {
			f.DueGross += inv.AmountInvoicedGross
		}
		open := inv.AmountInvoicedGross - inv.AmountPaidGross
		if open <= 0 {
			continue
		}
		f.OutstandingGross += open
		if due {
			f.OverdueGross += open
		}
	}
	return f
}
