package quotes

import "time"

type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "DRAFT"
	QuoteStatusSent     QuoteStatus = "SENT"
	QuoteStatusAccepted QuoteStatus = "ACCEPTED"
)

// Quote is one versioned commercial proposal for a project. Quotes are
// never deleted; every revision appends a new row at the next version.
type Quote struct {
	ID         int64       `json:"id"`
	ProjectID  int64       `json:"project_id"`
	Version    int         `json:"version"`
	Status     QuoteStatus `json:"status"`
	TotalNet   float64     `json:"total_net"`
	TotalTax   float64     `json:"total_tax"`
	RevisionOf *int64      `json:"revision_of,omitempty"`
	SentAt     *time.Time  `json:"sent_at,omitempty"`
	FrozenAt   *time.Time  `json:"frozen_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Items      []QuoteItem `json:"items,omitempty"`
}

// QuoteItem is one priced line. A nil QuoteID marks a live project item the
// user still edits; a non-nil QuoteID marks an immutable clone frozen under
// a quote. The two are disjoint rows, which is what allows live items to
// keep changing after a quote is sent.
type QuoteItem struct {
	ID           int64   `json:"id"`
	ProjectID    int64   `json:"project_id"`
	QuoteID      *int64  `json:"quote_id,omitempty"`
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity"`
	UnitPriceNet float64 `json:"unit_price_net"`
	UnitCostNet  float64 `json:"unit_cost_net"`
	Unit         string  `json:"unit"`
	SKU          string  `json:"sku"`
	IsSelected   bool    `json:"is_selected"`
}

// SelectedNetTotal sums priceNet x quantity over the selected items.
func SelectedNetTotal(items []QuoteItem) float64 {
	var total float64
	for _, item := range items {
		if !item.IsSelected {
			continue
		}
		total += item.UnitPriceNet * item.Quantity
	}
	return total
}
