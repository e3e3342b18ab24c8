package invoices

import "time"

type InvoiceStatus string

const (
	InvoiceStatusOpen          InvoiceStatus = "OPEN"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
)

// Invoice is a billing document derived from exactly one accepted quote.
// AmountPaidGross only grows, through payment registration.
type Invoice struct {
	ID                  int64         `json:"id"`
	ProjectID           int64         `json:"project_id"`
	QuoteID             int64         `json:"quote_id"`
	AmountInvoicedGross float64       `json:"amount_invoiced_gross"`
	AmountPaidGross     float64       `json:"amount_paid_gross"`
	Status              InvoiceStatus `json:"status"`
	Currency            string        `json:"currency"`
	DueDate             time.Time     `json:"due_date"`
	SentDate            time.Time     `json:"sent_date"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// PaymentRecord is one reconciled payment against an invoice. Append-only.
type PaymentRecord struct {
	ID         int64     `json:"id"`
	InvoiceID  int64     `json:"invoice_id"`
	Amount     float64   `json:"amount"`
	Method     string    `json:"method"`
	Reference  string    `json:"reference"`
	ReceivedAt time.Time `json:"received_at"`
}
