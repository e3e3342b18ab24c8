package audit

import "time"

// Action codes recorded for every lifecycle transition.
const (
	ActionQuoteCreated      = "QUOTE_CREATED"
	ActionQuoteSent         = "QUOTE_SENT"
	ActionQuoteRevision     = "QUOTE_REVISION"
	ActionQuoteAccepted     = "QUOTE_ACCEPTED"
	ActionQuoteRevoked      = "QUOTE_REVOKED"
	ActionInvoiceGenerated  = "INVOICE_GENERATED"
	ActionPaymentRegistered = "INVOICE_PAYMENT_REGISTERED"
)

// SystemActor is recorded when a transition has no authenticated user,
// e.g. a quote accepted through a public link.
const SystemActor = "system"

// Entry is one immutable audit fact.
type Entry struct {
	ProjectID int64
	Tenant    string
	Action    string
	Detail    string
	Actor     string
	At        time.Time
}
