package quotes

import (
	"fmt"

	"github.com/vantage-ops/vantage/internal/shared"
)

// Operation names a lifecycle trigger on a quote.
type Operation string

const (
	OpSend   Operation = "send"
	OpAccept Operation = "accept"
	OpRevoke Operation = "revoke"
)

// Transition is the outcome of applying an operation in a given status.
type Transition struct {
	Next QuoteStatus
	// NoOp marks an idempotent re-application: the quote is returned
	// unchanged and no audit entry is written.
	NoOp bool
}

// transitions is the full state machine keyed by (current status, operation).
// Missing pairs are rejected with ErrInvalidState. Revocation is deliberately
// unconditional, pending a product decision on quotes that already carry an
// invoice.
var transitions = map[QuoteStatus]map[Operation]Transition{
	QuoteStatusDraft: {
		OpSend:   {Next: QuoteStatusSent},
		OpRevoke: {Next: QuoteStatusSent},
	},
	QuoteStatusSent: {
		OpAccept: {Next: QuoteStatusAccepted},
		OpRevoke: {Next: QuoteStatusSent, NoOp: true},
	},
	QuoteStatusAccepted: {
		OpAccept: {Next: QuoteStatusAccepted, NoOp: true},
		OpRevoke: {Next: QuoteStatusSent},
	},
}

// Apply resolves the transition for op from current, or ErrInvalidState.
func Apply(current QuoteStatus, op Operation) (Transition, error) {
	if ops, ok := transitions[current]; ok {
		if tr, ok := ops[op]; ok {
			return tr, nil
		}
	}
	return Transition{}, fmt.Errorf("%w: cannot %s a %s quote", shared.ErrInvalidState, op, current)
}
