package shared

import "errors"

var (
	// ErrNotFound indicates the referenced quote or invoice does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState indicates the operation is not permitted from the current status.
	ErrInvalidState = errors.New("invalid status transition")
	// ErrClientRequired occurs when a quote is sent for a project without a client.
	ErrClientRequired = errors.New("project has no client assigned")
	// ErrDuplicate indicates an invoice already exists for the quote.
	ErrDuplicate = errors.New("invoice already exists for quote")
	// ErrInvalidAmount indicates a non-positive payment amount.
	ErrInvalidAmount = errors.New("amount must be positive")
)
