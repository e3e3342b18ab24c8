package quotes

import "github.com/vantage-ops/vantage/internal/shared"

// CreateQuoteRequest starts a quote for a project.
type CreateQuoteRequest struct {
	ProjectID   int64 `json:"project_id" validate:"required,gt=0"`
	FromProject bool  `json:"from_project"`
}

// ListResponse wraps a quote listing with pagination metadata.
type ListResponse struct {
	Quotes []Quote           `json:"quotes"`
	Meta   shared.Pagination `json:"meta"`
}
