package audit

import "time"

// TimelineFilters holds the base filters for the audit timeline.
type TimelineFilters struct {
	Tenant    string
	ProjectID int64
	Action    string
	Actor     string
	From      time.Time
	To        time.Time
	Page      int
	PageSize  int
}

// PagingInfo stores simple pagination metadata.
type PagingInfo struct {
	Page     int
	PageSize int
	HasNext  bool
	PrevPage int
	NextPage int
}

// Result wraps timeline rows with paging information.
type Result struct {
	Rows   []Entry
	Paging PagingInfo
}
