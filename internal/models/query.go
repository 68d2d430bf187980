package models

import "time"

// CertificateFilter selects certificates. Empty fields match everything.
type CertificateFilter struct {
	Name   string
	Domain string
	Limit  int
	Offset int
}

// SiteFilter selects sites. Empty fields match everything.
type SiteFilter struct {
	Name   string
	Domain string
	Limit  int
	Offset int
}

// WAFLogFilter selects attack log records. Zero fields match everything.
type WAFLogFilter struct {
	RuleID    int
	SrcIP     string
	DstIP     string
	Domain    string
	SrcPort   int
	DstPort   int
	RequestID string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

// ListResult is the {items, total} payload of certificate and site lists
type ListResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// LogPage is the paginated payload of the attack log list
type LogPage struct {
	Results     []WAFLog `json:"results"`
	TotalCount  int      `json:"totalCount"`
	CurrentPage int      `json:"currentPage"`
	PageSize    int      `json:"pageSize"`
	TotalPages  int      `json:"totalPages"`
}

// NewLogPage fills in the derived page count
func NewLogPage(results []WAFLog, total, page, pageSize int) LogPage {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	if results == nil {
		results = []WAFLog{}
	}
	return LogPage{
		Results:     results,
		TotalCount:  total,
		CurrentPage: page,
		PageSize:    pageSize,
		TotalPages:  pages,
	}
}
