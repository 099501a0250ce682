package server

import "sitewatch/internal/store"

// CreateCategoryRequest is the payload for creating a category.
type CreateCategoryRequest struct {
	Name  string  `json:"name" validate:"required,min=2,max=100"`
	Color *string `json:"color"`
}

// CreateWebsiteRequest is the payload for creating a website. IntervalSeconds
// defaults to 300 and IsActive to true when omitted.
type CreateWebsiteRequest struct {
	Name            string   `json:"name" validate:"required,min=2,max=150"`
	URL             string   `json:"url" validate:"required,url"`
	CategoryID      *string  `json:"category_id"`
	Keywords        []string `json:"keywords"`
	IntervalSeconds *int     `json:"interval_seconds" validate:"omitempty,gte=30,lte=86400"`
	IsActive        *bool    `json:"is_active"`
}

// CheckResponse wraps the check result persisted by a check invocation.
type CheckResponse struct {
	Result *store.CheckResult `json:"result"`
}

// SummaryResponse aggregates counts over the stored data. The up/down counts
// and average response time cover the most recent check results only.
type SummaryResponse struct {
	TotalSites        int64 `json:"total_sites"`
	TotalCategories   int64 `json:"total_categories"`
	RecentChecks      int   `json:"recent_checks"`
	Up                int   `json:"up"`
	Down              int   `json:"down"`
	AvgResponseTimeMS *int  `json:"avg_response_time_ms"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error"`
}
