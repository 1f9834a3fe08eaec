// internal/workers/search/advanced-search/models.go
package advancedsearch

import "candidate-matching-workers/internal/filtering"

// Input carries a free-text query on top of the regular filters. A blank
// query behaves like filter-candidates.
type Input struct {
	Query      string                      `json:"query" validate:"max=500"`
	JobID      string                      `json:"jobId,omitempty"`
	Filters    filtering.FilterOptions     `json:"filters"`
	Sort       filtering.SortOptions       `json:"sort"`
	Pagination filtering.PaginationOptions `json:"pagination"`
}

type Output struct {
	Query string `json:"query"`
	filtering.FilteredResult
}
