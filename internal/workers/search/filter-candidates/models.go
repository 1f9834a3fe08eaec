// internal/workers/search/filter-candidates/models.go
package filtercandidates

import "candidate-matching-workers/internal/filtering"

type Input struct {
	JobID      string                      `json:"jobId,omitempty"`
	Filters    filtering.FilterOptions     `json:"filters"`
	Sort       filtering.SortOptions       `json:"sort"`
	Pagination filtering.PaginationOptions `json:"pagination"`
}

type Output struct {
	filtering.FilteredResult
}
