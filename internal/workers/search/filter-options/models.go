// internal/workers/search/filter-options/models.go
package filteroptions

import "candidate-matching-workers/internal/filtering"

type Input struct {
	JobID string `json:"jobId,omitempty"`
}

type Output struct {
	filtering.FilterOptionSet
	Cached bool `json:"cached"`
}
