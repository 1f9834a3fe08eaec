package batch

// BatchFilter narrows a processed batch. Nil bounds and empty tag lists are
// not applied.
type BatchFilter struct {
	MinScore     *float64 `json:"minScore,omitempty"`
	MaxScore     *float64 `json:"maxScore,omitempty"`
	RequiredTags []string `json:"requiredTags,omitempty"`
	ExcludeTags  []string `json:"excludeTags,omitempty"`
}

func (f BatchFilter) Matches(r CandidateResult) bool {
	overall := r.Scores.Overall
	if f.MinScore != nil && overall < *f.MinScore {
		return false
	}
	if f.MaxScore != nil && overall > *f.MaxScore {
		return false
	}
	for _, tag := range f.RequiredTags {
		if !r.HasTag(tag) {
			return false
		}
	}
	for _, tag := range f.ExcludeTags {
		if r.HasTag(tag) {
			return false
		}
	}
	return true
}

// Filter keeps the results matching f, preserving their order.
func Filter(results []CandidateResult, f BatchFilter) []CandidateResult {
	out := make([]CandidateResult, 0, len(results))
	for _, r := range results {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
