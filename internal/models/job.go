package models

type JobRequirements struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	Department   string `json:"department,omitempty"`
	Location     string `json:"location,omitempty"`
	SalaryRange  string `json:"salaryRange,omitempty"`
}

// ScoringWeights are the per-factor multipliers of the overall score. They are
// not normalized and are used as given.
type ScoringWeights struct {
	Skills      float64 `json:"skills" mapstructure:"skills" validate:"gte=0"`
	Experience  float64 `json:"experience" mapstructure:"experience" validate:"gte=0"`
	Education   float64 `json:"education" mapstructure:"education" validate:"gte=0"`
	CulturalFit float64 `json:"culturalFit" mapstructure:"cultural_fit" validate:"gte=0"`
}

func DefaultWeights() ScoringWeights {
	return ScoringWeights{
		Skills:      0.4,
		Experience:  0.3,
		Education:   0.2,
		CulturalFit: 0.1,
	}
}

// IsZero reports whether no weight was supplied at all.
func (w ScoringWeights) IsZero() bool {
	return w == ScoringWeights{}
}
