package batch

import (
	"candidate-matching-workers/internal/matching"
	"candidate-matching-workers/internal/models"
)

const recommendedThreshold = 0.6

type Summary struct {
	TotalCandidates    int                      `json:"totalCandidates"`
	FilteredCandidates int                      `json:"filteredCandidates"`
	AverageScore       float64                  `json:"averageScore"`
	TopScore           float64                  `json:"topScore"`
	RecommendedCount   int                      `json:"recommendedCount"`
	ScoreDistribution  models.ScoreDistribution `json:"scoreDistribution"`
}

// Summarize describes a sorted, filtered batch. total is the number of
// candidates evaluated before filtering. TopScore is the first result's score.
func Summarize(total int, filtered []CandidateResult) Summary {
	s := Summary{
		TotalCandidates:    total,
		FilteredCandidates: len(filtered),
	}
	if len(filtered) == 0 {
		return s
	}

	var sum float64
	for _, r := range filtered {
		overall := r.Scores.Overall
		sum += overall
		if overall >= recommendedThreshold {
			s.RecommendedCount++
		}
		s.ScoreDistribution.Add(overall)
	}
	s.AverageScore = matching.Round2(sum / float64(len(filtered)))
	s.TopScore = filtered[0].Scores.Overall
	return s
}
