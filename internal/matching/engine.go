package matching

import (
	"math"

	"candidate-matching-workers/internal/models"
)

// Evaluate scores one candidate against one job and builds the narrative
// around the scores. It is pure: equal inputs give equal results.
//
// Weights are applied as given; callers wanting the defaults pass
// models.DefaultWeights().
func Evaluate(candidate models.ParsedResume, job models.JobRequirements, weights models.ScoringWeights) models.EvaluationResult {
	required := ExtractRequiredSkills(job.Description, job.Requirements)

	skills := ScoreSkills(candidate.Skills, required)
	experience := ScoreExperience(candidate.Experience, nil, nil)
	education := ScoreEducation(candidate.Education, "", nil)
	culturalFit := ScoreCulturalFit(candidate, job.Description)

	overall := skills*weights.Skills +
		experience*weights.Experience +
		education*weights.Education +
		culturalFit*weights.CulturalFit

	cf := Round2(culturalFit)
	scores := models.MatchingScore{
		Overall:     Round2(overall),
		Skills:      Round2(skills),
		Experience:  Round2(experience),
		Education:   Round2(education),
		CulturalFit: &cf,
	}

	return models.EvaluationResult{
		Scores:         scores,
		Explanation:    explain(scores, candidate, job),
		Recommendation: Recommend(scores.Overall),
		Strengths:      strengths(scores, candidate),
		Weaknesses:     weaknesses(scores),
		MissingSkills:  MissingSkills(candidate.Skills, required),
		Tags:           tags(scores, job),
	}
}

// Round2 rounds to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
