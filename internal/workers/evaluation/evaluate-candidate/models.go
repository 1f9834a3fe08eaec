// internal/workers/evaluation/evaluate-candidate/models.go
package evaluatecandidate

import "candidate-matching-workers/internal/models"

type Input struct {
	JobID         string                 `json:"jobId" validate:"required"`
	ResumeID      string                 `json:"resumeId" validate:"required"`
	Weights       *models.ScoringWeights `json:"weights,omitempty"`
	EvaluatedByID string                 `json:"evaluatedById,omitempty"`
}

type Output struct {
	EvaluationID   string               `json:"evaluationId"`
	Scores         models.MatchingScore `json:"scores"`
	Explanation    string               `json:"explanation"`
	Recommendation string               `json:"recommendation"`
	Details        Details              `json:"details"`
}

type Details struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	MissingSkills []string `json:"missingSkills"`
	Tags          []string `json:"tags"`
}
