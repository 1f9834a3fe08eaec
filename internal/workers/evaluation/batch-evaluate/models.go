// internal/workers/evaluation/batch-evaluate/models.go
package batchevaluate

import (
	"candidate-matching-workers/internal/batch"
	"candidate-matching-workers/internal/models"
)

type Input struct {
	JobID         string                 `json:"jobId" validate:"required"`
	ResumeIDs     []string               `json:"resumeIds" validate:"required,min=1,dive,required"`
	Weights       *models.ScoringWeights `json:"weights,omitempty"`
	Filters       batch.BatchFilter      `json:"filters"`
	EvaluatedByID string                 `json:"evaluatedById,omitempty"`
}

type Output struct {
	RankedCandidates []RankedCandidate `json:"rankedCandidates"`
	Failures         []Failure         `json:"failures"`
	Summary          batch.Summary     `json:"summary"`
	Job              JobInfo           `json:"job"`
}

type RankedCandidate struct {
	Rank           int                  `json:"rank"`
	ResumeID       string               `json:"resumeId"`
	EvaluationID   string               `json:"evaluationId,omitempty"`
	CandidateName  string               `json:"candidateName"`
	CandidateEmail string               `json:"candidateEmail"`
	Scores         models.MatchingScore `json:"scores"`
	Recommendation string               `json:"recommendation"`
	Tags           []string             `json:"tags"`
	Strengths      []string             `json:"strengths"`
	Weaknesses     []string             `json:"weaknesses"`
	MissingSkills  []string             `json:"missingSkills"`
	// Existing is set when the pair had already been evaluated and nothing
	// new was stored.
	Existing bool `json:"existing,omitempty"`
}

type Failure struct {
	ResumeID string `json:"resumeId"`
	Error    string `json:"error"`
}

type JobInfo struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Department string `json:"department,omitempty"`
}
