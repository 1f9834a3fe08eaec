package models

import "time"

type MatchingScore struct {
	Overall     float64  `json:"overall"`
	Skills      float64  `json:"skills"`
	Experience  float64  `json:"experience"`
	Education   float64  `json:"education"`
	CulturalFit *float64 `json:"culturalFit,omitempty"`
}

type EvaluationResult struct {
	Scores         MatchingScore `json:"scores"`
	Explanation    string        `json:"explanation"`
	Recommendation string        `json:"recommendation"`
	Strengths      []string      `json:"strengths"`
	Weaknesses     []string      `json:"weaknesses"`
	MissingSkills  []string      `json:"missingSkills"`
	Tags           []string      `json:"tags"`
}

// HasTag reports whether the result carries the given tag (exact match).
func (r EvaluationResult) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

const (
	EvaluationStatusPending   = "PENDING"
	EvaluationStatusCompleted = "COMPLETED"
	EvaluationStatusReviewed  = "REVIEWED"
)

const TagCategoryCustom = "CUSTOM"

type Tag struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Color    string `json:"color,omitempty"`
}

// EvaluationJob is the job projection joined onto an evaluation record.
type EvaluationJob struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Department string `json:"department,omitempty"`
	Location   string `json:"location,omitempty"`
}

// EvaluationResume is the resume projection joined onto an evaluation record.
// ParsedData holds the raw JSON blob as stored.
type EvaluationResume struct {
	ID             string `json:"id"`
	CandidateName  string `json:"candidateName"`
	CandidateEmail string `json:"candidateEmail"`
	Phone          string `json:"phone,omitempty"`
	ParsedData     string `json:"parsedData"`
	Status         string `json:"status"`
	Tags           []Tag  `json:"tags"`
}

type Evaluator struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// EvaluationRecord is a persisted evaluation joined with its job, resume and
// the resume's tag associations.
type EvaluationRecord struct {
	ID               string           `json:"id"`
	JobID            string           `json:"jobId"`
	ResumeID         string           `json:"resumeId"`
	OverallScore     float64          `json:"overallScore"`
	SkillsScore      float64          `json:"skillsScore"`
	ExperienceScore  float64          `json:"experienceScore"`
	EducationScore   float64          `json:"educationScore"`
	CulturalFitScore *float64         `json:"culturalFitScore,omitempty"`
	Explanation      string           `json:"explanation"`
	Recommendation   string           `json:"recommendation"`
	Status           string           `json:"status"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	Job              EvaluationJob    `json:"job"`
	Resume           EvaluationResume `json:"resume"`
	EvaluatedBy      *Evaluator       `json:"evaluatedBy,omitempty"`
}

// NewEvaluation is the write model for a freshly scored job/resume pair.
type NewEvaluation struct {
	JobID         string
	ResumeID      string
	EvaluatedByID string
	Result        EvaluationResult
}

// ScoreDistribution buckets overall scores: excellent >= 0.8, good [0.6, 0.8),
// fair [0.4, 0.6), poor < 0.4.
type ScoreDistribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Fair      int `json:"fair"`
	Poor      int `json:"poor"`
}

func (d *ScoreDistribution) Add(overall float64) {
	switch {
	case overall >= 0.8:
		d.Excellent++
	case overall >= 0.6:
		d.Good++
	case overall >= 0.4:
		d.Fair++
	default:
		d.Poor++
	}
}
