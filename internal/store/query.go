// Package store reads and writes evaluation records. PostgresStore is the
// system of record; ElasticsearchStore serves the same read model from a
// search index.
package store

import (
	"context"
	"errors"
	"time"

	"candidate-matching-workers/internal/models"
)

var (
	ErrJobNotFound         = errors.New("job not found")
	ErrResumeNotFound      = errors.New("resume not found")
	ErrDuplicateEvaluation = errors.New("evaluation already exists for this job-resume pair")
)

type SortField string

const (
	SortOverallScore    SortField = "overallScore"
	SortSkillsScore     SortField = "skillsScore"
	SortExperienceScore SortField = "experienceScore"
	SortEducationScore  SortField = "educationScore"
	SortCreatedAt       SortField = "createdAt"
	SortCandidateName   SortField = "candidateName"
)

// Predicate selects evaluation records. Zero-valued fields are not applied.
type Predicate struct {
	JobID      string
	MinScore   *float64
	MaxScore   *float64
	Statuses   []string
	DateFrom   *time.Time
	DateTo     *time.Time
	Department string
	// Location matches job locations containing it, case-insensitively.
	Location string
	// SkillContains matches resumes whose serialized parsed data contains it.
	SkillContains string
	// TagsAny requires at least one of the resume's tags to be listed.
	TagsAny []string
	// TagsNone requires none of the resume's tags to be listed.
	TagsNone []string
}

type Order struct {
	Field      SortField
	Descending bool
}

// Query is a predicate plus ordering and a page window. Take <= 0 means no
// limit.
type Query struct {
	Predicate Predicate
	OrderBy   Order
	Skip      int
	Take      int
}

// Reader is the read side shared by every store implementation.
type Reader interface {
	FindMany(ctx context.Context, q Query) ([]models.EvaluationRecord, error)
	Count(ctx context.Context, p Predicate) (int, error)
}

// Document fills in the job and resume projections of a freshly saved record
// so the search index can serve it without joins. rec.Resume.Tags must already
// hold the resume's full tag set, as returned by SaveEvaluation.
func Document(rec models.EvaluationRecord, job models.JobRequirements, resume models.Resume) models.EvaluationRecord {
	tags := rec.Resume.Tags
	if tags == nil {
		tags = []models.Tag{}
	}
	rec.Job = models.EvaluationJob{
		ID:         job.ID,
		Title:      job.Title,
		Department: job.Department,
		Location:   job.Location,
	}
	rec.Resume = models.EvaluationResume{
		ID:             resume.ID,
		CandidateName:  resume.CandidateName,
		CandidateEmail: resume.CandidateEmail,
		Phone:          resume.Phone,
		ParsedData:     resume.ParsedData,
		Status:         resume.Status,
		Tags:           tags,
	}
	return rec
}
