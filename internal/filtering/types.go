package filtering

import (
	"time"

	"candidate-matching-workers/internal/models"
	"candidate-matching-workers/internal/store"
)

// FilterOptions narrows persisted evaluations. MinExperience, MaxExperience
// and Education are accepted but not applied. Only the first entry of Skills
// is searched for.
type FilterOptions struct {
	MinScore      *float64   `json:"minScore,omitempty" validate:"omitempty,gte=0,lte=1"`
	MaxScore      *float64   `json:"maxScore,omitempty" validate:"omitempty,gte=0,lte=1"`
	MinExperience *float64   `json:"minExperience,omitempty"`
	MaxExperience *float64   `json:"maxExperience,omitempty"`
	Skills        []string   `json:"skills,omitempty"`
	Education     []string   `json:"education,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	ExcludeTags   []string   `json:"excludeTags,omitempty"`
	Department    string     `json:"department,omitempty"`
	Location      string     `json:"location,omitempty"`
	Status        []string   `json:"status,omitempty" validate:"omitempty,dive,oneof=PENDING COMPLETED REVIEWED"`
	DateFrom      *time.Time `json:"dateFrom,omitempty"`
	DateTo        *time.Time `json:"dateTo,omitempty"`
}

// Predicate translates the options into a store predicate scoped to jobID.
func (f FilterOptions) Predicate(jobID string) store.Predicate {
	p := store.Predicate{
		JobID:      jobID,
		MinScore:   f.MinScore,
		MaxScore:   f.MaxScore,
		Statuses:   f.Status,
		DateFrom:   f.DateFrom,
		DateTo:     f.DateTo,
		Department: f.Department,
		Location:   f.Location,
		TagsAny:    f.Tags,
		TagsNone:   f.ExcludeTags,
	}
	if len(f.Skills) > 0 {
		p.SkillContains = f.Skills[0]
	}
	return p
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type SortOptions struct {
	Field     store.SortField `json:"field" validate:"omitempty,oneof=overallScore skillsScore experienceScore educationScore createdAt candidateName"`
	Direction SortDirection   `json:"direction" validate:"omitempty,oneof=asc desc"`
}

// DefaultSort orders by overall score, highest first.
func DefaultSort() SortOptions {
	return SortOptions{Field: store.SortOverallScore, Direction: SortDesc}
}

func (s SortOptions) withDefaults() SortOptions {
	def := DefaultSort()
	if s.Field == "" {
		s.Field = def.Field
	}
	if s.Direction == "" {
		s.Direction = def.Direction
	}
	return s
}

func (s SortOptions) Order() store.Order {
	s = s.withDefaults()
	return store.Order{Field: s.Field, Descending: s.Direction == SortDesc}
}

type PaginationOptions struct {
	Page  int `json:"page" validate:"omitempty,min=1"`
	Limit int `json:"limit" validate:"omitempty,min=1"`
}

func DefaultPagination() PaginationOptions {
	return PaginationOptions{Page: 1, Limit: 10}
}

func (p PaginationOptions) withDefaults() PaginationOptions {
	def := DefaultPagination()
	if p.Page < 1 {
		p.Page = def.Page
	}
	if p.Limit < 1 {
		p.Limit = def.Limit
	}
	return p
}

func (p PaginationOptions) skip() int {
	return (p.Page - 1) * p.Limit
}

type Pagination struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

func newPagination(total int, p PaginationOptions) Pagination {
	totalPages := totalPagesFor(total, p.Limit)
	return Pagination{
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1,
	}
}

func totalPagesFor(total, limit int) int {
	return (total + limit - 1) / limit
}

// EnrichedEvaluation is a record with its parsed-data blob decoded and its tag
// associations flattened to names. ParsedData is nil when the blob is not
// valid JSON.
type EnrichedEvaluation struct {
	models.EvaluationRecord
	ParsedData *models.ParsedResume `json:"parsedData"`
	Tags       []string             `json:"tags"`
}

type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Summary aggregates the evaluations of one page.
type Summary struct {
	AverageScore      float64                  `json:"averageScore"`
	TopScore          float64                  `json:"topScore"`
	ScoreDistribution models.ScoreDistribution `json:"scoreDistribution"`
	CommonSkills      []SkillCount             `json:"commonSkills"`
	TopTags           []TagCount               `json:"topTags"`
}

type FilteredResult struct {
	Evaluations []EnrichedEvaluation `json:"evaluations"`
	Pagination  Pagination           `json:"pagination"`
	Summary     Summary              `json:"summary"`
}

type ScoreRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type DateRange struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

const optionsCacheKeyPrefix = "filter-options:"

// OptionsCacheKey is the Redis key under which the option set for jobID is
// cached. An empty jobID names the unscoped set.
func OptionsCacheKey(jobID string) string {
	if jobID == "" {
		return optionsCacheKeyPrefix + "all"
	}
	return optionsCacheKeyPrefix + jobID
}

// FilterOptionSet lists the values present in the stored evaluations.
type FilterOptionSet struct {
	Departments []string   `json:"departments"`
	Locations   []string   `json:"locations"`
	Skills      []string   `json:"skills"`
	Tags        []string   `json:"tags"`
	ScoreRange  ScoreRange `json:"scoreRange"`
	DateRange   DateRange  `json:"dateRange"`
}
