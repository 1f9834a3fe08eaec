// Package filtering queries persisted evaluations, enriches each page and
// aggregates it.
package filtering

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"candidate-matching-workers/internal/common/logger"
	"candidate-matching-workers/internal/store"
)

var (
	ErrFilterFailed         = errors.New("Failed to filter candidates")
	ErrFilterOptionsFailed  = errors.New("Failed to get filter options")
	ErrAdvancedSearchFailed = errors.New("Failed to perform advanced search")
)

// Error reports a failed operation with its fixed message. errors.Is matches
// both the operation sentinel and the underlying cause.
type Error struct {
	Op  error
	Err error
}

func (e *Error) Error() string {
	return e.Op.Error()
}

func (e *Error) Unwrap() []error {
	return []error{e.Op, e.Err}
}

type Service struct {
	reader  store.Reader
	timeout time.Duration
	logger  logger.Logger
	now     func() time.Time
}

// NewService builds a Service over reader. A positive timeout bounds every
// call into the store.
func NewService(reader store.Reader, timeout time.Duration, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		reader:  reader,
		timeout: timeout,
		logger:  log,
		now:     time.Now,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// FilterCandidates returns one page of evaluations matching filters. The
// page and the total count are fetched concurrently. The summary covers the
// returned page only.
func (s *Service) FilterCandidates(ctx context.Context, jobID string, filters FilterOptions, sortOpts SortOptions, page PaginationOptions) (*FilteredResult, error) {
	result, err := s.filter(ctx, jobID, filters, sortOpts, page)
	if err != nil {
		s.logger.Error("filter candidates failed", map[string]interface{}{"jobId": jobID, "error": err})
		return nil, &Error{Op: ErrFilterFailed, Err: err}
	}
	return result, nil
}

func (s *Service) filter(ctx context.Context, jobID string, filters FilterOptions, sortOpts SortOptions, page PaginationOptions) (*FilteredResult, error) {
	page = page.withDefaults()
	predicate := filters.Predicate(jobID)
	query := store.Query{
		Predicate: predicate,
		OrderBy:   sortOpts.Order(),
		Skip:      page.skip(),
		Take:      page.Limit,
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var total int
	records := []EnrichedEvaluation{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := s.reader.FindMany(gctx, query)
		if err != nil {
			return err
		}
		records = enrich(found)
		return nil
	})
	g.Go(func() error {
		n, err := s.reader.Count(gctx, predicate)
		if err != nil {
			return err
		}
		total = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("candidates filtered", map[string]interface{}{
		"jobId": jobID,
		"page":  page.Page,
		"limit": page.Limit,
		"total": total,
		"hits":  len(records),
	})

	return &FilteredResult{
		Evaluations: records,
		Pagination:  newPagination(total, page),
		Summary:     summarize(records),
	}, nil
}

// AdvancedSearch runs FilterCandidates and keeps the records of that page
// whose name, email or skills contain any whitespace-separated term of query,
// case-insensitively. Total and TotalPages are recounted from the kept
// records; the remaining pagination fields and the summary describe the page
// before the term match.
func (s *Service) AdvancedSearch(ctx context.Context, query, jobID string, filters FilterOptions, sortOpts SortOptions, page PaginationOptions) (*FilteredResult, error) {
	result, err := s.FilterCandidates(ctx, jobID, filters, sortOpts, page)
	if err != nil {
		return nil, &Error{Op: ErrAdvancedSearchFailed, Err: err}
	}

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return result, nil
	}

	kept := make([]EnrichedEvaluation, 0, len(result.Evaluations))
	for _, e := range result.Evaluations {
		if matchesAnyTerm(searchText(e), terms) {
			kept = append(kept, e)
		}
	}

	result.Evaluations = kept
	result.Pagination.Total = len(kept)
	result.Pagination.TotalPages = totalPagesFor(len(kept), result.Pagination.Limit)
	return result, nil
}

func searchText(e EnrichedEvaluation) string {
	var skills []string
	if e.ParsedData != nil {
		skills = e.ParsedData.Skills
	}
	return strings.ToLower(strings.Join([]string{
		e.Resume.CandidateName,
		e.Resume.CandidateEmail,
		strings.Join(skills, " "),
	}, " "))
}

func matchesAnyTerm(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// GetFilterOptions scans every evaluation, scoped to jobID when it is set,
// and reports the distinct values a caller can filter on.
func (s *Service) GetFilterOptions(ctx context.Context, jobID string) (*FilterOptionSet, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	records, err := s.reader.FindMany(ctx, store.Query{
		Predicate: store.Predicate{JobID: jobID},
		OrderBy:   store.Order{Field: store.SortCreatedAt},
	})
	if err != nil {
		s.logger.Error("get filter options failed", map[string]interface{}{"jobId": jobID, "error": err})
		return nil, &Error{Op: ErrFilterOptionsFailed, Err: err}
	}

	now := s.now().UTC()
	opts := &FilterOptionSet{
		Departments: []string{},
		Locations:   []string{},
		Skills:      []string{},
		Tags:        []string{},
		ScoreRange:  ScoreRange{Min: 0, Max: 1},
		DateRange:   DateRange{Min: now, Max: now},
	}
	if len(records) == 0 {
		return opts, nil
	}

	departments := stringSet{}
	locations := stringSet{}
	skills := stringSet{}
	tags := stringSet{}

	for i, rec := range records {
		departments.add(rec.Job.Department)
		locations.add(rec.Job.Location)
		if parsed := decodeParsedData(rec.Resume.ParsedData); parsed != nil {
			for _, skill := range parsed.Skills {
				skills.add(strings.TrimSpace(skill))
			}
		}
		for _, tag := range rec.Resume.Tags {
			tags.add(tag.Name)
		}

		if i == 0 {
			opts.ScoreRange = ScoreRange{Min: rec.OverallScore, Max: rec.OverallScore}
			opts.DateRange = DateRange{Min: rec.CreatedAt, Max: rec.CreatedAt}
			continue
		}
		if rec.OverallScore < opts.ScoreRange.Min {
			opts.ScoreRange.Min = rec.OverallScore
		}
		if rec.OverallScore > opts.ScoreRange.Max {
			opts.ScoreRange.Max = rec.OverallScore
		}
		if rec.CreatedAt.Before(opts.DateRange.Min) {
			opts.DateRange.Min = rec.CreatedAt
		}
		if rec.CreatedAt.After(opts.DateRange.Max) {
			opts.DateRange.Max = rec.CreatedAt
		}
	}

	opts.Departments = departments.sorted()
	opts.Locations = locations.sorted()
	opts.Skills = skills.sorted()
	opts.Tags = tags.sorted()
	return opts, nil
}

type stringSet map[string]struct{}

func (s stringSet) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
