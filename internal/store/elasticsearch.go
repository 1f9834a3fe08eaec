package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"candidate-matching-workers/internal/common/logger"
	"candidate-matching-workers/internal/models"
)

// scanPageSize is the page size used to walk unbounded queries with
// search_after, which is not limited by index.max_result_window.
var scanPageSize = 1000

var esSortFields = map[SortField]string{
	SortOverallScore:    "overallScore",
	SortSkillsScore:     "skillsScore",
	SortExperienceScore: "experienceScore",
	SortEducationScore:  "educationScore",
	SortCreatedAt:       "createdAt",
	SortCandidateName:   "resume.candidateName",
}

// ElasticsearchStore serves evaluation records from an index whose documents
// are models.EvaluationRecord JSON.
type ElasticsearchStore struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticsearchStore(client *elasticsearch.Client, index string, log logger.Logger) *ElasticsearchStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &ElasticsearchStore{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"store": "elasticsearch", "index": index}),
	}
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source models.EvaluationRecord `json:"_source"`
			Sort   []interface{}           `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

type countResponse struct {
	Count int `json:"count"`
}

type searchPage struct {
	records  []models.EvaluationRecord
	lastSort []interface{}
}

// FindMany returns one page when q.Take is set. Otherwise it walks the whole
// match set in sort order and drops the first q.Skip records.
func (s *ElasticsearchStore) FindMany(ctx context.Context, q Query) ([]models.EvaluationRecord, error) {
	if q.Take > 0 {
		page, err := s.search(ctx, q.Predicate, q.OrderBy, q.Skip, q.Take, nil)
		if err != nil {
			return nil, err
		}
		return page.records, nil
	}

	records := []models.EvaluationRecord{}
	var after []interface{}
	for {
		page, err := s.search(ctx, q.Predicate, q.OrderBy, 0, scanPageSize, after)
		if err != nil {
			return nil, err
		}
		records = append(records, page.records...)
		if len(page.records) < scanPageSize || page.lastSort == nil {
			break
		}
		after = page.lastSort
	}

	if q.Skip >= len(records) {
		return []models.EvaluationRecord{}, nil
	}
	return records[q.Skip:], nil
}

func (s *ElasticsearchStore) search(ctx context.Context, p Predicate, o Order, from, size int, after []interface{}) (*searchPage, error) {
	body := map[string]interface{}{
		"query": buildBoolQuery(p),
		"sort":  buildSort(o),
	}
	if after != nil {
		body["search_after"] = after
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(payload),
		Size:  &size,
	}
	if from > 0 {
		req.From = &from
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("search evaluations: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search evaluations: %s", readError(res))
	}

	var r searchResponse
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	page := &searchPage{records: make([]models.EvaluationRecord, 0, len(r.Hits.Hits))}
	for _, hit := range r.Hits.Hits {
		rec := hit.Source
		if rec.Resume.Tags == nil {
			rec.Resume.Tags = []models.Tag{}
		}
		page.records = append(page.records, rec)
		page.lastSort = hit.Sort
	}

	s.logger.Debug("search executed", map[string]interface{}{
		"took":  r.Took,
		"total": r.Hits.Total.Value,
		"hits":  len(page.records),
	})
	return page, nil
}

func (s *ElasticsearchStore) Count(ctx context.Context, p Predicate) (int, error) {
	payload, err := json.Marshal(map[string]interface{}{"query": buildBoolQuery(p)})
	if err != nil {
		return 0, fmt.Errorf("encode count: %w", err)
	}

	req := esapi.CountRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(payload),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return 0, fmt.Errorf("count evaluations: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("count evaluations: %s", readError(res))
	}

	var r countResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return r.Count, nil
}

// Index writes rec under its id, replacing any previous version, and then
// propagates rec.Resume.Tags to the resume's other evaluations.
func (s *ElasticsearchStore) Index(ctx context.Context, rec models.EvaluationRecord) error {
	if rec.Resume.Tags == nil {
		rec.Resume.Tags = []models.Tag{}
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode evaluation: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: rec.ID,
		Body:       bytes.NewReader(payload),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("index evaluation %s: %w", rec.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index evaluation %s: %s", rec.ID, readError(res))
	}

	if rec.ResumeID == "" {
		return nil
	}
	return s.syncResumeTags(ctx, rec.ResumeID, rec.ID, rec.Resume.Tags)
}

// syncResumeTags copies tags onto every other evaluation of the resume. Tags
// belong to the resume, so a new evaluation for one job changes what the
// tag filters match for all of them.
func (s *ElasticsearchStore) syncResumeTags(ctx context.Context, resumeID, skipID string, tags []models.Tag) error {
	payload, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter":   []interface{}{term("resumeId", resumeID)},
				"must_not": []interface{}{term("id", skipID)},
			},
		},
		"script": map[string]interface{}{
			"lang":   "painless",
			"source": "ctx._source.resume.tags = params.tags",
			"params": map[string]interface{}{"tags": tags},
		},
	})
	if err != nil {
		return fmt.Errorf("encode tag update: %w", err)
	}

	req := esapi.UpdateByQueryRequest{
		Index:     []string{s.index},
		Body:      bytes.NewReader(payload),
		Conflicts: "proceed",
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("update tags of resume %s: %w", resumeID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("update tags of resume %s: %s", resumeID, readError(res))
	}
	return nil
}

func buildBoolQuery(p Predicate) map[string]interface{} {
	filter := []interface{}{}
	mustNot := []interface{}{}

	if p.JobID != "" {
		filter = append(filter, term("jobId", p.JobID))
	}
	if p.MinScore != nil || p.MaxScore != nil {
		r := map[string]interface{}{}
		if p.MinScore != nil {
			r["gte"] = *p.MinScore
		}
		if p.MaxScore != nil {
			r["lte"] = *p.MaxScore
		}
		filter = append(filter, map[string]interface{}{"range": map[string]interface{}{"overallScore": r}})
	}
	if len(p.Statuses) > 0 {
		filter = append(filter, terms("status", p.Statuses))
	}
	if p.DateFrom != nil || p.DateTo != nil {
		r := map[string]interface{}{}
		if p.DateFrom != nil {
			r["gte"] = p.DateFrom.UTC().Format(time.RFC3339Nano)
		}
		if p.DateTo != nil {
			r["lte"] = p.DateTo.UTC().Format(time.RFC3339Nano)
		}
		filter = append(filter, map[string]interface{}{"range": map[string]interface{}{"createdAt": r}})
	}
	if p.Department != "" {
		filter = append(filter, term("job.department", p.Department))
	}
	if p.Location != "" {
		filter = append(filter, map[string]interface{}{
			"wildcard": map[string]interface{}{
				"job.location": map[string]interface{}{
					"value":            "*" + escapeWildcard(p.Location) + "*",
					"case_insensitive": true,
				},
			},
		})
	}
	if p.SkillContains != "" {
		// Case-sensitive substring match on the raw blob, like LIKE '%skill%'.
		filter = append(filter, map[string]interface{}{
			"wildcard": map[string]interface{}{
				"resume.parsedData.raw": map[string]interface{}{
					"value": "*" + escapeWildcard(p.SkillContains) + "*",
				},
			},
		})
	}
	if len(p.TagsAny) > 0 {
		filter = append(filter, terms("resume.tags.name", p.TagsAny))
	}
	if len(p.TagsNone) > 0 {
		mustNot = append(mustNot, terms("resume.tags.name", p.TagsNone))
	}

	boolQuery := map[string]interface{}{"filter": filter}
	if len(mustNot) > 0 {
		boolQuery["must_not"] = mustNot
	}
	return map[string]interface{}{"bool": boolQuery}
}

func buildSort(o Order) []interface{} {
	field, ok := esSortFields[o.Field]
	if !ok {
		field = esSortFields[SortOverallScore]
	}
	direction := "asc"
	if o.Descending {
		direction = "desc"
	}
	return []interface{}{
		map[string]interface{}{field: map[string]interface{}{"order": direction}},
		map[string]interface{}{"id": map[string]interface{}{"order": "asc"}},
	}
}

func term(field string, value interface{}) map[string]interface{} {
	return map[string]interface{}{"term": map[string]interface{}{field: value}}
}

func terms(field string, values []string) map[string]interface{} {
	return map[string]interface{}{"terms": map[string]interface{}{field: values}}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}

func readError(res *esapi.Response) string {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Sprintf("[%s] %s", res.Status(), strings.TrimSpace(string(body)))
}
