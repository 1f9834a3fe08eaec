package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candidate-matching-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]interface{}
}

type fakeResponse struct {
	status int
	body   string
}

// fakeTransport answers requests with the queued responses in order, then
// with status and body, and keeps what it was sent.
type fakeTransport struct {
	mu       sync.Mutex
	status   int
	body     string
	queued   []fakeResponse
	requests []recordedRequest
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := recordedRequest{Method: req.Method, Path: req.URL.Path, Query: req.URL.RawQuery}
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.Body)
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	status, body := f.status, f.body
	if len(f.queued) > 0 {
		status, body = f.queued[0].status, f.queued[0].body
		f.queued = f.queued[1:]
	}
	f.mu.Unlock()

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("X-Elastic-Product", "Elasticsearch")
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}, nil
}

func (f *fakeTransport) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newFakeESStore(t *testing.T, status int, body string) (*ElasticsearchStore, *fakeTransport) {
	transport := &fakeTransport{status: status, body: body}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://es.test:9200"},
		Transport: transport,
	})
	require.NoError(t, err)
	return NewElasticsearchStore(client, "evaluations", createTestLogger(t)), transport
}

const searchHits = `{
  "took": 3,
  "hits": {
    "total": {"value": 2},
    "hits": [
      {"_source": {"id": "eval-1", "jobId": "job1", "resumeId": "resume-1", "overallScore": 0.85,
                   "status": "COMPLETED", "createdAt": "2024-03-01T12:00:00Z", "updatedAt": "2024-03-01T12:00:00Z",
                   "job": {"id": "job1", "title": "Full Stack Developer", "department": "Engineering"},
                   "resume": {"id": "resume-1", "candidateName": "Alice", "candidateEmail": "alice@example.com",
                              "parsedData": "{\"skills\":[\"Go\"]}", "status": "PARSED",
                              "tags": [{"id": "tag-1", "name": "Top Candidate"}]}}},
      {"_source": {"id": "eval-2", "jobId": "job1", "resumeId": "resume-2", "overallScore": 0.35,
                   "status": "COMPLETED", "createdAt": "2024-03-01T12:00:00Z", "updatedAt": "2024-03-01T12:00:00Z",
                   "job": {"id": "job1", "title": "Full Stack Developer"},
                   "resume": {"id": "resume-2", "candidateName": "Bob", "candidateEmail": "bob@example.com",
                              "parsedData": "{}", "status": "PARSED"}}}
    ]
  }
}`

// ==========================
// Search Tests
// ==========================

func TestElasticsearchStore_FindMany(t *testing.T) {
	s, transport := newFakeESStore(t, http.StatusOK, searchHits)

	records, err := s.FindMany(context.Background(), Query{
		Predicate: Predicate{JobID: "job1", MinScore: floatPtr(0.3)},
		OrderBy:   Order{Field: SortCandidateName, Descending: true},
		Skip:      20,
		Take:      10,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "eval-1", records[0].ID)
	assert.Equal(t, 0.85, records[0].OverallScore)
	assert.Equal(t, "Engineering", records[0].Job.Department)
	require.Len(t, records[0].Resume.Tags, 1)
	assert.Equal(t, "Top Candidate", records[0].Resume.Tags[0].Name)
	assert.NotNil(t, records[1].Resume.Tags)
	assert.Empty(t, records[1].Resume.Tags)

	req := transport.last(t)
	assert.Equal(t, "/evaluations/_search", req.Path)
	assert.Contains(t, req.Query, "from=20")
	assert.Contains(t, req.Query, "size=10")

	sort := req.Body["sort"].([]interface{})
	require.Len(t, sort, 2)
	assert.Contains(t, sort[0], "resume.candidateName")
	assert.Equal(t, "desc", sort[0].(map[string]interface{})["resume.candidateName"].(map[string]interface{})["order"])
}

func TestElasticsearchStore_FindMany_UnboundedWalksEveryPage(t *testing.T) {
	original := scanPageSize
	scanPageSize = 2
	t.Cleanup(func() { scanPageSize = original })

	s, transport := newFakeESStore(t, http.StatusOK, "")
	transport.queued = []fakeResponse{
		{http.StatusOK, `{"hits":{"total":{"value":10000},"hits":[
			{"_source":{"id":"eval-1","resumeId":"resume-1"},"sort":[0.9,"eval-1"]},
			{"_source":{"id":"eval-2","resumeId":"resume-2"},"sort":[0.35,"eval-2"]}]}}`},
		{http.StatusOK, `{"hits":{"total":{"value":10000},"hits":[
			{"_source":{"id":"eval-3","resumeId":"resume-3"},"sort":[0.1,"eval-3"]}]}}`},
	}

	records, err := s.FindMany(context.Background(), Query{
		OrderBy: Order{Field: SortOverallScore, Descending: true},
		Skip:    1,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "eval-2", records[0].ID)
	assert.Equal(t, "eval-3", records[1].ID)

	require.Len(t, transport.requests, 2)
	first, second := transport.requests[0], transport.requests[1]
	assert.Contains(t, first.Query, "size=2")
	assert.NotContains(t, first.Query, "from=")
	assert.NotContains(t, first.Body, "search_after")
	assert.Equal(t, []interface{}{0.35, "eval-2"}, second.Body["search_after"])
}

func TestElasticsearchStore_FindMany_SkipPastEnd(t *testing.T) {
	s, _ := newFakeESStore(t, http.StatusOK, `{"hits":{"total":{"value":0},"hits":[]}}`)

	records, err := s.FindMany(context.Background(), Query{Skip: 5})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestElasticsearchStore_FindMany_ErrorResponse(t *testing.T) {
	s, _ := newFakeESStore(t, http.StatusBadRequest, `{"error":{"type":"parsing_exception"}}`)

	_, err := s.FindMany(context.Background(), Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing_exception")
}

func TestElasticsearchStore_Count(t *testing.T) {
	s, transport := newFakeESStore(t, http.StatusOK, `{"count": 42}`)

	total, err := s.Count(context.Background(), Predicate{Department: "Engineering"})
	require.NoError(t, err)
	assert.Equal(t, 42, total)

	req := transport.last(t)
	assert.Equal(t, "/evaluations/_count", req.Path)
	assert.Contains(t, req.Body, "query")
}

func TestElasticsearchStore_Index(t *testing.T) {
	s, transport := newFakeESStore(t, http.StatusOK, `{"result":"created"}`)

	err := s.Index(context.Background(), models.EvaluationRecord{
		ID:           "eval-1",
		JobID:        "job1",
		OverallScore: 0.7,
	})
	require.NoError(t, err)

	require.Len(t, transport.requests, 1)
	req := transport.last(t)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/evaluations/_doc/eval-1", req.Path)
	assert.Equal(t, "eval-1", req.Body["id"])
	resume := req.Body["resume"].(map[string]interface{})
	assert.Equal(t, []interface{}{}, resume["tags"])
}

// Scoring the same resume for a second job must rewrite the tags on the
// first job's document too.
func TestElasticsearchStore_Index_PropagatesResumeTags(t *testing.T) {
	s, transport := newFakeESStore(t, http.StatusOK, "")
	transport.queued = []fakeResponse{
		{http.StatusCreated, `{"result":"created"}`},
		{http.StatusOK, `{"updated":1,"failures":[]}`},
	}

	rec := Document(
		models.EvaluationRecord{
			ID:       "eval-b",
			JobID:    "job-b",
			ResumeID: "resume-1",
			Resume: models.EvaluationResume{Tags: []models.Tag{
				{ID: "tag-1", Name: "Top Candidate", Category: models.TagCategoryCustom},
				{ID: "tag-2", Name: "Poor Fit", Category: models.TagCategoryCustom},
			}},
		},
		models.JobRequirements{ID: "job-b", Title: "Designer"},
		models.Resume{ID: "resume-1", CandidateName: "Alice"},
	)
	require.NoError(t, s.Index(context.Background(), rec))

	require.Len(t, transport.requests, 2)
	indexed := transport.requests[0]
	assert.Equal(t, "/evaluations/_doc/eval-b", indexed.Path)
	assert.Len(t, indexed.Body["resume"].(map[string]interface{})["tags"], 2)

	update := transport.requests[1]
	assert.Equal(t, http.MethodPost, update.Method)
	assert.Equal(t, "/evaluations/_update_by_query", update.Path)
	assert.Contains(t, update.Query, "conflicts=proceed")

	boolQuery := update.Body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.Equal(t, []interface{}{map[string]interface{}{"term": map[string]interface{}{"resumeId": "resume-1"}}}, boolQuery["filter"])
	assert.Equal(t, []interface{}{map[string]interface{}{"term": map[string]interface{}{"id": "eval-b"}}}, boolQuery["must_not"])

	script := update.Body["script"].(map[string]interface{})
	assert.Equal(t, "ctx._source.resume.tags = params.tags", script["source"])
	tags := script["params"].(map[string]interface{})["tags"].([]interface{})
	require.Len(t, tags, 2)
	assert.Equal(t, "Poor Fit", tags[1].(map[string]interface{})["name"])
}

func TestElasticsearchStore_Index_TagUpdateFailure(t *testing.T) {
	s, transport := newFakeESStore(t, http.StatusOK, "")
	transport.queued = []fakeResponse{
		{http.StatusCreated, `{"result":"created"}`},
		{http.StatusBadRequest, `{"error":{"type":"script_exception"}}`},
	}

	err := s.Index(context.Background(), models.EvaluationRecord{ID: "eval-1", ResumeID: "resume-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update tags of resume resume-1")
	assert.Contains(t, err.Error(), "script_exception")
}

// ==========================
// Query Translation Tests
// ==========================

func TestBuildBoolQuery(t *testing.T) {
	lo, hi := 0.4, 0.9
	q := buildBoolQuery(Predicate{
		JobID:         "job1",
		MinScore:      &lo,
		MaxScore:      &hi,
		Statuses:      []string{"COMPLETED"},
		Department:    "Engineering",
		Location:      "san*",
		SkillContains: "React",
		TagsAny:       []string{"Top Candidate"},
		TagsNone:      []string{"Poor Fit"},
	})

	boolQuery := q["bool"].(map[string]interface{})
	filter := boolQuery["filter"].([]interface{})
	require.Len(t, filter, 7)

	assert.Equal(t, term("jobId", "job1"), filter[0])
	assert.Equal(t, map[string]interface{}{
		"range": map[string]interface{}{"overallScore": map[string]interface{}{"gte": 0.4, "lte": 0.9}},
	}, filter[1])
	assert.Equal(t, terms("status", []string{"COMPLETED"}), filter[2])
	assert.Equal(t, term("job.department", "Engineering"), filter[3])

	wildcard := filter[4].(map[string]interface{})["wildcard"].(map[string]interface{})["job.location"].(map[string]interface{})
	assert.Equal(t, `*san\**`, wildcard["value"])
	assert.Equal(t, true, wildcard["case_insensitive"])

	assert.Equal(t, map[string]interface{}{
		"wildcard": map[string]interface{}{
			"resume.parsedData.raw": map[string]interface{}{"value": "*React*"},
		},
	}, filter[5])

	assert.Equal(t, terms("resume.tags.name", []string{"Top Candidate"}), filter[6])
	assert.Equal(t, []interface{}{terms("resume.tags.name", []string{"Poor Fit"})}, boolQuery["must_not"])
}

// Skill filters are substring matches on the stored blob and keep case, so
// "React" finds "ReactJS" but not "react".
func TestBuildBoolQuery_SkillIsCaseSensitiveSubstring(t *testing.T) {
	q := buildBoolQuery(Predicate{SkillContains: "C*?"})

	filter := q["bool"].(map[string]interface{})["filter"].([]interface{})
	require.Len(t, filter, 1)
	wildcard := filter[0].(map[string]interface{})["wildcard"].(map[string]interface{})["resume.parsedData.raw"].(map[string]interface{})
	assert.Equal(t, `*C\*\?*`, wildcard["value"])
	assert.NotContains(t, wildcard, "case_insensitive")
}

func TestBuildBoolQuery_Empty(t *testing.T) {
	q := buildBoolQuery(Predicate{})
	boolQuery := q["bool"].(map[string]interface{})
	assert.Empty(t, boolQuery["filter"])
	assert.NotContains(t, boolQuery, "must_not")
}
