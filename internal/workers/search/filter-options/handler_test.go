package filteroptions

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"candidate-matching-workers/internal/common/config"
	"candidate-matching-workers/internal/common/errors"
	"candidate-matching-workers/internal/common/logger"
	"candidate-matching-workers/internal/filtering"
)

// ==========================
// Test Helper Functions
// ==========================

type MockService struct {
	mock.Mock
}

func (m *MockService) GetFilterOptions(ctx context.Context, jobID string) (*filtering.FilterOptionSet, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*filtering.FilterOptionSet), args.Error(1)
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second, CacheTTL: time.Minute}
}

func sampleOptions() *filtering.FilterOptionSet {
	day := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &filtering.FilterOptionSet{
		Departments: []string{"Engineering"},
		Locations:   []string{"Remote"},
		Skills:      []string{"Go", "React"},
		Tags:        []string{"Top Candidate"},
		ScoreRange:  filtering.ScoreRange{Min: 0.35, Max: 0.85},
		DateRange:   filtering.DateRange{Min: day, Max: day.Add(48 * time.Hour)},
	}
}

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func newHandler(t *testing.T, svc Service, cache redis.Cmdable) *Handler {
	return NewHandler(createTestConfig(), Dependencies{
		Service: svc,
		Cache:   cache,
		Logger:  createTestLogger(t),
	})
}

// ==========================
// Cache Tests
// ==========================

func TestHandler_Execute_MissThenHit(t *testing.T) {
	mr, client := setupMiniredis(t)
	svc := new(MockService)
	svc.On("GetFilterOptions", mock.Anything, "job1").Return(sampleOptions(), nil).Once()

	h := newHandler(t, svc, client)

	first, err := h.Execute(context.Background(), &Input{JobID: "job1"})
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, []string{"Go", "React"}, first.Skills)

	assert.True(t, mr.Exists("filter-options:job1"))
	assert.Equal(t, time.Minute, mr.TTL("filter-options:job1"))

	second, err := h.Execute(context.Background(), &Input{JobID: "job1"})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Departments, second.Departments)
	assert.Equal(t, first.ScoreRange, second.ScoreRange)
	assert.True(t, first.DateRange.Max.Equal(second.DateRange.Max))

	svc.AssertNumberOfCalls(t, "GetFilterOptions", 1)
}

func TestHandler_Execute_ExpiredEntryIsRecomputed(t *testing.T) {
	mr, client := setupMiniredis(t)
	svc := new(MockService)
	svc.On("GetFilterOptions", mock.Anything, "").Return(sampleOptions(), nil)

	h := newHandler(t, svc, client)

	_, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	require.True(t, mr.Exists("filter-options:all"))

	mr.FastForward(2 * time.Minute)

	output, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.False(t, output.Cached)
	svc.AssertNumberOfCalls(t, "GetFilterOptions", 2)
}

func TestHandler_Execute_CorruptEntryIsIgnored(t *testing.T) {
	mr, client := setupMiniredis(t)
	require.NoError(t, mr.Set("filter-options:job1", "{not json"))

	svc := new(MockService)
	svc.On("GetFilterOptions", mock.Anything, "job1").Return(sampleOptions(), nil)

	output, err := newHandler(t, svc, client).Execute(context.Background(), &Input{JobID: "job1"})
	require.NoError(t, err)
	assert.False(t, output.Cached)

	cached, err := mr.Get("filter-options:job1")
	require.NoError(t, err)
	assert.JSONEq(t, mustJSON(t, sampleOptions()), cached)
}

func TestHandler_Execute_CacheErrorsAreNotFatal(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	opts := sampleOptions()
	data, err := json.Marshal(opts)
	require.NoError(t, err)

	redisMock.ExpectGet("filter-options:job1").SetErr(stderrors.New("connection refused"))
	redisMock.ExpectSet("filter-options:job1", data, time.Minute).SetErr(stderrors.New("connection refused"))

	svc := new(MockService)
	svc.On("GetFilterOptions", mock.Anything, "job1").Return(opts, nil)

	output, err := newHandler(t, svc, client).Execute(context.Background(), &Input{JobID: "job1"})
	require.NoError(t, err)
	assert.Equal(t, *opts, output.FilterOptionSet)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Execute_WithoutCache(t *testing.T) {
	svc := new(MockService)
	svc.On("GetFilterOptions", mock.Anything, "job1").Return(sampleOptions(), nil)

	output, err := newHandler(t, svc, nil).Execute(context.Background(), &Input{JobID: "job1"})
	require.NoError(t, err)
	assert.False(t, output.Cached)

	client, redisMock := redismock.NewClientMock()
	h := NewHandler(&Config{Timeout: time.Second}, Dependencies{Service: svc, Cache: client})
	_, err = h.Execute(context.Background(), &Input{JobID: "job1"})
	require.NoError(t, err)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_ServiceError(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	redisMock.ExpectGet("filter-options:job1").RedisNil()

	svc := new(MockService)
	svc.On("GetFilterOptions", mock.Anything, "job1").
		Return(nil, &filtering.Error{Op: filtering.ErrFilterOptionsFailed, Err: stderrors.New("boom")})

	output, err := newHandler(t, svc, client).Execute(context.Background(), &Input{JobID: "job1"})
	assert.Nil(t, output)

	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeFilterOptionsFailed, stdErr.Code)
	assert.Equal(t, "Failed to get filter options", stdErr.Message)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, 5*time.Minute, LoadConfig(nil).CacheTTL)

	cfg := &config.Config{Matching: config.MatchingConfig{FilterOptionsCacheTTL: 30}}
	assert.Equal(t, 30*time.Second, LoadConfig(cfg).CacheTTL)
}

func mustJSON(t *testing.T, v interface{}) string {
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}
