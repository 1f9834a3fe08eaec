package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candidate-matching-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

const minimalConfig = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: recruitment
    user: postgres
  redis:
    address: localhost:6379
`

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// ==========================
// Loading Tests
// ==========================

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.MetricsPort)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.Equal(t, models.DefaultWeights(), cfg.Matching.Weights)
	assert.Equal(t, 8, cfg.Matching.BatchConcurrency)
	assert.Equal(t, 5*time.Second, cfg.Matching.QueryTimeoutDuration())
	assert.Equal(t, 5*time.Minute, cfg.Matching.CacheTTL())
	assert.Equal(t, SearchBackendPostgres, cfg.Matching.Search.Backend)
	assert.Equal(t, "evaluations", cfg.Matching.Search.Index)
	assert.False(t, cfg.Database.Elasticsearch.Configured())
}

func TestLoadFromFile_MatchingAndWorkers(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig+`
workers:
  batch-evaluate:
    enabled: false
    timeout: 120000
matching:
  weights:
    skills: 0.7
    experience: 0.1
    education: 0.1
    cultural_fit: 0.1
  batch_concurrency: 4
  filter_options_cache_ttl: 60
`))
	require.NoError(t, err)

	assert.Equal(t, models.ScoringWeights{Skills: 0.7, Experience: 0.1, Education: 0.1, CulturalFit: 0.1}, cfg.Matching.Weights)
	assert.Equal(t, 4, cfg.Matching.BatchConcurrency)
	assert.Equal(t, time.Minute, cfg.Matching.CacheTTL())

	batch := GetWorkerConfig(cfg, "batch-evaluate")
	assert.False(t, batch.Enabled)
	assert.Equal(t, 120000, batch.Timeout)
	assert.Equal(t, 5, batch.MaxJobsActive)
	assert.Equal(t, 3, batch.MaxRetries)
	assert.False(t, IsWorkerEnabled(cfg, "batch-evaluate"))

	unknown := GetWorkerConfig(cfg, "filter-options")
	assert.True(t, unknown.Enabled)
	assert.Equal(t, 30000, unknown.Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "filter-options"))
}

func TestLoadFromFile_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "db.internal")
	t.Setenv("TEST_ES_URL", "")

	cfg, err := LoadFromFile(writeConfig(t, `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: ${TEST_DB_HOST}
    database: recruitment
    user: postgres
  redis:
    address: localhost:6379
  elasticsearch:
    url: ${TEST_ES_URL}
`))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.False(t, cfg.Database.Elasticsearch.Configured())
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing broker",
			content: "database:\n  postgres:\n    host: localhost\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name:    "unknown search backend",
			content: minimalConfig + "matching:\n  search:\n    backend: solr\n",
			wantErr: "matching.search.backend",
		},
		{
			name:    "elasticsearch backend without address",
			content: minimalConfig + "matching:\n  search:\n    backend: elasticsearch\n",
			wantErr: "database.elasticsearch.addresses or url is required",
		},
		{
			name:    "negative weight",
			content: minimalConfig + "matching:\n  weights:\n    skills: -1\n",
			wantErr: "matching.weights must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestElasticsearchConfig_GetURL(t *testing.T) {
	assert.Equal(t, "http://a:9200", ElasticsearchConfig{URL: "http://a:9200", Addresses: []string{"http://b:9200"}}.GetURL())
	assert.Equal(t, "http://b:9200", ElasticsearchConfig{Addresses: []string{"http://b:9200"}}.GetURL())
	assert.False(t, ElasticsearchConfig{}.Configured())
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	dsn := PostgresConfig{Host: "h", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "require"}.GetDSN()
	assert.Equal(t, "host=h port=5433 user=u password=p dbname=d sslmode=require", dsn)
}
