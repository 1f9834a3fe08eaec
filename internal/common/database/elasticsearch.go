package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"candidate-matching-workers/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	addresses := cfg.Addresses
	if len(addresses) == 0 && cfg.URL != "" {
		addresses = []string{cfg.URL}
	}

	esCfg := elasticsearch.Config{
		Addresses: addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticsearchClient{Client: es}, nil
}

func (c *ElasticsearchClient) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := c.Client.Ping(
		c.Client.Ping.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}

	return nil
}

// EvaluationIndexMapping keeps ids, names and tags as keywords so that term
// filters and sorts on them are exact. resume.parsedData.raw is a wildcard
// field so skill filters match substrings of the raw blob.
const EvaluationIndexMapping = `{
  "mappings": {
    "properties": {
      "id":               {"type": "keyword"},
      "jobId":            {"type": "keyword"},
      "resumeId":         {"type": "keyword"},
      "overallScore":     {"type": "double"},
      "skillsScore":      {"type": "double"},
      "experienceScore":  {"type": "double"},
      "educationScore":   {"type": "double"},
      "culturalFitScore": {"type": "double"},
      "explanation":      {"type": "text"},
      "recommendation":   {"type": "text"},
      "status":           {"type": "keyword"},
      "createdAt":        {"type": "date"},
      "updatedAt":        {"type": "date"},
      "job": {
        "properties": {
          "id":         {"type": "keyword"},
          "title":      {"type": "text"},
          "department": {"type": "keyword"},
          "location":   {"type": "keyword"}
        }
      },
      "resume": {
        "properties": {
          "id":             {"type": "keyword"},
          "candidateName":  {"type": "keyword"},
          "candidateEmail": {"type": "keyword"},
          "phone":          {"type": "keyword"},
          "parsedData": {
            "type": "text",
            "fields": {"raw": {"type": "wildcard"}}
          },
          "status":         {"type": "keyword"},
          "tags": {
            "properties": {
              "id":       {"type": "keyword"},
              "name":     {"type": "keyword"},
              "category": {"type": "keyword"}
            }
          }
        }
      }
    }
  }
}`

// EnsureIndex creates index with EvaluationIndexMapping unless it exists.
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context, index string) error {
	res, err := c.Client.Indices.Exists([]string{index}, c.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = c.Client.Indices.Create(index,
		c.Client.Indices.Create.WithContext(ctx),
		c.Client.Indices.Create.WithBody(strings.NewReader(EvaluationIndexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index %s: %s", index, res.String())
	}
	return nil
}
