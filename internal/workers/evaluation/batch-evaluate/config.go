// internal/workers/evaluation/batch-evaluate/config.go
package batchevaluate

import (
	"time"

	"candidate-matching-workers/internal/batch"
	"candidate-matching-workers/internal/common/config"
	"candidate-matching-workers/internal/models"
)

type Config struct {
	Timeout     time.Duration
	Weights     models.ScoringWeights
	Concurrency int
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout:     2 * time.Minute,
		Weights:     models.DefaultWeights(),
		Concurrency: batch.DefaultConcurrency,
	}
	if cfg == nil {
		return c
	}
	if wc := config.GetWorkerConfig(cfg, TaskType); wc.Timeout > 0 {
		c.Timeout = config.GetDuration(wc.Timeout)
	}
	if !cfg.Matching.Weights.IsZero() {
		c.Weights = cfg.Matching.Weights
	}
	if cfg.Matching.BatchConcurrency > 0 {
		c.Concurrency = cfg.Matching.BatchConcurrency
	}
	return c
}
