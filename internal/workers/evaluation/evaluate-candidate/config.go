// internal/workers/evaluation/evaluate-candidate/config.go
package evaluatecandidate

import (
	"time"

	"candidate-matching-workers/internal/common/config"
	"candidate-matching-workers/internal/models"
)

type Config struct {
	Timeout time.Duration
	Weights models.ScoringWeights
}

// LoadConfig reads the worker timeout and default weights from cfg. A nil cfg
// yields the built-in defaults.
func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout: 30 * time.Second,
		Weights: models.DefaultWeights(),
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
	return c
}
