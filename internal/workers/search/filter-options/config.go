// internal/workers/search/filter-options/config.go
package filteroptions

import (
	"time"

	"candidate-matching-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// CacheTTL of zero disables caching.
	CacheTTL time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout:  30 * time.Second,
		CacheTTL: 5 * time.Minute,
	}
	if cfg == nil {
		return c
	}
	if wc := config.GetWorkerConfig(cfg, TaskType); wc.Timeout > 0 {
		c.Timeout = config.GetDuration(wc.Timeout)
	}
	c.CacheTTL = cfg.Matching.CacheTTL()
	return c
}
