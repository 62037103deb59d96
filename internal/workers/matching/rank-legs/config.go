// internal/workers/matching/rank-legs/config.go
package ranklegs

import (
	"time"

	"crew-match-workers/internal/common/config"
)

type Config struct {
	Timeout       time.Duration
	MaxCandidates int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		MaxCandidates: 500,
	}
}

// NewConfig derives the worker settings from the application config.
func NewConfig(cfg *config.Config) *Config {
	c := LoadConfig()
	if w := config.GetWorkerConfig(cfg, TaskType); w.Timeout > 0 {
		c.Timeout = config.GetDuration(w.Timeout)
	}
	if cfg.Matching.MaxCandidates > 0 {
		c.MaxCandidates = cfg.Matching.MaxCandidates
	}
	return c
}
