// internal/workers/matching/calculate-skill-match/config.go
package calculateskillmatch

import (
	"time"

	"crew-match-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{Timeout: 10 * time.Second}
}

func NewConfig(cfg *config.Config) *Config {
	c := LoadConfig()
	if w := config.GetWorkerConfig(cfg, TaskType); w.Timeout > 0 {
		c.Timeout = config.GetDuration(w.Timeout)
	}
	return c
}
