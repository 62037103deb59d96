// internal/common/config/config.go
package config

import (
	"fmt"

	"crew-match-workers/internal/matching"
)

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Matching     MatchingConfig          `mapstructure:"matching"`
	HTTP         HTTPConfig              `mapstructure:"http"`
	Logging      LoggingConfig           `mapstructure:"logging"`
	RegistryPath string                  `mapstructure:"registry_path"` // empty uses the built-in registry
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	ConnectRetries int    `mapstructure:"connect_retries"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the lib/pq connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns URL, falling back to the first address.
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// MatchingConfig tunes scoring and the candidate loaders.
type MatchingConfig struct {
	RiskPenalty      int     `mapstructure:"risk_penalty"`
	ProximityDecayKm float64 `mapstructure:"proximity_decay_km"`
	NeutralProximity float64 `mapstructure:"neutral_proximity"`
	SkillWeight      float64 `mapstructure:"skill_weight"`
	DepartureWeight  float64 `mapstructure:"departure_weight"`
	ArrivalWeight    float64 `mapstructure:"arrival_weight"`

	ProfileCacheTTL int `mapstructure:"profile_cache_ttl"` // seconds, shared Redis copy
	LocalCacheTTL   int `mapstructure:"local_cache_ttl"`   // seconds, in-process copy
	LocalCacheSize  int `mapstructure:"local_cache_size"`
	MaxCandidates   int `mapstructure:"max_candidates"`

	LegIndex string `mapstructure:"leg_index"`
}

// Policy converts the section into a scoring policy. The result is not validated.
func (m MatchingConfig) Policy() matching.Policy {
	return matching.Policy{
		RiskPenalty:      m.RiskPenalty,
		ProximityDecayKm: m.ProximityDecayKm,
		NeutralProximity: m.NeutralProximity,
		SkillWeight:      m.SkillWeight,
		DepartureWeight:  m.DepartureWeight,
		ArrivalWeight:    m.ArrivalWeight,
	}
}

type HTTPConfig struct {
	Address      string `mapstructure:"address"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
