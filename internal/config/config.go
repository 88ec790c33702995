// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env on top.
// - Validation errors wrap ErrInvalidConfig, loading errors wrap ErrLoadConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/diploma/internal/domain/credits"
)

// SubjectConfig overrides one catalog entry.
type SubjectConfig struct {
	Key             string  `koanf:"key"`
	DisplayName     string  `koanf:"display_name"`
	CreditsRequired float64 `koanf:"credits_required"`
	XPPerCredit     int64   `koanf:"xp_per_credit"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// LogFile, when set, also writes logs to a rotated file.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory transcript queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of transcript workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many submission ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxCohortLimit caps GET /cohort?limit.
	MaxCohortLimit int `koanf:"max_cohort_limit"`

	// TopSubjects is the default length of the top-subjects ranking.
	TopSubjects int `koanf:"top_subjects"`

	// RateLimitRPS and RateLimitBurst configure the API token bucket; 0 disables it.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// TotalCreditsRequired is the graduation threshold used with custom subjects.
	TotalCreditsRequired float64 `koanf:"total_credits_required"`

	// Subjects replaces the built-in catalog when non-empty.
	Subjects []SubjectConfig `koanf:"subjects"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		QueueSize:            50_000,
		WorkerCount:          runtime.NumCPU() * 2,
		DedupeSize:           200_000,
		MaxCohortLimit:       100,
		TopSubjects:          3,
		RateLimitRPS:         0,
		RateLimitBurst:       50,
		TotalCreditsRequired: credits.TotalCreditsRequired,
	}
}

// Validate checks the fields that cannot be defaulted away.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxCohortLimit < 1:
		return fmt.Errorf("%w: max_cohort_limit must be positive", ErrInvalidConfig)
	case c.RateLimitRPS < 0:
		return fmt.Errorf("%w: rate_limit_rps must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Catalog(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Catalog builds the subject catalog: the built-in one unless subjects are
// configured.
func (c *Config) Catalog() (*credits.Catalog, error) {
	if len(c.Subjects) == 0 {
		if c.TotalCreditsRequired == credits.TotalCreditsRequired {
			return credits.DefaultCatalog(), nil
		}
		return credits.NewCatalog(credits.DefaultDefinitions(), c.TotalCreditsRequired)
	}
	defs := make([]credits.Definition, len(c.Subjects))
	for i, s := range c.Subjects {
		defs[i] = credits.Definition{
			Key:             credits.SubjectKey(s.Key),
			DisplayName:     s.DisplayName,
			CreditsRequired: s.CreditsRequired,
			XPPerCredit:     s.XPPerCredit,
		}
	}
	return credits.NewCatalog(defs, c.TotalCreditsRequired)
}
