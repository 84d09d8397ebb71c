package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if ELOGRAPH_CONFIG is set
//  3. env (prefix ELOGRAPH_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("ELOGRAPH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: ELOGRAPH_RESULTS_DIR, ELOGRAPH_WORKER_COUNT, ...
	// Map env keys like ELOGRAPH_WORKER_COUNT -> worker_count (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("ELOGRAPH_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "elograph_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the pipeline cannot run with.
func (c *Config) validate() error {
	if c.ResultsDir == "" {
		return fmt.Errorf("%w: results_dir must not be empty", ErrInvalidConfig)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.ParseTimeoutMS <= 0 {
		return fmt.Errorf("%w: parse_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.KStandard <= 0 || c.KProvisional <= 0 {
		return fmt.Errorf("%w: k factors must be positive", ErrInvalidConfig)
	}
	if c.ProvisionalThreshold < 0 {
		return fmt.Errorf("%w: provisional_threshold must not be negative", ErrInvalidConfig)
	}
	if c.RatingFloor < 0 || c.RatingFloor > c.DefaultRating {
		return fmt.Errorf("%w: rating_floor must be between 0 and default_rating", ErrInvalidConfig)
	}
	if c.StateMultiplier < 1 || c.NationalMultiplier < 1 {
		return fmt.Errorf("%w: importance multipliers must be at least 1", ErrInvalidConfig)
	}
	return nil
}
