// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration for the rating pipeline.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// ResultsDir is the root directory scanned for tournament result files.
	ResultsDir string `koanf:"results_dir"`

	// OutputDir receives the exported state-grouped JSON files.
	OutputDir string `koanf:"output_dir"`

	// MetricsAddr, when non-empty, serves Prometheus metrics on this address.
	MetricsAddr string `koanf:"metrics_addr"`

	// WorkerCount sets the number of parser workers.
	WorkerCount int `koanf:"worker_count"`

	// ParseTimeoutMS bounds a single file parse before it is reported as a timeout.
	ParseTimeoutMS int `koanf:"parse_timeout_ms"`

	// DefaultRating is the starting Elo for a school with no prior history.
	DefaultRating float64 `koanf:"default_rating"`

	// KStandard and KProvisional are the per-comparison rating swing caps.
	KStandard    float64 `koanf:"k_standard"`
	KProvisional float64 `koanf:"k_provisional"`

	// ProvisionalThreshold is the match count below which a school uses KProvisional.
	ProvisionalThreshold int `koanf:"provisional_threshold"`

	// RatingFloor is the minimum rating a school can fall to.
	RatingFloor float64 `koanf:"rating_floor"`

	// StateMultiplier and NationalMultiplier scale K for higher-stakes tournaments.
	StateMultiplier    float64 `koanf:"state_multiplier"`
	NationalMultiplier float64 `koanf:"national_multiplier"`

	// DefaultSeason is returned when the aggregate holds no seasons at all.
	DefaultSeason string `koanf:"default_season"`

	// SeasonsToInclude limits ingestion to the N most recent seasons; 0 means all.
	SeasonsToInclude int `koanf:"seasons_to_include"`

	// ExcludedEvents lists event names skipped by school comparisons (trial events).
	ExcludedEvents []string `koanf:"excluded_events"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		ResultsDir:           "results",
		OutputDir:            "public",
		MetricsAddr:          "",
		WorkerCount:          runtime.NumCPU(),
		ParseTimeoutMS:       10_000,
		DefaultRating:        1500,
		KStandard:            16,
		KProvisional:         32,
		ProvisionalThreshold: 10,
		RatingFloor:          100,
		StateMultiplier:      4.0,
		NationalMultiplier:   7.0,
		DefaultSeason:        "2024",
		SeasonsToInclude:     5,
		ExcludedEvents:       nil,
	}
}
