// Package config defines process configuration and its loading pipeline.
//
// Configuration is layered, lowest precedence first: built-in defaults, an
// optional YAML file named by the TONUS_CONFIG environment variable, then
// TONUS_-prefixed environment variables. Loaded values are validated before
// use and failures are wrapped in this package's sentinel errors.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9180".
	Addr string `koanf:"addr"`

	// DBPath locates the SQLite session archive on disk.
	DBPath string `koanf:"db_path"`

	// PresetsPath optionally names a TOML file with additional weight
	// presets merged into the built-in catalog at startup.
	PresetsPath string `koanf:"presets_path"`

	// SaveQueueSize bounds the in-memory persistence queue.
	SaveQueueSize int `koanf:"save_queue_size"`

	// SaveWorkerCount sets the number of persistence workers.
	SaveWorkerCount int `koanf:"save_worker_count"`

	// DedupeSize caps the replay cache of seen update IDs.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxSessions caps concurrently live sessions.
	MaxSessions int `koanf:"max_sessions"`

	// MaxListLimit caps GET /sessions?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// DefaultMVCThresholdPct seeds new channels with an activation
	// threshold, in percent of maximum voluntary contraction.
	DefaultMVCThresholdPct float64 `koanf:"default_mvc_threshold_pct"`

	// DefaultDurationThresholdSec seeds new channels with a hold-time
	// threshold, in seconds.
	DefaultDurationThresholdSec float64 `koanf:"default_duration_threshold_sec"`

	// BFRRangeMin and BFRRangeMax bound the therapeutic occlusion window,
	// in percent of arterial occlusion pressure.
	BFRRangeMin float64 `koanf:"bfr_range_min"`
	BFRRangeMax float64 `koanf:"bfr_range_max"`

	// GameMinScore and GameMaxScore bound normalized game scores.
	GameMinScore float64 `koanf:"game_min_score"`
	GameMaxScore float64 `koanf:"game_max_score"`
}

// New returns a Config populated with defaults. Callers that want file or
// environment overrides should use Load instead.
func New() *Config {
	return &Config{
		LogLevel:                    "info",
		Addr:                        ":9180",
		DBPath:                      "tonus.db",
		PresetsPath:                 "",
		SaveQueueSize:               10_000,
		SaveWorkerCount:             runtime.NumCPU() * 2,
		DedupeSize:                  100_000,
		MaxSessions:                 10_000,
		MaxListLimit:                1_000,
		DefaultMVCThresholdPct:      75,
		DefaultDurationThresholdSec: 2.0,
		BFRRangeMin:                 40,
		BFRRangeMax:                 80,
		GameMinScore:                0,
		GameMaxScore:                100,
	}
}
