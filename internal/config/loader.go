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

// EnvConfigPath names the environment variable holding an optional YAML
// config file path.
const EnvConfigPath = "TONUS_CONFIG"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TONUS_CONFIG is set
//  3. env (prefix TONUS_)
func Load(_ context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: TONUS_ADDR, TONUS_SAVE_QUEUE_SIZE, ...
	// Map env keys like TONUS_SAVE_QUEUE_SIZE -> save_queue_size (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("TONUS_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "tonus_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the engine cannot run with. Clinical
// bounds mirror the clamps applied by the domain packages so a config that
// loads cleanly also seeds sessions cleanly.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.SaveQueueSize < 1:
		return fmt.Errorf("%w: save_queue_size must be positive", ErrInvalidConfig)
	case c.SaveWorkerCount < 1:
		return fmt.Errorf("%w: save_worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize < 1:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.MaxSessions < 1:
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	case c.MaxListLimit < 1:
		return fmt.Errorf("%w: max_list_limit must be positive", ErrInvalidConfig)
	case c.DefaultMVCThresholdPct < 0 || c.DefaultMVCThresholdPct > 100:
		return fmt.Errorf("%w: default_mvc_threshold_pct must be within 0..100", ErrInvalidConfig)
	case c.DefaultDurationThresholdSec < 0.5 || c.DefaultDurationThresholdSec > 10:
		return fmt.Errorf("%w: default_duration_threshold_sec must be within 0.5..10", ErrInvalidConfig)
	case c.BFRRangeMin < 0:
		return fmt.Errorf("%w: bfr_range_min must not be negative", ErrInvalidConfig)
	case c.BFRRangeMax <= c.BFRRangeMin:
		return fmt.Errorf("%w: bfr_range_max must exceed bfr_range_min", ErrInvalidConfig)
	case c.GameMaxScore <= c.GameMinScore:
		return fmt.Errorf("%w: game_max_score must exceed game_min_score", ErrInvalidConfig)
	}
	return nil
}
