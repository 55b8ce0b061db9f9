// Package session holds the live scoring configuration of one rehabilitation
// session and the pure mutations the dashboard performs on it. A Config is a
// value; every mutation returns a new one and never touches the receiver.
package session

import (
	"time"

	"github.com/tonuslab/tonus/internal/domain/bfr"
	"github.com/tonuslab/tonus/internal/domain/gamescore"
	"github.com/tonuslab/tonus/internal/domain/presets"
	"github.com/tonuslab/tonus/internal/domain/thresholds"
	"github.com/tonuslab/tonus/internal/domain/types"
	"github.com/tonuslab/tonus/internal/domain/weights"
)

// Config is one session's complete scoring configuration.
type Config struct {
	Weights      weights.TopLevel
	SubWeights   weights.Sub
	Thresholds   thresholds.Registry
	BFR          bfr.Parameters
	Game         gamescore.Config
	ActivePreset string
}

// Option adjusts the starting state handed to new sessions.
type Option func(*Config)

// WithThresholdDefault overrides the registry-wide threshold fallback.
func WithThresholdDefault(t thresholds.Threshold) Option {
	return func(c *Config) {
		c.Thresholds = thresholds.NewRegistry(thresholds.WithDefault(t))
	}
}

// WithBFRRange overrides the initial therapeutic range. Invalid pairs are
// ignored and the standard range stays.
func WithBFRRange(minPct, maxPct float64) Option {
	return func(c *Config) {
		c.BFR = c.BFR.SetRange(minPct, maxPct)
	}
}

// WithGameBounds overrides the initial game score bounds. Invalid pairs are
// ignored and the standard bounds stay.
func WithGameBounds(minScore, maxScore float64) Option {
	return func(c *Config) {
		c.Game = c.Game.SetBounds(minScore, maxScore)
	}
}

// Defaults returns the configuration every new session starts from: the
// default preset's weights, equal compliance sub-weights, an empty threshold
// registry, and untouched BFR and game score parameters.
func Defaults(opts ...Option) Config {
	c := Config{
		Weights:      weights.DefaultTopLevel(),
		SubWeights:   weights.DefaultSub(),
		Thresholds:   thresholds.NewRegistry(),
		BFR:          bfr.Default(),
		Game:         gamescore.Default(),
		ActivePreset: presets.Default,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Snapshot freezes the configuration into its wire and storage form.
func (c Config) Snapshot(sessionID string, revision int64, at time.Time) types.Snapshot {
	return types.Snapshot{
		SessionID:    sessionID,
		Revision:     revision,
		UpdatedAt:    at,
		ActivePreset: c.ActivePreset,
		Weights:      c.Weights,
		SubWeights:   c.SubWeights,
		Thresholds: types.ThresholdSnapshot{
			Default:  c.Thresholds.Default(),
			Channels: c.Thresholds.Snapshot(),
		},
		BFR:  c.BFR,
		Game: c.Game,
	}
}

// FromSnapshot rebuilds a configuration from its persisted form. Weights are
// renormalized and the BFR verdict recomputed, so a snapshot written by an
// older build still loads into a consistent state.
func FromSnapshot(snap types.Snapshot) Config {
	c := Config{
		Weights:      snap.Weights.Normalize(),
		SubWeights:   snap.SubWeights.Normalize(),
		Thresholds:   thresholds.FromSnapshot(snap.Thresholds.Default, snap.Thresholds.Channels),
		BFR:          snap.BFR.Derived(),
		Game:         snap.Game,
		ActivePreset: snap.ActivePreset,
	}
	if c.ActivePreset == "" {
		c.ActivePreset = presets.Custom
	}
	if c.Game.Algorithm == "" {
		c.Game = gamescore.Default()
	}
	return c
}
