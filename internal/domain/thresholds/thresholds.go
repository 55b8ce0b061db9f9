// Package thresholds keeps the per-muscle-channel clinical thresholds with a
// registry-wide default for channels that were never configured.
package thresholds

import (
	"math"
	"sort"
)

// Clamp bounds and registry-wide defaults. Out-of-range writes are pulled to
// the nearest bound, never rejected.
const (
	MinMVCPercent      = 0.0
	MaxMVCPercent      = 100.0
	MinDurationSeconds = 0.5
	MaxDurationSeconds = 10.0

	DefaultMVCPercent      = 75.0
	DefaultDurationSeconds = 2.0
)

// Threshold is the pair of clinical limits attached to one muscle channel:
// the activation floor as a percentage of MVC and the minimum contraction
// duration in seconds.
type Threshold struct {
	MVCPercent      float64 `json:"mvcThresholdPercentage"`
	DurationSeconds float64 `json:"durationThresholdSeconds"`
}

// DefaultThreshold returns the registry-wide fallback.
func DefaultThreshold() Threshold {
	return Threshold{MVCPercent: DefaultMVCPercent, DurationSeconds: DefaultDurationSeconds}
}

// clamped pulls both fields into their bounds.
func (t Threshold) clamped() Threshold {
	t.MVCPercent = clamp(t.MVCPercent, MinMVCPercent, MaxMVCPercent)
	t.DurationSeconds = clamp(t.DurationSeconds, MinDurationSeconds, MaxDurationSeconds)
	return t
}

// Registry maps channel identifiers to thresholds. It has value semantics:
// every write returns a new Registry and the receiver is never mutated.
// Channels are independent; no cross-channel invariant exists.
type Registry struct {
	def      Threshold
	channels map[string]Threshold
}

// Option configures a new registry.
type Option func(*Registry)

// WithDefault overrides the registry-wide fallback threshold.
func WithDefault(t Threshold) Option {
	return func(r *Registry) {
		r.def = t.clamped()
	}
}

// NewRegistry builds an empty registry with the standard fallback.
func NewRegistry(opts ...Option) Registry {
	r := Registry{def: DefaultThreshold()}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// FromSnapshot rebuilds a registry from a persisted default and channel map.
func FromSnapshot(def Threshold, channels map[string]Threshold) Registry {
	r := Registry{def: def.clamped()}
	if len(channels) > 0 {
		r.channels = make(map[string]Threshold, len(channels))
		for ch, t := range channels {
			r.channels[ch] = t.clamped()
		}
	}
	return r
}

// Get returns the channel's stored threshold, or the registry default when
// the channel was never configured.
func (r Registry) Get(channel string) Threshold {
	if t, ok := r.channels[channel]; ok {
		return t
	}
	return r.def
}

// Default returns the registry-wide fallback.
func (r Registry) Default() Threshold {
	return r.def
}

// SetMVC stores a channel's MVC threshold percentage, clamped to
// [0, 100]. NaN and infinite inputs are ignored.
func (r Registry) SetMVC(channel string, pct float64) Registry {
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return r
	}
	t := r.Get(channel)
	t.MVCPercent = clamp(pct, MinMVCPercent, MaxMVCPercent)
	return r.with(channel, t)
}

// SetDuration stores a channel's minimum contraction duration in seconds,
// clamped to [0.5, 10]. NaN and infinite inputs are ignored.
func (r Registry) SetDuration(channel string, seconds float64) Registry {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return r
	}
	t := r.Get(channel)
	t.DurationSeconds = clamp(seconds, MinDurationSeconds, MaxDurationSeconds)
	return r.with(channel, t)
}

// with returns a copy of the registry carrying the updated channel entry.
func (r Registry) with(channel string, t Threshold) Registry {
	next := Registry{def: r.def, channels: make(map[string]Threshold, len(r.channels)+1)}
	for ch, existing := range r.channels {
		next.channels[ch] = existing
	}
	next.channels[channel] = t
	return next
}

// Channels returns the configured channel identifiers, sorted.
func (r Registry) Channels() []string {
	out := make([]string, 0, len(r.channels))
	for ch := range r.channels {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a copy of the configured channel map.
func (r Registry) Snapshot() map[string]Threshold {
	if len(r.channels) == 0 {
		return nil
	}
	out := make(map[string]Threshold, len(r.channels))
	for ch, t := range r.channels {
		out[ch] = t
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
