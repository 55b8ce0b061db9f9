package session

import (
	"fmt"

	"github.com/tonuslab/tonus/internal/domain/presets"
	"github.com/tonuslab/tonus/internal/domain/types"
	"github.com/tonuslab/tonus/internal/domain/weights"
)

// SetWeight writes one top-level weight as a 0-100 percentage and rescales
// the whole vector around it. Any direct weight write moves the session to
// the custom sentinel, even when the stored value did not change.
func (c Config) SetWeight(component weights.Component, pct float64) (Config, error) {
	next, err := c.Weights.SetPercent(component, pct)
	if err != nil {
		return c, err
	}
	c.Weights = next
	c.ActivePreset = presets.Custom
	return c, nil
}

// ApplyPreset replaces the top-level weights with a catalog entry, copied
// verbatim and renormalized. The active preset becomes the entry's name.
func (c Config) ApplyPreset(lib *presets.Library, name string) (Config, error) {
	p, ok := lib.Get(name)
	if !ok {
		return c, fmt.Errorf("%w: %q", presets.ErrUnknownPreset, name)
	}
	c.Weights = p.Weights.Normalize()
	c.ActivePreset = p.Name
	return c, nil
}

// SetSubWeight writes one compliance sub-weight as a 0-100 percentage and
// rescales the sub-vector. Sub-weights carry no preset sentinel.
func (c Config) SetSubWeight(component weights.SubComponent, pct float64) (Config, error) {
	next, err := c.SubWeights.SetPercent(component, pct)
	if err != nil {
		return c, err
	}
	c.SubWeights = next
	return c, nil
}

// ApplySubFocus replaces the compliance sub-weights with a quick preset.
func (c Config) ApplySubFocus(focus presets.SubFocus) (Config, error) {
	sub, ok := presets.SubWeights(focus)
	if !ok {
		return c, fmt.Errorf("%w: %q", presets.ErrUnknownFocus, focus)
	}
	c.SubWeights = sub
	return c, nil
}

// SetMVCThreshold writes one channel's MVC threshold percentage.
func (c Config) SetMVCThreshold(channel string, pct float64) Config {
	c.Thresholds = c.Thresholds.SetMVC(channel, pct)
	return c
}

// SetDurationThreshold writes one channel's minimum contraction duration.
func (c Config) SetDurationThreshold(channel string, seconds float64) Config {
	c.Thresholds = c.Thresholds.SetDuration(channel, seconds)
	return c
}

// ApplyThresholdUpdate applies a partial threshold write to one channel.
func (c Config) ApplyThresholdUpdate(channel string, upd types.ThresholdUpdate) Config {
	if upd.MVCPercent != nil {
		c = c.SetMVCThreshold(channel, *upd.MVCPercent)
	}
	if upd.DurationSeconds != nil {
		c = c.SetDurationThreshold(channel, *upd.DurationSeconds)
	}
	return c
}

// ApplyBFRUpdate applies a partial BFR write. When both range edges arrive
// together they are applied as a pair, so a disjoint range can land in one
// request.
func (c Config) ApplyBFRUpdate(upd types.BFRUpdate) Config {
	b := c.BFR
	if upd.AOPMeasured != nil {
		b = b.SetAOPMeasured(*upd.AOPMeasured)
	}
	if upd.AppliedPressure != nil {
		b = b.SetAppliedPressure(*upd.AppliedPressure)
	}
	switch {
	case upd.RangeMin != nil && upd.RangeMax != nil:
		b = b.SetRange(*upd.RangeMin, *upd.RangeMax)
	case upd.RangeMin != nil:
		b = b.SetRangeMin(*upd.RangeMin)
	case upd.RangeMax != nil:
		b = b.SetRangeMax(*upd.RangeMax)
	}
	if upd.ApplicationMinutes != nil {
		b = b.SetApplicationMinutes(*upd.ApplicationMinutes)
	}
	c.BFR = b
	return c
}

// ApplyGameUpdate applies a partial game score normalization write. Bounds
// arriving as a pair are applied atomically; an unknown algorithm rejects
// the whole update.
func (c Config) ApplyGameUpdate(upd types.GameUpdate) (Config, error) {
	g := c.Game
	if upd.Algorithm != nil {
		var err error
		g, err = g.SetAlgorithm(*upd.Algorithm)
		if err != nil {
			return c, err
		}
	}
	switch {
	case upd.MinScore != nil && upd.MaxScore != nil:
		g = g.SetBounds(*upd.MinScore, *upd.MaxScore)
	case upd.MinScore != nil:
		g = g.SetMinScore(*upd.MinScore)
	case upd.MaxScore != nil:
		g = g.SetMaxScore(*upd.MaxScore)
	}
	c.Game = g
	return c, nil
}
