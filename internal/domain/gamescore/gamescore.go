// Package gamescore holds the normalization parameters applied to raw game
// scores before they enter the performance equation. Only the parameters
// live here; the dashboard applies the formula to incoming scores itself.
package gamescore

import (
	"fmt"
	"math"
)

// Algorithm names a normalization curve.
type Algorithm string

// AlgorithmLinear maps a raw score to [0, 1] linearly between the
// configured bounds. It is the only curve currently supported.
const AlgorithmLinear Algorithm = "linear"

// Default score bounds.
const (
	DefaultMinScore = 0.0
	DefaultMaxScore = 100.0
)

// Algorithms returns the supported normalization curves.
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmLinear}
}

// Config carries the normalization parameters for one session.
type Config struct {
	Algorithm Algorithm `json:"algorithm"`
	MinScore  float64   `json:"minScore"`
	MaxScore  float64   `json:"maxScore"`
}

// Default returns the linear curve over [0, 100].
func Default() Config {
	return Config{Algorithm: AlgorithmLinear, MinScore: DefaultMinScore, MaxScore: DefaultMaxScore}
}

// SetAlgorithm switches the normalization curve. Unknown names are rejected.
func (c Config) SetAlgorithm(name string) (Config, error) {
	for _, a := range Algorithms() {
		if Algorithm(name) == a {
			c.Algorithm = a
			return c, nil
		}
	}
	return c, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// SetMinScore moves the lower score bound. Writes that would not stay
// strictly below the current maximum are ignored, as are NaN and infinities.
func (c Config) SetMinScore(v float64) Config {
	if ignorable(v) || v >= c.MaxScore {
		return c
	}
	c.MinScore = v
	return c
}

// SetMaxScore moves the upper score bound. Writes that would not stay
// strictly above the current minimum are ignored, as are NaN and infinities.
func (c Config) SetMaxScore(v float64) Config {
	if ignorable(v) || v <= c.MinScore {
		return c
	}
	c.MaxScore = v
	return c
}

// SetBounds replaces both bounds at once, so a new interval that does not
// overlap the old one can still be applied. The pair is ignored unless
// min < max.
func (c Config) SetBounds(minScore, maxScore float64) Config {
	if ignorable(minScore) || ignorable(maxScore) || minScore >= maxScore {
		return c
	}
	c.MinScore = minScore
	c.MaxScore = maxScore
	return c
}

func ignorable(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
