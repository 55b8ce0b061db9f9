// Package weights implements the normalized weight vectors that drive the
// performance score split: a generic renormalization primitive plus the two
// concrete vector shapes built on it.
package weights

import "math"

// UI scale constants. Sliders deliver percentages; the engine stores fractions.
const (
	percentScale        = 100.0
	maxPercent          = 100.0
	maxGameScorePercent = 50.0
)

// SumTolerance is the slack allowed when checking the sum-to-one invariant.
const SumTolerance = 1e-6

// Vector is a key to non-negative fraction mapping, the shape the
// renormalization primitive operates on.
type Vector map[string]float64

// Normalize returns a copy of v rescaled so its values sum to one, keeping
// the relative ratio of every entry. A zero-sum vector comes back with its
// values unchanged: there is no ratio to preserve, and the sum-to-one
// invariant stays violated until the next non-degenerate write.
func Normalize(v Vector) Vector {
	var total float64
	for _, val := range v {
		total += val
	}

	out := make(Vector, len(v))
	if total == 0 {
		for k, val := range v {
			out[k] = val
		}
		return out
	}
	for k, val := range v {
		out[k] = val / total
	}
	return out
}

// SetAndNormalize overwrites v[key] with raw and renormalizes the ENTIRE
// vector. Every entry is divided by the same new total, so the ratio between
// any two keys other than the changed one survives the write. This is a
// whole-vector rescale, not a redistribution of the remainder over the
// unchanged keys.
func SetAndNormalize(v Vector, key string, raw float64) Vector {
	out := make(Vector, len(v)+1)
	for k, val := range v {
		out[k] = val
	}
	out[key] = raw
	return Normalize(out)
}

// Sum adds up the vector's values.
func Sum(v Vector) float64 {
	var total float64
	for _, val := range v {
		total += val
	}
	return total
}

// clamp pulls v to the nearest bound of [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// ignorable reports whether a numeric input should be dropped under the
// ignore-and-retain policy.
func ignorable(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
