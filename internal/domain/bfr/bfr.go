// Package bfr models blood flow restriction cuff parameters and derives the
// compliance verdict from them. The derived fields are never written
// directly; every input write recomputes them.
package bfr

import "math"

// Default therapeutic range as a percentage of arterial occlusion pressure.
const (
	DefaultRangeMin = 40.0
	DefaultRangeMax = 80.0
)

// Failure reasons reported when the applied pressure leaves the
// therapeutic range. These strings are part of the JSON surface.
const (
	ReasonTooHigh = "too high"
	ReasonTooLow  = "too low"
)

// Parameters is the full BFR state for one session: the measured and applied
// cuff pressures in mmHg, the therapeutic range as %AOP, the application
// time, and the verdict derived from them.
type Parameters struct {
	AOPMeasured        float64 `json:"aopMeasured"`
	AppliedPressure    float64 `json:"appliedPressure"`
	RangeMin           float64 `json:"therapeuticRangeMin"`
	RangeMax           float64 `json:"therapeuticRangeMax"`
	ApplicationMinutes float64 `json:"applicationTimeMinutes"`

	PercentAOP    float64 `json:"percentageAop"`
	Compliant     bool    `json:"isCompliant"`
	FailureReason string  `json:"failureReason,omitempty"`
}

// Default returns the initial BFR state: no pressures measured yet and the
// standard 40-80 %AOP range. With no applied pressure the state reads as
// non-compliant, too low.
func Default() Parameters {
	return Parameters{RangeMin: DefaultRangeMin, RangeMax: DefaultRangeMax}.Derived()
}

// Evaluate computes the percentage of AOP and the compliance verdict for one
// set of inputs. A non-positive AOP yields 0% rather than a division error.
// The reason is empty when compliant.
func Evaluate(aop, applied, rangeMin, rangeMax float64) (pct float64, compliant bool, reason string) {
	if aop > 0 {
		pct = applied / aop * 100.0
	}
	switch {
	case pct > rangeMax:
		return pct, false, ReasonTooHigh
	case pct < rangeMin:
		return pct, false, ReasonTooLow
	default:
		return pct, true, ""
	}
}

// Derived returns a copy with the derived fields recomputed from the inputs.
func (p Parameters) Derived() Parameters {
	p.PercentAOP, p.Compliant, p.FailureReason = Evaluate(p.AOPMeasured, p.AppliedPressure, p.RangeMin, p.RangeMax)
	return p
}

// SetAOPMeasured stores the measured arterial occlusion pressure. Negative,
// NaN and infinite values are ignored.
func (p Parameters) SetAOPMeasured(mmHg float64) Parameters {
	if ignorable(mmHg) || mmHg < 0 {
		return p
	}
	p.AOPMeasured = mmHg
	return p.Derived()
}

// SetAppliedPressure stores the cuff pressure currently applied. Negative,
// NaN and infinite values are ignored.
func (p Parameters) SetAppliedPressure(mmHg float64) Parameters {
	if ignorable(mmHg) || mmHg < 0 {
		return p
	}
	p.AppliedPressure = mmHg
	return p.Derived()
}

// SetRangeMin moves the lower edge of the therapeutic range. Writes that
// would not stay strictly below the current maximum are ignored.
func (p Parameters) SetRangeMin(pct float64) Parameters {
	if ignorable(pct) || pct >= p.RangeMax {
		return p
	}
	p.RangeMin = pct
	return p.Derived()
}

// SetRangeMax moves the upper edge of the therapeutic range. Writes that
// would not stay strictly above the current minimum are ignored.
func (p Parameters) SetRangeMax(pct float64) Parameters {
	if ignorable(pct) || pct <= p.RangeMin {
		return p
	}
	p.RangeMax = pct
	return p.Derived()
}

// SetRange replaces both edges at once, so a new range that does not overlap
// the old one can still be applied. The pair is ignored unless min < max.
func (p Parameters) SetRange(minPct, maxPct float64) Parameters {
	if ignorable(minPct) || ignorable(maxPct) || minPct >= maxPct {
		return p
	}
	p.RangeMin = minPct
	p.RangeMax = maxPct
	return p.Derived()
}

// SetApplicationMinutes stores how long the cuff has been applied. Negative,
// NaN and infinite values are ignored.
func (p Parameters) SetApplicationMinutes(minutes float64) Parameters {
	if ignorable(minutes) || minutes < 0 {
		return p
	}
	p.ApplicationMinutes = minutes
	return p.Derived()
}

func ignorable(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
