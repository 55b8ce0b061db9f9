package weights

import "fmt"

// SubComponent identifies one of the three compliance sub-components.
type SubComponent string

// Compliance sub-components.
const (
	Completion SubComponent = "completion"
	Intensity  SubComponent = "intensity"
	Duration   SubComponent = "duration"
)

// SubComponents returns the sub-component keys in canonical order.
func SubComponents() []SubComponent {
	return []SubComponent{Completion, Intensity, Duration}
}

// Sub is the three-way weight split inside the compliance component. It is
// structurally a sibling of TopLevel but semantically distinct; the two are
// never normalized together.
type Sub struct {
	Completion float64 `json:"completion" toml:"completion"`
	Intensity  float64 `json:"intensity"  toml:"intensity"`
	Duration   float64 `json:"duration"   toml:"duration"`
}

// DefaultSub returns the equal split every session starts from.
func DefaultSub() Sub {
	third := 1.0 / 3.0
	return Sub{Completion: third, Intensity: third, Duration: third}
}

// Map converts the split to the generic vector shape.
func (s Sub) Map() Vector {
	return Vector{
		string(Completion): s.Completion,
		string(Intensity):  s.Intensity,
		string(Duration):   s.Duration,
	}
}

// SubFromMap rebuilds a split from a vector. Unknown keys are dropped,
// missing keys read as zero.
func SubFromMap(v Vector) Sub {
	return Sub{
		Completion: v[string(Completion)],
		Intensity:  v[string(Intensity)],
		Duration:   v[string(Duration)],
	}
}

// Get returns the weight of a single sub-component.
func (s Sub) Get(c SubComponent) (float64, error) {
	switch c {
	case Completion:
		return s.Completion, nil
	case Intensity:
		return s.Intensity, nil
	case Duration:
		return s.Duration, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSubComponent, c)
	}
}

// Sum adds up the three weights.
func (s Sub) Sum() float64 {
	return s.Completion + s.Intensity + s.Duration
}

// Normalize rescales the split so it sums to one. Zero-sum splits come
// back unchanged.
func (s Sub) Normalize() Sub {
	return SubFromMap(Normalize(s.Map()))
}

// SetPercent applies a slider value on the 0-100 UI scale, converts it to
// a fraction and renormalizes the whole set. NaN and infinite inputs are
// ignored: the receiver comes back unchanged.
func (s Sub) SetPercent(c SubComponent, pct float64) (Sub, error) {
	if _, err := s.Get(c); err != nil {
		return s, err
	}
	if ignorable(pct) {
		return s, nil
	}

	pct = clamp(pct, 0, maxPercent)

	return SubFromMap(SetAndNormalize(s.Map(), string(c), pct/percentScale)), nil
}

// EqualWithin reports whether two splits agree sub-component by
// sub-component within eps.
func (s Sub) EqualWithin(o Sub, eps float64) bool {
	return within(s.Completion, o.Completion, eps) &&
		within(s.Intensity, o.Intensity, eps) &&
		within(s.Duration, o.Duration, eps)
}
