package weights

import "fmt"

// Component identifies one of the four top-level scoring components.
// The set is closed; unknown components are rejected at the boundary.
type Component string

// Top-level scoring components.
const (
	Compliance Component = "compliance"
	Symmetry   Component = "symmetry"
	Effort     Component = "effort"
	GameScore  Component = "gameScore"
)

// Components returns the top-level component keys in canonical order.
func Components() []Component {
	return []Component{Compliance, Symmetry, Effort, GameScore}
}

// TopLevel is the four-way weight split over the scoring components.
// Values are fractions; after any non-degenerate write they sum to one.
type TopLevel struct {
	Compliance float64 `json:"compliance" toml:"compliance"`
	Symmetry   float64 `json:"symmetry"   toml:"symmetry"`
	Effort     float64 `json:"effort"     toml:"effort"`
	GameScore  float64 `json:"gameScore"  toml:"game_score"`
}

// DefaultTopLevel returns the balanced split every session starts from.
func DefaultTopLevel() TopLevel {
	return TopLevel{Compliance: 0.5, Symmetry: 0.25, Effort: 0.125, GameScore: 0.125}
}

// Map converts the split to the generic vector shape.
func (t TopLevel) Map() Vector {
	return Vector{
		string(Compliance): t.Compliance,
		string(Symmetry):   t.Symmetry,
		string(Effort):     t.Effort,
		string(GameScore):  t.GameScore,
	}
}

// TopLevelFromMap rebuilds a split from a vector. Unknown keys are dropped,
// missing keys read as zero.
func TopLevelFromMap(v Vector) TopLevel {
	return TopLevel{
		Compliance: v[string(Compliance)],
		Symmetry:   v[string(Symmetry)],
		Effort:     v[string(Effort)],
		GameScore:  v[string(GameScore)],
	}
}

// Get returns the weight of a single component.
func (t TopLevel) Get(c Component) (float64, error) {
	switch c {
	case Compliance:
		return t.Compliance, nil
	case Symmetry:
		return t.Symmetry, nil
	case Effort:
		return t.Effort, nil
	case GameScore:
		return t.GameScore, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownComponent, c)
	}
}

// Sum adds up the four weights.
func (t TopLevel) Sum() float64 {
	return t.Compliance + t.Symmetry + t.Effort + t.GameScore
}

// Normalize rescales the split so it sums to one. Zero-sum splits come
// back unchanged.
func (t TopLevel) Normalize() TopLevel {
	return TopLevelFromMap(Normalize(t.Map()))
}

// SetPercent applies a slider value on the 0-100 UI scale (0-50 for
// gameScore, which must never dominate the split), converts it to a
// fraction and renormalizes the whole set. NaN and infinite inputs are
// ignored: the receiver comes back unchanged.
func (t TopLevel) SetPercent(c Component, pct float64) (TopLevel, error) {
	if _, err := t.Get(c); err != nil {
		return t, err
	}
	if ignorable(pct) {
		return t, nil
	}

	limit := float64(maxPercent)
	if c == GameScore {
		limit = maxGameScorePercent
	}
	pct = clamp(pct, 0, limit)

	return TopLevelFromMap(SetAndNormalize(t.Map(), string(c), pct/percentScale)), nil
}

// EqualWithin reports whether two splits agree component by component
// within eps.
func (t TopLevel) EqualWithin(o TopLevel, eps float64) bool {
	return within(t.Compliance, o.Compliance, eps) &&
		within(t.Symmetry, o.Symmetry, eps) &&
		within(t.Effort, o.Effort, eps) &&
		within(t.GameScore, o.GameScore, eps)
}

func within(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}
