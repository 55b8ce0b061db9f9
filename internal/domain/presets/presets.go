// Package presets holds the read-only catalog of named top-level weight
// splits and the quick-presets for the compliance sub-weights.
package presets

import (
	"fmt"

	"github.com/tonuslab/tonus/internal/domain/weights"
)

// Custom is the sentinel preset name meaning the live vector no longer
// matches any catalog entry. It is never a catalog entry itself; a session
// enters it whenever a weight is set directly.
const Custom = "custom"

// Builtin catalog entry names.
const (
	Default              = "default"
	QualityFocused       = "quality_focused"
	ExperimentalWithGame = "experimental_with_game"
)

// Preset is an immutable catalog entry: a named weight split that already
// satisfies the sum-to-one invariant.
type Preset struct {
	Name        string           `json:"name" toml:"name"`
	Label       string           `json:"label" toml:"label"`
	Description string           `json:"description" toml:"description"`
	Weights     weights.TopLevel `json:"weights" toml:"weights"`
}

// Library is an ordered, read-only preset catalog.
type Library struct {
	order  []string
	byName map[string]Preset
}

// Builtin returns the catalog of presets that ship with the engine.
func Builtin() *Library {
	l := &Library{byName: make(map[string]Preset)}
	l.put(Preset{
		Name:        Default,
		Label:       "Default",
		Description: "Balanced split across all four components",
		Weights:     weights.DefaultTopLevel(),
	})
	l.put(Preset{
		Name:        QualityFocused,
		Label:       "Quality focused",
		Description: "Compliance-weighted split for movement quality work",
		Weights:     weights.TopLevel{Compliance: 0.6, Symmetry: 0.25, Effort: 0.15, GameScore: 0},
	})
	l.put(Preset{
		Name:        ExperimentalWithGame,
		Label:       "Experimental with game",
		Description: "Split with a substantial game score share for gamified sessions",
		Weights:     weights.TopLevel{Compliance: 0.35, Symmetry: 0.2, Effort: 0.15, GameScore: 0.3},
	})
	return l
}

// put inserts or replaces an entry. Entries are stored normalized.
func (l *Library) put(p Preset) {
	p.Weights = p.Weights.Normalize()
	if _, exists := l.byName[p.Name]; !exists {
		l.order = append(l.order, p.Name)
	}
	l.byName[p.Name] = p
}

// Get looks up a catalog entry by name.
func (l *Library) Get(name string) (Preset, bool) {
	p, ok := l.byName[name]
	return p, ok
}

// Names returns the catalog entry names in catalog order.
func (l *Library) Names() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// All returns the catalog entries in catalog order.
func (l *Library) All() []Preset {
	out := make([]Preset, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.byName[name])
	}
	return out
}

// Len returns the number of catalog entries.
func (l *Library) Len() int {
	return len(l.order)
}

// Match returns the name of the catalog entry whose weights equal w within
// the sum tolerance, or Custom when no entry matches.
func (l *Library) Match(w weights.TopLevel) string {
	for _, name := range l.order {
		if l.byName[name].Weights.EqualWithin(w, weights.SumTolerance) {
			return name
		}
	}
	return Custom
}

// validate rejects entries that cannot live in a catalog.
func validate(p Preset) error {
	if p.Name == "" {
		return fmt.Errorf("%w: preset with empty name", ErrLoadCatalog)
	}
	if p.Name == Custom {
		return fmt.Errorf("%w: %q is a reserved name", ErrLoadCatalog, Custom)
	}
	if p.Weights.Sum() <= 0 {
		return fmt.Errorf("%w: preset %q has a zero weight sum", ErrLoadCatalog, p.Name)
	}
	return nil
}
