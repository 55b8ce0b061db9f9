package presets

import "github.com/tonuslab/tonus/internal/domain/weights"

// SubFocus names a quick-preset for the compliance sub-weights.
type SubFocus string

// Quick-presets for the compliance sub-weights. Each vector already sums to
// one, so applying it makes normalization a no-op.
const (
	CompletionFocus SubFocus = "completion_focus"
	IntensityFocus  SubFocus = "intensity_focus"
	DurationFocus   SubFocus = "duration_focus"
	EqualFocus      SubFocus = "equal"
)

// SubFocuses returns the quick-preset names in display order.
func SubFocuses() []SubFocus {
	return []SubFocus{CompletionFocus, IntensityFocus, DurationFocus, EqualFocus}
}

// SubWeights returns the literal sub-weight split of a quick-preset.
func SubWeights(f SubFocus) (weights.Sub, bool) {
	switch f {
	case CompletionFocus:
		return weights.Sub{Completion: 0.5, Intensity: 0.3, Duration: 0.2}, true
	case IntensityFocus:
		return weights.Sub{Completion: 0.2, Intensity: 0.5, Duration: 0.3}, true
	case DurationFocus:
		return weights.Sub{Completion: 0.25, Intensity: 0.25, Duration: 0.5}, true
	case EqualFocus:
		return weights.DefaultSub(), true
	default:
		return weights.Sub{}, false
	}
}
