package presets

import "errors"

// Sentinel errors for preset operations.
var (
	// ErrUnknownPreset is returned when a preset name is not in the catalog.
	ErrUnknownPreset = errors.New("unknown preset")

	// ErrUnknownFocus is returned when a compliance quick-preset name is
	// not recognized.
	ErrUnknownFocus = errors.New("unknown sub-weight focus")

	// ErrLoadCatalog is returned when a catalog file cannot be read or
	// contains an invalid entry.
	ErrLoadCatalog = errors.New("failed to load preset catalog")
)
