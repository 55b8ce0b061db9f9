package presets

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// catalogFile is the shape of an on-disk preset catalog.
type catalogFile struct {
	Presets []Preset `toml:"preset"`
}

// Load returns the builtin catalog with the entries of a TOML catalog file
// merged over it (same name replaces the builtin). An empty path returns the
// builtins alone.
//
// Catalog file shape:
//
//	[[preset]]
//	name = "clinic_conservative"
//	label = "Clinic conservative"
//	description = "Low game share for early-phase patients"
//	[preset.weights]
//	compliance = 0.55
//	symmetry = 0.30
//	effort = 0.15
//	game_score = 0.0
func Load(path string) (*Library, error) {
	lib := Builtin()
	if path == "" {
		return lib, nil
	}

	var file catalogFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadCatalog, path, err)
	}

	for _, p := range file.Presets {
		if err := validate(p); err != nil {
			return nil, err
		}
		lib.put(p)
	}
	return lib, nil
}
