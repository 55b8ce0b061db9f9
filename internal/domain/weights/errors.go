package weights

import "errors"

// Sentinel errors for weight vector operations.
var (
	// ErrUnknownComponent is returned when a top-level component is not one
	// of the four known keys.
	ErrUnknownComponent = errors.New("unknown weight component")

	// ErrUnknownSubComponent is returned when a compliance sub-component is
	// not one of the three known keys.
	ErrUnknownSubComponent = errors.New("unknown compliance sub-component")
)
