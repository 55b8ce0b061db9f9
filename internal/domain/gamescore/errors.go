package gamescore

import "errors"

// ErrUnknownAlgorithm is returned when a normalization curve name is not in
// the supported set.
var ErrUnknownAlgorithm = errors.New("unknown game score algorithm")
