package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tonuslab/tonus/internal/adapters/repository"
	service "github.com/tonuslab/tonus/internal/app"
	"github.com/tonuslab/tonus/internal/domain/gamescore"
	"github.com/tonuslab/tonus/internal/domain/presets"
	"github.com/tonuslab/tonus/internal/domain/weights"
)

// Sentinel kinds for API errors.
var (
	ErrServe      = errors.New("api serve failed")
	ErrBadRequest = errors.New("bad request")
)

// NewKind tags kind with the operation that raised it.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags kind and its cause with the operation that raised it.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// statusFor maps an engine error onto its HTTP status and error code.
// Unrecognized errors are reported as internal.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrSessionExists):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrTooManySessions):
		return http.StatusTooManyRequests, "session_limit"
	case errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, weights.ErrUnknownComponent),
		errors.Is(err, weights.ErrUnknownSubComponent),
		errors.Is(err, presets.ErrUnknownPreset),
		errors.Is(err, presets.ErrUnknownFocus),
		errors.Is(err, gamescore.ErrUnknownAlgorithm):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeEngineError translates an engine error into its HTTP reply.
func writeEngineError(w http.ResponseWriter, op string, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, NewKind(op, err))
}
