package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tonuslab/tonus/internal/domain/presets"
)

// PresetDependencies captures what the preset endpoints need from the
// engine.
type PresetDependencies interface {
	Presets(ctx context.Context) []presets.Preset
	ApplyPreset(ctx context.Context, sessionID, name, updateID string) (Snapshot, error)
}

// PresetsHandler handles preset catalog and apply requests.
type PresetsHandler struct {
	deps PresetDependencies
}

// NewPresetsHandler creates a new presets handler.
func NewPresetsHandler(deps PresetDependencies) *PresetsHandler {
	return &PresetsHandler{deps: deps}
}

// applyPresetRequest is the JSON shape accepted by
// POST /sessions/{id}/weights/preset.
type applyPresetRequest struct {
	Preset   string `json:"preset"`
	UpdateID string `json:"updateId"`
}

func (req applyPresetRequest) validate() error {
	if strings.TrimSpace(req.Preset) == "" {
		return fmt.Errorf("missing preset")
	}
	return nil
}

// HandleListPresets handles GET /presets requests.
func (h *PresetsHandler) HandleListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Presets(r.Context()))
}

// HandleApplyPreset handles POST /sessions/{id}/weights/preset requests.
// The catalog weights are copied verbatim onto the session.
func (h *PresetsHandler) HandleApplyPreset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("missing session id", ErrBadRequest))
		return
	}

	var req applyPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("decode request", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("validate request", ErrBadRequest, err))
		return
	}

	snap, err := h.deps.ApplyPreset(r.Context(), id, req.Preset, req.UpdateID)
	if err != nil {
		writeEngineError(w, "apply preset", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
