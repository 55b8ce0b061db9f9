package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tonuslab/tonus/internal/domain/weights"
)

// WeightDependencies captures what the weight endpoints need from the
// engine.
type WeightDependencies interface {
	GetSession(ctx context.Context, sessionID string) (Snapshot, error)
	SetWeight(ctx context.Context, sessionID, component string, value float64, updateID string) (Snapshot, error)
}

// WeightsHandler handles top-level weight requests.
type WeightsHandler struct {
	deps WeightDependencies
}

// NewWeightsHandler creates a new weights handler.
func NewWeightsHandler(deps WeightDependencies) *WeightsHandler {
	return &WeightsHandler{deps: deps}
}

// setWeightRequest is the JSON shape accepted by the weight mutation
// endpoints. Value uses the 0-100 slider scale.
type setWeightRequest struct {
	Component string   `json:"component"`
	Value     *float64 `json:"value"`
	UpdateID  string   `json:"updateId"`
}

func (req setWeightRequest) validate() error {
	switch {
	case strings.TrimSpace(req.Component) == "":
		return fmt.Errorf("missing component")
	case req.Value == nil:
		return fmt.Errorf("missing value")
	}
	return nil
}

// weightsResponse is the JSON shape returned by GET /sessions/{id}/weights.
type weightsResponse struct {
	SessionID    string           `json:"sessionId"`
	Revision     int64            `json:"revision"`
	ActivePreset string           `json:"activePreset"`
	Weights      weights.TopLevel `json:"weights"`
}

// HandleGetWeights handles GET /sessions/{id}/weights requests.
func (h *WeightsHandler) HandleGetWeights(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("missing session id", ErrBadRequest))
		return
	}

	snap, err := h.deps.GetSession(r.Context(), id)
	if err != nil {
		writeEngineError(w, "get weights", err)
		return
	}
	writeJSON(w, http.StatusOK, weightsResponse{
		SessionID:    snap.SessionID,
		Revision:     snap.Revision,
		ActivePreset: snap.ActivePreset,
		Weights:      snap.Weights,
	})
}

// HandleSetWeight handles POST /sessions/{id}/weights requests. The whole
// vector is rescaled around the new value and the session drops to the
// custom preset.
func (h *WeightsHandler) HandleSetWeight(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("missing session id", ErrBadRequest))
		return
	}

	var req setWeightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("decode request", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("validate request", ErrBadRequest, err))
		return
	}

	snap, err := h.deps.SetWeight(r.Context(), id, req.Component, *req.Value, req.UpdateID)
	if err != nil {
		writeEngineError(w, "set weight", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
