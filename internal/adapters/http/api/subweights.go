package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tonuslab/tonus/internal/domain/weights"
)

// SubWeightDependencies captures what the compliance sub-weight endpoints
// need from the engine.
type SubWeightDependencies interface {
	GetSession(ctx context.Context, sessionID string) (Snapshot, error)
	SetSubWeight(ctx context.Context, sessionID, component string, value float64, updateID string) (Snapshot, error)
	ApplySubFocus(ctx context.Context, sessionID, focus, updateID string) (Snapshot, error)
}

// SubWeightsHandler handles compliance sub-weight requests.
type SubWeightsHandler struct {
	deps SubWeightDependencies
}

// NewSubWeightsHandler creates a new sub-weights handler.
func NewSubWeightsHandler(deps SubWeightDependencies) *SubWeightsHandler {
	return &SubWeightsHandler{deps: deps}
}

// applyFocusRequest is the JSON shape accepted by
// POST /sessions/{id}/compliance-weights/preset.
type applyFocusRequest struct {
	Focus    string `json:"focus"`
	UpdateID string `json:"updateId"`
}

func (req applyFocusRequest) validate() error {
	if strings.TrimSpace(req.Focus) == "" {
		return fmt.Errorf("missing focus")
	}
	return nil
}

// subWeightsResponse is the JSON shape returned by
// GET /sessions/{id}/compliance-weights.
type subWeightsResponse struct {
	SessionID  string      `json:"sessionId"`
	Revision   int64       `json:"revision"`
	SubWeights weights.Sub `json:"complianceSubWeights"`
}

// HandleGetSubWeights handles GET /sessions/{id}/compliance-weights
// requests.
func (h *SubWeightsHandler) HandleGetSubWeights(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("missing session id", ErrBadRequest))
		return
	}

	snap, err := h.deps.GetSession(r.Context(), id)
	if err != nil {
		writeEngineError(w, "get compliance weights", err)
		return
	}
	writeJSON(w, http.StatusOK, subWeightsResponse{
		SessionID:  snap.SessionID,
		Revision:   snap.Revision,
		SubWeights: snap.SubWeights,
	})
}

// HandleSetSubWeight handles POST /sessions/{id}/compliance-weights
// requests. Only the sub-vector is rescaled; the top-level weights and the
// active preset stay put.
func (h *SubWeightsHandler) HandleSetSubWeight(w http.ResponseWriter, r *http.Request) {
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

	snap, err := h.deps.SetSubWeight(r.Context(), id, req.Component, *req.Value, req.UpdateID)
	if err != nil {
		writeEngineError(w, "set compliance weight", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleApplyFocus handles POST /sessions/{id}/compliance-weights/preset
// requests.
func (h *SubWeightsHandler) HandleApplyFocus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("missing session id", ErrBadRequest))
		return
	}

	var req applyFocusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("decode request", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("validate request", ErrBadRequest, err))
		return
	}

	snap, err := h.deps.ApplySubFocus(r.Context(), id, req.Focus, req.UpdateID)
	if err != nil {
		writeEngineError(w, "apply focus", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
