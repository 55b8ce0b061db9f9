package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tonuslab/tonus/internal/domain/bfr"
	"github.com/tonuslab/tonus/internal/domain/types"
)

// BFRDependencies captures what the blood flow restriction endpoints need
// from the engine.
type BFRDependencies interface {
	GetSession(ctx context.Context, sessionID string) (Snapshot, error)
	UpdateBFR(ctx context.Context, sessionID string, upd types.BFRUpdate, updateID string) (Snapshot, error)
}

// BFRHandler handles blood flow restriction parameter requests.
type BFRHandler struct {
	deps BFRDependencies
}

// NewBFRHandler creates a new BFR handler.
func NewBFRHandler(deps BFRDependencies) *BFRHandler {
	return &BFRHandler{deps: deps}
}

// bfrUpdateRequest is the JSON shape accepted by POST /sessions/{id}/bfr.
// Absent fields keep their current value; the derived compliance fields are
// recomputed on every update.
type bfrUpdateRequest struct {
	types.BFRUpdate
	UpdateID string `json:"updateId"`
}

func (req bfrUpdateRequest) validate() error {
	if req.AOPMeasured == nil && req.AppliedPressure == nil && req.RangeMin == nil &&
		req.RangeMax == nil && req.ApplicationMinutes == nil {
		return fmt.Errorf("missing bfr fields")
	}
	return nil
}

// bfrResponse is the JSON shape returned by GET /sessions/{id}/bfr.
type bfrResponse struct {
	SessionID string         `json:"sessionId"`
	Revision  int64          `json:"revision"`
	BFR       bfr.Parameters `json:"bfr"`
}

// HandleGetBFR handles GET /sessions/{id}/bfr requests.
func (h *BFRHandler) HandleGetBFR(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("missing session id", ErrBadRequest))
		return
	}

	snap, err := h.deps.GetSession(r.Context(), id)
	if err != nil {
		writeEngineError(w, "get bfr", err)
		return
	}
	writeJSON(w, http.StatusOK, bfrResponse{
		SessionID: snap.SessionID,
		Revision:  snap.Revision,
		BFR:       snap.BFR,
	})
}

// HandleUpdateBFR handles POST /sessions/{id}/bfr requests.
func (h *BFRHandler) HandleUpdateBFR(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("missing session id", ErrBadRequest))
		return
	}

	var req bfrUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("decode request", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("validate request", ErrBadRequest, err))
		return
	}

	snap, err := h.deps.UpdateBFR(r.Context(), id, req.BFRUpdate, req.UpdateID)
	if err != nil {
		writeEngineError(w, "update bfr", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
