package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tonuslab/tonus/internal/domain/thresholds"
	"github.com/tonuslab/tonus/internal/domain/types"
)

// ThresholdDependencies captures what the threshold endpoints need from
// the engine.
type ThresholdDependencies interface {
	GetSession(ctx context.Context, sessionID string) (Snapshot, error)
	UpdateThreshold(ctx context.Context, sessionID, channel string, upd types.ThresholdUpdate, updateID string) (Snapshot, error)
	GetThreshold(ctx context.Context, sessionID, channel string) (thresholds.Threshold, error)
}

// ThresholdsHandler handles per-channel EMG threshold requests.
type ThresholdsHandler struct {
	deps ThresholdDependencies
}

// NewThresholdsHandler creates a new thresholds handler.
func NewThresholdsHandler(deps ThresholdDependencies) *ThresholdsHandler {
	return &ThresholdsHandler{deps: deps}
}

// thresholdUpdateRequest is the JSON shape accepted by
// POST /sessions/{id}/thresholds. Absent fields keep their current value.
type thresholdUpdateRequest struct {
	Channel string `json:"channel"`
	types.ThresholdUpdate
	UpdateID string `json:"updateId"`
}

func (req thresholdUpdateRequest) validate() error {
	switch {
	case strings.TrimSpace(req.Channel) == "":
		return fmt.Errorf("missing channel")
	case req.MVCPercent == nil && req.DurationSeconds == nil:
		return fmt.Errorf("missing mvcThresholdPercentage or durationThresholdSeconds")
	}
	return nil
}

// thresholdsResponse is the JSON shape returned by
// GET /sessions/{id}/thresholds.
type thresholdsResponse struct {
	SessionID  string                  `json:"sessionId"`
	Revision   int64                   `json:"revision"`
	Thresholds types.ThresholdSnapshot `json:"thresholds"`
}

// channelThresholdResponse is the JSON shape returned by
// GET /sessions/{id}/thresholds/{channel}. Threshold is the effective
// value, falling back to the session default for untouched channels.
type channelThresholdResponse struct {
	SessionID string               `json:"sessionId"`
	Channel   string               `json:"channel"`
	Threshold thresholds.Threshold `json:"threshold"`
}

// HandleGetThresholds handles GET /sessions/{id}/thresholds requests.
func (h *ThresholdsHandler) HandleGetThresholds(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("missing session id", ErrBadRequest))
		return
	}

	snap, err := h.deps.GetSession(r.Context(), id)
	if err != nil {
		writeEngineError(w, "get thresholds", err)
		return
	}
	writeJSON(w, http.StatusOK, thresholdsResponse{
		SessionID:  snap.SessionID,
		Revision:   snap.Revision,
		Thresholds: snap.Thresholds,
	})
}

// HandleUpdateThreshold handles POST /sessions/{id}/thresholds requests.
// Values outside the clinical range are clamped, not rejected.
func (h *ThresholdsHandler) HandleUpdateThreshold(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("missing session id", ErrBadRequest))
		return
	}

	var req thresholdUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("decode request", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("validate request", ErrBadRequest, err))
		return
	}

	snap, err := h.deps.UpdateThreshold(r.Context(), id, req.Channel, req.ThresholdUpdate, req.UpdateID)
	if err != nil {
		writeEngineError(w, "update threshold", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleGetChannel handles GET /sessions/{id}/thresholds/{channel}
// requests.
func (h *ThresholdsHandler) HandleGetChannel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	channel := r.PathValue("channel")
	if id == "" || channel == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("missing session id or channel", ErrBadRequest))
		return
	}

	th, err := h.deps.GetThreshold(r.Context(), id, channel)
	if err != nil {
		writeEngineError(w, "get threshold", err)
		return
	}
	writeJSON(w, http.StatusOK, channelThresholdResponse{
		SessionID: id,
		Channel:   channel,
		Threshold: th,
	})
}
