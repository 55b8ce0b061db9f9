package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tonuslab/tonus/internal/domain/gamescore"
	"github.com/tonuslab/tonus/internal/domain/types"
)

// GameDependencies captures what the game score normalization endpoints
// need from the engine.
type GameDependencies interface {
	GetSession(ctx context.Context, sessionID string) (Snapshot, error)
	UpdateGame(ctx context.Context, sessionID string, upd types.GameUpdate, updateID string) (Snapshot, error)
}

// GameHandler handles game score normalization requests.
type GameHandler struct {
	deps GameDependencies
}

// NewGameHandler creates a new game normalization handler.
func NewGameHandler(deps GameDependencies) *GameHandler {
	return &GameHandler{deps: deps}
}

// gameUpdateRequest is the JSON shape accepted by
// POST /sessions/{id}/game-normalization. Absent fields keep their current
// value.
type gameUpdateRequest struct {
	types.GameUpdate
	UpdateID string `json:"updateId"`
}

func (req gameUpdateRequest) validate() error {
	if req.Algorithm == nil && req.MinScore == nil && req.MaxScore == nil {
		return fmt.Errorf("missing normalization fields")
	}
	return nil
}

// gameResponse is the JSON shape returned by
// GET /sessions/{id}/game-normalization.
type gameResponse struct {
	SessionID string           `json:"sessionId"`
	Revision  int64            `json:"revision"`
	Game      gamescore.Config `json:"gameScoreNormalization"`
}

// HandleGetGame handles GET /sessions/{id}/game-normalization requests.
func (h *GameHandler) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("missing session id", ErrBadRequest))
		return
	}

	snap, err := h.deps.GetSession(r.Context(), id)
	if err != nil {
		writeEngineError(w, "get game normalization", err)
		return
	}
	writeJSON(w, http.StatusOK, gameResponse{
		SessionID: snap.SessionID,
		Revision:  snap.Revision,
		Game:      snap.Game,
	})
}

// HandleUpdateGame handles POST /sessions/{id}/game-normalization requests.
func (h *GameHandler) HandleUpdateGame(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("missing session id", ErrBadRequest))
		return
	}

	var req gameUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("decode request", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("validate request", ErrBadRequest, err))
		return
	}

	snap, err := h.deps.UpdateGame(r.Context(), id, req.GameUpdate, req.UpdateID)
	if err != nil {
		writeEngineError(w, "update game normalization", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
