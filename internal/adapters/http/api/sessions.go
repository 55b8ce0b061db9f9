package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Bounds for the session listing endpoint.
const (
	defaultListLimit    = 100
	defaultMaxListLimit = 1000
)

// SessionDependencies captures what the session endpoints need from the
// engine.
type SessionDependencies interface {
	CreateSession(ctx context.Context, sessionID, preset string) (Snapshot, error)
	GetSession(ctx context.Context, sessionID string) (Snapshot, error)
	DeleteSession(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context, limit int) ([]SessionInfo, error)
}

// SessionsHandler handles session lifecycle requests.
type SessionsHandler struct {
	deps     SessionDependencies
	maxLimit int
}

// NewSessionsHandler creates a new sessions handler. maxLimit caps the
// limit accepted by the listing endpoint.
func NewSessionsHandler(deps SessionDependencies, maxLimit int) *SessionsHandler {
	if maxLimit < 1 {
		maxLimit = defaultMaxListLimit
	}
	return &SessionsHandler{deps: deps, maxLimit: maxLimit}
}

// createSessionRequest is the JSON shape accepted by POST /sessions.
type createSessionRequest struct {
	SessionID string `json:"sessionId"`
	Preset    string `json:"preset"`
}

// HandleCreateSession handles POST /sessions requests. An empty body or an
// empty sessionId asks the engine to mint one; a preset name starts the
// session from that catalog entry instead of the balanced default.
func (h *SessionsHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind("decode request", ErrBadRequest, err))
			return
		}
	}

	snap, err := h.deps.CreateSession(r.Context(), strings.TrimSpace(req.SessionID), strings.TrimSpace(req.Preset))
	if err != nil {
		writeEngineError(w, "create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// HandleListSessions handles GET /sessions requests. The limit query
// parameter defaults to the 100 most recently updated sessions.
func (h *SessionsHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind("parse limit", ErrBadRequest, err))
			return
		}
		limit = n
	}
	if limit > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(fmt.Sprintf("limit above maximum %d", h.maxLimit), ErrBadRequest))
		return
	}

	infos, err := h.deps.ListSessions(r.Context(), limit)
	if err != nil {
		writeEngineError(w, "list sessions", err)
		return
	}
	if infos == nil {
		infos = []SessionInfo{}
	}
	writeJSON(w, http.StatusOK, infos)
}

// HandleGetSession handles GET /sessions/{id} requests.
func (h *SessionsHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("missing session id", ErrBadRequest))
		return
	}

	snap, err := h.deps.GetSession(r.Context(), id)
	if err != nil {
		writeEngineError(w, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleDeleteSession handles DELETE /sessions/{id} requests.
func (h *SessionsHandler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("missing session id", ErrBadRequest))
		return
	}

	if err := h.deps.DeleteSession(r.Context(), id); err != nil {
		writeEngineError(w, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
