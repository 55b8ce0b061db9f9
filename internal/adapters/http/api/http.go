// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tonuslab/tonus/internal/domain/types"
)

// Dependencies bundles everything the HTTP layer needs from the scoring
// engine. Each handler declares the slice it uses; this is the union the
// server wires at startup.
type Dependencies interface {
	SessionDependencies
	WeightDependencies
	PresetDependencies
	SubWeightDependencies
	ThresholdDependencies
	BFRDependencies
	GameDependencies
}

// Snapshot mirrors the session state shape returned by reads and mutations.
type Snapshot = types.Snapshot

// SessionInfo mirrors the listing shape returned by session queries.
type SessionInfo = types.SessionInfo

// Server wires the HTTP handlers to their dependencies.
type Server struct {
	sessions   *SessionsHandler
	weights    *WeightsHandler
	presets    *PresetsHandler
	subWeights *SubWeightsHandler
	thresholds *ThresholdsHandler
	bfr        *BFRHandler
	game       *GameHandler
	stats      *StatsHandler
	health     *HealthHandler
	dashboard  *dashboardHandler
}

// NewServer creates a server with handlers bound to deps. maxListLimit caps
// the limit accepted by the session listing endpoint.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxListLimit int) *Server {
	return &Server{
		sessions:   NewSessionsHandler(deps, maxListLimit),
		weights:    NewWeightsHandler(deps),
		presets:    NewPresetsHandler(deps),
		subWeights: NewSubWeightsHandler(deps),
		thresholds: NewThresholdsHandler(deps),
		bfr:        NewBFRHandler(deps),
		game:       NewGameHandler(deps),
		stats:      NewStatsHandler(statsProvider),
		health:     NewHealthHandler(),
		dashboard:  newDashboardHandler(),
	}
}

// Register attaches all API routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.Handle("POST /sessions", MetricsMiddleware(s.sessions.HandleCreateSession, "sessions"))
	mux.Handle("GET /sessions", MetricsMiddleware(s.sessions.HandleListSessions, "sessions"))
	mux.Handle("GET /sessions/{id}", MetricsMiddleware(s.sessions.HandleGetSession, "session"))
	mux.Handle("DELETE /sessions/{id}", MetricsMiddleware(s.sessions.HandleDeleteSession, "session"))

	mux.Handle("GET /sessions/{id}/weights", MetricsMiddleware(s.weights.HandleGetWeights, "weights"))
	mux.Handle("POST /sessions/{id}/weights", MetricsMiddleware(s.weights.HandleSetWeight, "weights"))
	mux.Handle("POST /sessions/{id}/weights/preset", MetricsMiddleware(s.presets.HandleApplyPreset, "weights_preset"))

	mux.Handle("GET /sessions/{id}/compliance-weights", MetricsMiddleware(s.subWeights.HandleGetSubWeights, "compliance_weights"))
	mux.Handle("POST /sessions/{id}/compliance-weights", MetricsMiddleware(s.subWeights.HandleSetSubWeight, "compliance_weights"))
	mux.Handle("POST /sessions/{id}/compliance-weights/preset", MetricsMiddleware(s.subWeights.HandleApplyFocus, "compliance_weights_preset"))

	mux.Handle("GET /sessions/{id}/thresholds", MetricsMiddleware(s.thresholds.HandleGetThresholds, "thresholds"))
	mux.Handle("POST /sessions/{id}/thresholds", MetricsMiddleware(s.thresholds.HandleUpdateThreshold, "thresholds"))
	mux.Handle("GET /sessions/{id}/thresholds/{channel}", MetricsMiddleware(s.thresholds.HandleGetChannel, "threshold_channel"))

	mux.Handle("GET /sessions/{id}/bfr", MetricsMiddleware(s.bfr.HandleGetBFR, "bfr"))
	mux.Handle("POST /sessions/{id}/bfr", MetricsMiddleware(s.bfr.HandleUpdateBFR, "bfr"))

	mux.Handle("GET /sessions/{id}/game-normalization", MetricsMiddleware(s.game.HandleGetGame, "game_normalization"))
	mux.Handle("POST /sessions/{id}/game-normalization", MetricsMiddleware(s.game.HandleUpdateGame, "game_normalization"))

	mux.Handle("GET /presets", MetricsMiddleware(s.presets.HandleListPresets, "presets"))
	mux.Handle("GET /stats", MetricsMiddleware(s.stats.HandleStats, "stats"))
	mux.Handle("GET /healthz", MetricsMiddleware(s.health.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.health.MetricsHandler())
	mux.Handle("GET /dashboard", MetricsMiddleware(s.dashboard.HandleDashboard, "dashboard"))
	mux.Handle("GET /{$}", http.RedirectHandler("/dashboard", http.StatusTemporaryRedirect))
}

// errorResponse is the JSON shape of all error replies.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes v as a JSON reply with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error reply. An empty message falls back
// to the standard status text.
func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
