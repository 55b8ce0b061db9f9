// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	savequeue "github.com/tonuslab/tonus/internal/adapters/mq/queue"
	workerpool "github.com/tonuslab/tonus/internal/adapters/mq/worker"
	repository "github.com/tonuslab/tonus/internal/adapters/repository"
	"github.com/tonuslab/tonus/internal/domain/dedupe"
	"github.com/tonuslab/tonus/internal/domain/model"
	"github.com/tonuslab/tonus/internal/domain/presets"
	"github.com/tonuslab/tonus/internal/domain/session"
	"github.com/tonuslab/tonus/internal/domain/types"
	"github.com/tonuslab/tonus/pkg/logger"
	"github.com/tonuslab/tonus/pkg/metrics"
)

// defaultStorePath is where session snapshots land when no path is configured.
const defaultStorePath = "tonus.db"

// sessionState is the live, in-memory state of one session.
type sessionState struct {
	cfg       session.Config
	revision  int64
	updatedAt time.Time
}

// Service implements the API dependencies for the scoring configuration engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	sessions   map[string]*sessionState
	library    *presets.Library
	store      repository.Store
	deduper    dedupe.Deduper
	saveQueue  savequeue.Queue
	workerPool *workerpool.Pool

	// Configuration
	storePath   string
	workerCount int
	queueSize   int
	dedupeSize  int
	maxSessions int
	sessionOpts []session.Option

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of persistence worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the save queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the update deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxSessions caps the number of live in-memory sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithStorePath sets the SQLite database path used when no store is injected.
func WithStorePath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.storePath = path
		}
	}
}

// WithStore injects a pre-built session store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithPresets replaces the builtin preset catalog.
func WithPresets(lib *presets.Library) Option {
	return func(s *Service) {
		if lib != nil {
			s.library = lib
		}
	}
}

// WithSessionDefaults adjusts the configuration every new session starts from.
func WithSessionDefaults(opts ...session.Option) Option {
	return func(s *Service) {
		s.sessionOpts = append(s.sessionOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:    make(map[string]*sessionState),
		library:     presets.Builtin(),
		storePath:   defaultStorePath,
		workerCount: runtime.NumCPU() * 2, // Default to 2x CPU cores
		queueSize:   10_000,               // Default save queue size
		dedupeSize:  100_000,              // Default dedupe cache size
		maxSessions: 10_000,               // Default live session cap
		logger:      nil,                  // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting scoring configuration service...")

	// Initialize components
	if s.store == nil {
		store, err := repository.NewSQLiteStore(ctx, s.storePath)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		s.store = store
		s.logger.Info(ctx, "using sqlite store", logger.String("path", s.storePath))
	}
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.saveQueue = savequeue.NewInMemoryQueue(
		savequeue.WithCapacity(s.queueSize),
		savequeue.WithBufferSize(s.queueSize),
	)

	// Create and start the persistence worker pool
	s.workerPool = workerpool.NewPool(s.workerCount, s.saveQueue, s.store)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "scoring configuration service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("maxSessions", s.maxSessions),
	)

	return nil
}

// Stop gracefully shuts down the service, draining pending saves before the
// store goes away.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoring configuration service...")

	// Shut down the worker pool; this closes the queue and drains it
	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
		s.workerPool = nil
	}

	// Close the session store
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "error closing session store", logger.Err(err))
		}
		s.store = nil
	}

	s.saveQueue = nil
	s.deduper = nil

	s.started = false
	s.logger.Info(ctx, "scoring configuration service stopped")
}

// CreateSession registers a new session with the default configuration,
// optionally starting from a named catalog preset. An empty id gets a
// generated UUID.
func (s *Service) CreateSession(ctx context.Context, sessionID, preset string) (types.Snapshot, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	cfg := session.Defaults(s.sessionOpts...)
	if preset != "" {
		var err error
		if cfg, err = cfg.ApplyPreset(s.library, preset); err != nil {
			return types.Snapshot{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; ok {
		return types.Snapshot{}, fmt.Errorf("%w: %q", ErrSessionExists, sessionID)
	}
	if _, err := s.store.Load(ctx, sessionID); err == nil {
		return types.Snapshot{}, fmt.Errorf("%w: %q", ErrSessionExists, sessionID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return types.Snapshot{}, fmt.Errorf("check session store: %w", err)
	}
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		return types.Snapshot{}, fmt.Errorf("%w: limit %d", ErrTooManySessions, s.maxSessions)
	}

	st := &sessionState{
		cfg:       cfg,
		revision:  1,
		updatedAt: time.Now().UTC(),
	}
	s.sessions[sessionID] = st

	metrics.RecordSessionCreated()
	metrics.UpdateSessionCount(len(s.sessions))

	snap := st.cfg.Snapshot(sessionID, st.revision, st.updatedAt)
	s.enqueueSave(ctx, "", snap)

	s.logger.Info(ctx, "session created", logger.String("sessionID", sessionID))
	return snap, nil
}

// GetSession returns the current snapshot, restoring the session from the
// store when it is not live in memory.
func (s *Service) GetSession(ctx context.Context, sessionID string) (types.Snapshot, error) {
	s.mu.RLock()
	if st, ok := s.sessions[sessionID]; ok {
		snap := st.cfg.Snapshot(sessionID, st.revision, st.updatedAt)
		s.mu.RUnlock()
		return snap, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.restoreLocked(ctx, sessionID)
	if err != nil {
		return types.Snapshot{}, err
	}
	return st.cfg.Snapshot(sessionID, st.revision, st.updatedAt), nil
}

// DeleteSession removes a session from memory and the store.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, live := s.sessions[sessionID]; !live {
		if _, err := s.store.Load(ctx, sessionID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
			}
			return fmt.Errorf("check session store: %w", err)
		}
	}

	delete(s.sessions, sessionID)
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session %q: %w", sessionID, err)
	}

	metrics.RecordSessionDeleted()
	metrics.UpdateSessionCount(len(s.sessions))

	s.logger.Info(ctx, "session deleted", logger.String("sessionID", sessionID))
	return nil
}

// ListSessions returns session metadata ordered by most recent update,
// merging live in-memory sessions with the store.
func (s *Service) ListSessions(ctx context.Context, limit int) ([]types.SessionInfo, error) {
	if limit < 1 {
		return nil, repository.ErrInvalidLimit
	}

	stored, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	s.mu.RLock()
	merged := make(map[string]types.SessionInfo, len(stored)+len(s.sessions))
	for _, info := range stored {
		merged[info.SessionID] = info
	}
	// Live sessions win; they may be ahead of the last flushed snapshot.
	for id, st := range s.sessions {
		merged[id] = types.SessionInfo{
			SessionID:    id,
			Revision:     st.revision,
			ActivePreset: st.cfg.ActivePreset,
			UpdatedAt:    st.updatedAt,
		}
	}
	s.mu.RUnlock()

	infos := make([]types.SessionInfo, 0, len(merged))
	for _, info := range merged {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].UpdatedAt.Equal(infos[j].UpdatedAt) {
			return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
		}
		return infos[i].SessionID < infos[j].SessionID
	})
	if len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}

// Presets returns the preset catalog in catalog order.
func (s *Service) Presets(ctx context.Context) []presets.Preset {
	return s.library.All()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"maxSessions": s.maxSessions,
	}

	if s.started {
		storedSessions, err := s.store.Count(ctx)
		if err != nil {
			storedSessions = -1
		}

		stats["liveSessions"] = len(s.sessions)
		stats["queueLength"] = s.saveQueue.Len(ctx)
		stats["storedSessions"] = storedSessions
		stats["dedupeEntries"] = s.deduper.Size()
		stats["presets"] = s.library.Len()

		// Update metrics
		metrics.UpdateSessionCount(len(s.sessions))
		if storedSessions >= 0 {
			metrics.UpdateStoredSessions(storedSessions)
		}
	}

	return stats
}

// restoreLocked pulls a session out of the store into memory. Callers must
// hold the write lock.
func (s *Service) restoreLocked(ctx context.Context, sessionID string) (*sessionState, error) {
	if st, ok := s.sessions[sessionID]; ok {
		return st, nil
	}

	snap, err := s.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("load session %q: %w", sessionID, err)
	}

	st := &sessionState{
		cfg:       session.FromSnapshot(snap),
		revision:  snap.Revision,
		updatedAt: snap.UpdatedAt,
	}
	s.sessions[sessionID] = st

	metrics.RecordSessionRestored()
	metrics.UpdateSessionCount(len(s.sessions))

	s.logger.Debug(ctx, "session restored from store",
		logger.String("sessionID", sessionID),
		logger.Int64("revision", snap.Revision),
	)
	return st, nil
}

// enqueueSave hands a snapshot to the persistence pipeline. A full queue is
// logged and counted; the mutation itself has already succeeded.
func (s *Service) enqueueSave(ctx context.Context, updateID string, snap types.Snapshot) {
	req := model.SaveRequest{
		UpdateID:  updateID,
		SessionID: snap.SessionID,
		Revision:  snap.Revision,
		TakenAt:   snap.UpdatedAt,
		Snapshot:  snap,
	}
	if !s.saveQueue.Enqueue(ctx, req) {
		s.logger.Warn(ctx, "save queue rejected snapshot",
			logger.String("sessionID", snap.SessionID),
			logger.Int64("revision", snap.Revision),
		)
	}
}
