package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/tonuslab/tonus/internal/domain/model"
	"github.com/tonuslab/tonus/internal/domain/types"
	"github.com/tonuslab/tonus/pkg/metrics"
)

// SQLite-backed Store implementation.
//
// Each session is one row keyed by session id. The full snapshot travels as
// a zstd-compressed JSON blob; revision, preset and update time are lifted
// into columns so listings never touch the blob. The upsert keeps whichever
// revision is highest, which makes replayed or reordered saves harmless.

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id    TEXT PRIMARY KEY,
	revision      INTEGER NOT NULL,
	active_preset TEXT NOT NULL DEFAULT '',
	updated_at    TEXT NOT NULL,
	snapshot      BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at DESC);
`

const upsertSnapshot = `
INSERT INTO sessions (session_id, revision, active_preset, updated_at, snapshot)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
	revision      = excluded.revision,
	active_preset = excluded.active_preset,
	updated_at    = excluded.updated_at,
	snapshot      = excluded.snapshot
WHERE excluded.revision > sessions.revision
`

const (
	defaultMetricsUpdateInterval = 15 * time.Second
	defaultBusyTimeout           = 5 * time.Second
)

// SQLiteStore persists session snapshots in a single SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder

	metricsUpdateInterval time.Duration
	busyTimeout           time.Duration

	// Background metrics management
	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewSQLiteStore opens the database at path, runs migrations, and starts the
// background metrics updater. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		busyTimeout:           defaultBusyTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s.db = db

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		fmt.Sprintf("PRAGMA busy_timeout=%d", s.busyTimeout.Milliseconds()),
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	// EncodeAll/DecodeAll on shared coders is concurrency-safe, so one pair
	// serves every request.
	s.enc, err = zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	s.dec, err = zstd.NewReader(nil)
	if err != nil {
		s.enc.Close()
		db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)

	return s, nil
}

// Save implements Store.Save.
func (s *SQLiteStore) Save(ctx context.Context, req model.SaveRequest) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreSaveLatency(float64(time.Since(start).Milliseconds()))
	}()

	raw, err := json.Marshal(req.Snapshot)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "marshal")
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	blob := s.enc.EncodeAll(raw, nil)

	_, err = s.db.ExecContext(ctx, upsertSnapshot,
		req.SessionID, req.Revision, req.Snapshot.ActivePreset,
		req.TakenAt.UTC().Format(time.RFC3339Nano), blob,
	)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "save")
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load implements Store.Load.
func (s *SQLiteStore) Load(ctx context.Context, sessionID string) (types.Snapshot, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Snapshot{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordErrorByComponent("repository", "query")
		return types.Snapshot{}, fmt.Errorf("load snapshot %s: %w", sessionID, err)
	}

	raw, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "decompress")
		return types.Snapshot{}, fmt.Errorf("decompress snapshot %s: %w", sessionID, err)
	}

	var snap types.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		metrics.RecordErrorByComponent("repository", "unmarshal")
		return types.Snapshot{}, fmt.Errorf("unmarshal snapshot %s: %w", sessionID, err)
	}
	return snap, nil
}

// Delete implements Store.Delete.
func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE session_id = ?`, sessionID,
	); err != nil {
		metrics.RecordErrorByComponent("repository", "delete")
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// List implements Store.List.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]types.SessionInfo, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if limit < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, revision, active_preset, updated_at
		 FROM sessions ORDER BY updated_at DESC, session_id ASC LIMIT ?`, limit,
	)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "query")
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var infos []types.SessionInfo
	for rows.Next() {
		var info types.SessionInfo
		var updatedStr string
		if err := rows.Scan(&info.SessionID, &info.Revision, &info.ActivePreset, &updatedStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		info.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Count implements Store.Count.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		metrics.RecordErrorByComponent("repository", "query")
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// Close gracefully shuts down the metrics updater and closes the database.
func (s *SQLiteStore) Close() error {
	select {
	case <-s.stopChan:
		// Channel already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()

	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

// startMetricsUpdater starts a background goroutine that keeps the stored
// session gauge current.
func (s *SQLiteStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics(ctx)
			}
		}
	}()
}

// updateMetrics refreshes the stored session gauge.
func (s *SQLiteStore) updateMetrics(ctx context.Context) {
	n, err := s.Count(ctx)
	if err != nil {
		return
	}
	metrics.UpdateStoredSessions(n)
}
