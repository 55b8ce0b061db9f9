// Package repository defines the session snapshot store interface and errors.
package repository

import (
	"context"

	"github.com/tonuslab/tonus/internal/domain/model"
	"github.com/tonuslab/tonus/internal/domain/types"
)

// Store provides durable access to session configuration snapshots.
type Store interface {
	// Save persists a snapshot. A stale revision is dropped silently so
	// out-of-order writes cannot roll a session back.
	Save(ctx context.Context, req model.SaveRequest) error

	// Load returns the stored snapshot for a session.
	// Returns ErrNotFound if the session is unknown.
	Load(ctx context.Context, sessionID string) (types.Snapshot, error)

	// Delete removes a session's snapshot. Unknown sessions are a no-op.
	Delete(ctx context.Context, sessionID string) error

	// List returns up to limit sessions, most recently updated first.
	List(ctx context.Context, limit int) ([]types.SessionInfo, error)

	// Count returns the number of sessions stored.
	Count(ctx context.Context) (int64, error)

	// Close stops background work and closes the underlying database.
	Close() error
}
