// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/tonuslab/tonus/internal/domain/types"
)

// SaveRequest asks the persistence pipeline to write one session snapshot.
// Requests for the same session may arrive out of order; the store keeps
// whichever revision is highest.
type SaveRequest struct {
	UpdateID  string         // mutation id that produced this snapshot, if any
	SessionID string         // session the snapshot belongs to
	Revision  int64          // monotonically increasing per session
	TakenAt   time.Time      // when the snapshot was cut
	Snapshot  types.Snapshot // full configuration at that revision
}
