// Package types contains the wire-facing shapes shared by the HTTP layer,
// the service, and the repository.
package types

import (
	"time"

	"github.com/tonuslab/tonus/internal/domain/bfr"
	"github.com/tonuslab/tonus/internal/domain/gamescore"
	"github.com/tonuslab/tonus/internal/domain/thresholds"
	"github.com/tonuslab/tonus/internal/domain/weights"
)

// Snapshot is the complete scoring configuration of one session at one
// revision. It is what clients read back and what the repository persists.
type Snapshot struct {
	SessionID    string            `json:"sessionId"`
	Revision     int64             `json:"revision"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	ActivePreset string            `json:"activePreset"`
	Weights      weights.TopLevel  `json:"weights"`
	SubWeights   weights.Sub       `json:"complianceSubWeights"`
	Thresholds   ThresholdSnapshot `json:"thresholds"`
	BFR          bfr.Parameters    `json:"bfr"`
	Game         gamescore.Config  `json:"gameScoreNormalization"`
}

// ThresholdSnapshot is the serialized form of a threshold registry: the
// fallback plus only the channels that were explicitly configured.
type ThresholdSnapshot struct {
	Default  thresholds.Threshold            `json:"default"`
	Channels map[string]thresholds.Threshold `json:"channels,omitempty"`
}

// SessionInfo is the listing row for one session.
type SessionInfo struct {
	SessionID    string    `json:"sessionId"`
	Revision     int64     `json:"revision"`
	ActivePreset string    `json:"activePreset"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ThresholdUpdate carries a partial write to one channel's thresholds.
// Absent fields stay untouched.
type ThresholdUpdate struct {
	MVCPercent      *float64 `json:"mvcThresholdPercentage,omitempty"`
	DurationSeconds *float64 `json:"durationThresholdSeconds,omitempty"`
}

// BFRUpdate carries a partial write to the BFR inputs. Absent fields stay
// untouched; the derived verdict is recomputed either way.
type BFRUpdate struct {
	AOPMeasured        *float64 `json:"aopMeasured,omitempty"`
	AppliedPressure    *float64 `json:"appliedPressure,omitempty"`
	RangeMin           *float64 `json:"therapeuticRangeMin,omitempty"`
	RangeMax           *float64 `json:"therapeuticRangeMax,omitempty"`
	ApplicationMinutes *float64 `json:"applicationTimeMinutes,omitempty"`
}

// GameUpdate carries a partial write to the game score normalization.
type GameUpdate struct {
	Algorithm *string  `json:"algorithm,omitempty"`
	MinScore  *float64 `json:"minScore,omitempty"`
	MaxScore  *float64 `json:"maxScore,omitempty"`
}
