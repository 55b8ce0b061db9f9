package service

import (
	"context"
	"errors"
	"time"

	"github.com/tonuslab/tonus/internal/domain/gamescore"
	"github.com/tonuslab/tonus/internal/domain/presets"
	"github.com/tonuslab/tonus/internal/domain/session"
	"github.com/tonuslab/tonus/internal/domain/thresholds"
	"github.com/tonuslab/tonus/internal/domain/types"
	"github.com/tonuslab/tonus/internal/domain/weights"
	"github.com/tonuslab/tonus/pkg/logger"
	"github.com/tonuslab/tonus/pkg/metrics"
)

// Mutation kinds as recorded in metrics.
const (
	mutationSetWeight     = "set_weight"
	mutationApplyPreset   = "apply_preset"
	mutationSetSubWeight  = "set_sub_weight"
	mutationApplySubFocus = "apply_sub_focus"
	mutationSetThreshold  = "set_threshold"
	mutationUpdateBFR     = "update_bfr"
	mutationUpdateGame    = "update_game"
)

// mutate runs one configuration write end to end: dedupe, apply, bump the
// revision, and hand the new snapshot to the persistence pipeline. A replay
// of an already-seen update id returns the current snapshot unchanged.
func (s *Service) mutate(ctx context.Context, sessionID, updateID, kind string, apply func(session.Config) (session.Config, error)) (types.Snapshot, error) {
	start := time.Now()
	defer func() {
		metrics.RecordMutationLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.restoreLocked(ctx, sessionID)
	if err != nil {
		return types.Snapshot{}, err
	}

	if updateID != "" && s.deduper.SeenAndRecord(ctx, updateID) {
		metrics.RecordMutationDuplicate()
		s.logger.Debug(ctx, "duplicate update replayed",
			logger.String("sessionID", sessionID),
			logger.String("updateID", updateID),
		)
		return st.cfg.Snapshot(sessionID, st.revision, st.updatedAt), nil
	}

	next, err := apply(st.cfg)
	if err != nil {
		if updateID != "" {
			s.deduper.Unrecord(ctx, updateID)
		}
		metrics.RecordMutationRejected(rejectReason(err))
		return types.Snapshot{}, err
	}

	st.cfg = next
	st.revision++
	st.updatedAt = time.Now().UTC()

	metrics.RecordMutation(kind)

	snap := st.cfg.Snapshot(sessionID, st.revision, st.updatedAt)
	s.enqueueSave(ctx, updateID, snap)
	return snap, nil
}

// rejectReason maps a mutation error to its metrics label.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, weights.ErrUnknownComponent):
		return "unknown_component"
	case errors.Is(err, weights.ErrUnknownSubComponent):
		return "unknown_sub_component"
	case errors.Is(err, presets.ErrUnknownPreset):
		return "unknown_preset"
	case errors.Is(err, presets.ErrUnknownFocus):
		return "unknown_focus"
	case errors.Is(err, gamescore.ErrUnknownAlgorithm):
		return "unknown_algorithm"
	default:
		return "invalid_input"
	}
}

// SetWeight writes one top-level weight as a 0-100 percentage and rescales
// the whole vector around it.
func (s *Service) SetWeight(ctx context.Context, sessionID, component string, value float64, updateID string) (types.Snapshot, error) {
	return s.mutate(ctx, sessionID, updateID, mutationSetWeight, func(cfg session.Config) (session.Config, error) {
		return cfg.SetWeight(weights.Component(component), value)
	})
}

// ApplyPreset replaces the top-level weights with a catalog entry.
func (s *Service) ApplyPreset(ctx context.Context, sessionID, name, updateID string) (types.Snapshot, error) {
	return s.mutate(ctx, sessionID, updateID, mutationApplyPreset, func(cfg session.Config) (session.Config, error) {
		next, err := cfg.ApplyPreset(s.library, name)
		if err != nil {
			return cfg, err
		}
		metrics.RecordPresetApply(name)
		return next, nil
	})
}

// SetSubWeight writes one compliance sub-weight as a 0-100 percentage and
// rescales the sub-vector around it.
func (s *Service) SetSubWeight(ctx context.Context, sessionID, component string, value float64, updateID string) (types.Snapshot, error) {
	return s.mutate(ctx, sessionID, updateID, mutationSetSubWeight, func(cfg session.Config) (session.Config, error) {
		return cfg.SetSubWeight(weights.SubComponent(component), value)
	})
}

// ApplySubFocus replaces the compliance sub-weights with a quick preset.
func (s *Service) ApplySubFocus(ctx context.Context, sessionID, focus, updateID string) (types.Snapshot, error) {
	return s.mutate(ctx, sessionID, updateID, mutationApplySubFocus, func(cfg session.Config) (session.Config, error) {
		return cfg.ApplySubFocus(presets.SubFocus(focus))
	})
}

// UpdateThreshold applies a partial threshold write to one channel.
func (s *Service) UpdateThreshold(ctx context.Context, sessionID, channel string, upd types.ThresholdUpdate, updateID string) (types.Snapshot, error) {
	return s.mutate(ctx, sessionID, updateID, mutationSetThreshold, func(cfg session.Config) (session.Config, error) {
		return cfg.ApplyThresholdUpdate(channel, upd), nil
	})
}

// GetThreshold returns the effective threshold for one channel, falling back
// to the session default when the channel carries no override.
func (s *Service) GetThreshold(ctx context.Context, sessionID, channel string) (thresholds.Threshold, error) {
	s.mu.RLock()
	if st, ok := s.sessions[sessionID]; ok {
		t := st.cfg.Thresholds.Get(channel)
		s.mu.RUnlock()
		return t, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.restoreLocked(ctx, sessionID)
	if err != nil {
		return thresholds.Threshold{}, err
	}
	return st.cfg.Thresholds.Get(channel), nil
}

// UpdateBFR applies a partial blood flow restriction write and returns the
// snapshot with the derived compliance verdict recomputed.
func (s *Service) UpdateBFR(ctx context.Context, sessionID string, upd types.BFRUpdate, updateID string) (types.Snapshot, error) {
	return s.mutate(ctx, sessionID, updateID, mutationUpdateBFR, func(cfg session.Config) (session.Config, error) {
		return cfg.ApplyBFRUpdate(upd), nil
	})
}

// UpdateGame applies a partial game score normalization write.
func (s *Service) UpdateGame(ctx context.Context, sessionID string, upd types.GameUpdate, updateID string) (types.Snapshot, error) {
	return s.mutate(ctx, sessionID, updateID, mutationUpdateGame, func(cfg session.Config) (session.Config, error) {
		return cfg.ApplyGameUpdate(upd)
	})
}
