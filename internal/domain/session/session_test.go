package session_test

import (
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tonuslab/tonus/internal/domain/bfr"
	"github.com/tonuslab/tonus/internal/domain/gamescore"
	"github.com/tonuslab/tonus/internal/domain/presets"
	"github.com/tonuslab/tonus/internal/domain/session"
	"github.com/tonuslab/tonus/internal/domain/thresholds"
	"github.com/tonuslab/tonus/internal/domain/types"
	"github.com/tonuslab/tonus/internal/domain/weights"
)

func ptr(v float64) *float64 { return &v }

func thresholdUpdate(mvc, duration *float64) types.ThresholdUpdate {
	return types.ThresholdUpdate{MVCPercent: mvc, DurationSeconds: duration}
}

func bfrUpdate(aop, applied, rangeMin, rangeMax, minutes *float64) types.BFRUpdate {
	return types.BFRUpdate{
		AOPMeasured:        aop,
		AppliedPressure:    applied,
		RangeMin:           rangeMin,
		RangeMax:           rangeMax,
		ApplicationMinutes: minutes,
	}
}

func fullBFRUpdate(aop, applied, rangeMin, rangeMax, minutes float64) types.BFRUpdate {
	return bfrUpdate(ptr(aop), ptr(applied), ptr(rangeMin), ptr(rangeMax), ptr(minutes))
}

func gameUpdate(algorithm *string, minScore, maxScore *float64) types.GameUpdate {
	return types.GameUpdate{Algorithm: algorithm, MinScore: minScore, MaxScore: maxScore}
}

func TestDefaults(t *testing.T) {
	Convey("Given a fresh session configuration", t, func() {
		cfg := session.Defaults()

		Convey("It starts on the default preset", func() {
			So(cfg.ActivePreset, ShouldEqual, presets.Default)
			So(cfg.Weights, ShouldResemble, weights.DefaultTopLevel())
			So(cfg.SubWeights, ShouldResemble, weights.DefaultSub())
		})

		Convey("Thresholds, BFR and game score carry their package defaults", func() {
			So(cfg.Thresholds.Get("anything"), ShouldResemble, thresholds.DefaultThreshold())
			So(cfg.BFR, ShouldResemble, bfr.Default())
			So(cfg.Game, ShouldResemble, gamescore.Default())
		})

		Convey("Options reshape the starting state", func() {
			cfg := session.Defaults(
				session.WithThresholdDefault(thresholds.Threshold{MVCPercent: 60, DurationSeconds: 3}),
				session.WithBFRRange(50, 70),
				session.WithGameBounds(0, 500),
			)
			So(cfg.Thresholds.Default().MVCPercent, ShouldEqual, 60.0)
			So(cfg.BFR.RangeMin, ShouldEqual, 50.0)
			So(cfg.BFR.RangeMax, ShouldEqual, 70.0)
			So(cfg.Game.MaxScore, ShouldEqual, 500.0)
		})

		Convey("An invalid option pair falls back to the standard values", func() {
			cfg := session.Defaults(session.WithBFRRange(90, 10))
			So(cfg.BFR.RangeMin, ShouldEqual, 40.0)
			So(cfg.BFR.RangeMax, ShouldEqual, 80.0)
		})
	})
}

func TestSetWeight(t *testing.T) {
	Convey("Given a session on the default preset", t, func() {
		cfg := session.Defaults()

		Convey("Writing the game score weight rescales the whole vector", func() {
			next, err := cfg.SetWeight(weights.GameScore, 50)
			So(err, ShouldBeNil)
			So(next.Weights.Compliance, ShouldAlmostEqual, 0.364, 0.001)
			So(next.Weights.Symmetry, ShouldAlmostEqual, 0.182, 0.001)
			So(next.Weights.Effort, ShouldAlmostEqual, 0.091, 0.001)
			So(next.Weights.GameScore, ShouldAlmostEqual, 0.364, 0.001)
			So(next.Weights.Sum(), ShouldAlmostEqual, 1.0, weights.SumTolerance)
		})

		Convey("Any direct weight write moves the session to custom", func() {
			next, err := cfg.SetWeight(weights.Compliance, 50)
			So(err, ShouldBeNil)
			So(next.ActivePreset, ShouldEqual, presets.Custom)
		})

		Convey("Even an ignored NaN write moves it to custom", func() {
			next, err := cfg.SetWeight(weights.Compliance, math.NaN())
			So(err, ShouldBeNil)
			So(next.Weights, ShouldResemble, cfg.Weights)
			So(next.ActivePreset, ShouldEqual, presets.Custom)
		})

		Convey("An unknown component changes nothing", func() {
			next, err := cfg.SetWeight(weights.Component("agility"), 50)
			So(err, ShouldNotBeNil)
			So(next, ShouldResemble, cfg)
			So(next.ActivePreset, ShouldEqual, presets.Default)
		})

		Convey("The receiver stays untouched", func() {
			_, err := cfg.SetWeight(weights.Effort, 90)
			So(err, ShouldBeNil)
			So(cfg.ActivePreset, ShouldEqual, presets.Default)
			So(cfg.Weights, ShouldResemble, weights.DefaultTopLevel())
		})
	})
}

func TestApplyPreset(t *testing.T) {
	Convey("Given a session diverged from any preset", t, func() {
		lib := presets.Builtin()
		cfg := session.Defaults()
		cfg, err := cfg.SetWeight(weights.Symmetry, 80)
		So(err, ShouldBeNil)
		So(cfg.ActivePreset, ShouldEqual, presets.Custom)

		Convey("Applying a catalog entry restores its weights verbatim", func() {
			next, err := cfg.ApplyPreset(lib, presets.QualityFocused)
			So(err, ShouldBeNil)
			So(next.ActivePreset, ShouldEqual, presets.QualityFocused)

			want, ok := lib.Get(presets.QualityFocused)
			So(ok, ShouldBeTrue)
			So(next.Weights, ShouldResemble, want.Weights.Normalize())
			So(next.Weights.Sum(), ShouldAlmostEqual, 1.0, weights.SumTolerance)
		})

		Convey("Applying the default preset goes back to the defaults", func() {
			next, err := cfg.ApplyPreset(lib, presets.Default)
			So(err, ShouldBeNil)
			So(next.Weights, ShouldResemble, weights.DefaultTopLevel())
			So(next.ActivePreset, ShouldEqual, presets.Default)
		})

		Convey("The custom sentinel is not applicable", func() {
			next, err := cfg.ApplyPreset(lib, presets.Custom)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown preset")
			So(next, ShouldResemble, cfg)
		})

		Convey("Unknown names are rejected", func() {
			_, err := cfg.ApplyPreset(lib, "aggressive")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown preset")
		})
	})
}

func TestSubWeights(t *testing.T) {
	Convey("Given a session configuration", t, func() {
		cfg := session.Defaults()

		Convey("Sub-weight writes do not touch the preset sentinel", func() {
			next, err := cfg.SetSubWeight(weights.Completion, 60)
			So(err, ShouldBeNil)
			So(next.ActivePreset, ShouldEqual, presets.Default)
			So(next.SubWeights.Sum(), ShouldAlmostEqual, 1.0, weights.SumTolerance)
		})

		Convey("A completion focus lands exactly", func() {
			next, err := cfg.ApplySubFocus(presets.CompletionFocus)
			So(err, ShouldBeNil)
			So(next.SubWeights.Completion, ShouldEqual, 0.5)
			So(next.SubWeights.Intensity, ShouldEqual, 0.3)
			So(next.SubWeights.Duration, ShouldEqual, 0.2)
		})

		Convey("Unknown focuses are rejected", func() {
			next, err := cfg.ApplySubFocus(presets.SubFocus("stamina_focus"))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown sub-weight focus")
			So(next, ShouldResemble, cfg)
		})

		Convey("Unknown sub-components are rejected", func() {
			_, err := cfg.SetSubWeight(weights.SubComponent("velocity"), 40)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestThresholdMutations(t *testing.T) {
	Convey("Given a session configuration", t, func() {
		cfg := session.Defaults()

		Convey("Direct threshold writes clamp and land per channel", func() {
			next := cfg.SetMVCThreshold("biceps_right", 150).SetDurationThreshold("biceps_right", 0.1)
			got := next.Thresholds.Get("biceps_right")
			So(got.MVCPercent, ShouldEqual, 100.0)
			So(got.DurationSeconds, ShouldEqual, 0.5)
		})

		Convey("Partial updates touch only the fields they carry", func() {
			pct := 85.0
			next := cfg.ApplyThresholdUpdate("deltoid_left", thresholdUpdate(&pct, nil))
			got := next.Thresholds.Get("deltoid_left")
			So(got.MVCPercent, ShouldEqual, 85.0)
			So(got.DurationSeconds, ShouldEqual, 2.0)
		})
	})
}

func TestBFRAndGameMutations(t *testing.T) {
	Convey("Given a session configuration", t, func() {
		cfg := session.Defaults()

		Convey("A combined BFR update applies the range as a pair", func() {
			aop, applied, lo, hi := 180.0, 160.0, 85.0, 95.0
			next := cfg.ApplyBFRUpdate(bfrUpdate(&aop, &applied, &lo, &hi, nil))
			So(next.BFR.RangeMin, ShouldEqual, 85.0)
			So(next.BFR.RangeMax, ShouldEqual, 95.0)
			So(next.BFR.PercentAOP, ShouldAlmostEqual, 88.889, 0.001)
			So(next.BFR.Compliant, ShouldBeTrue)
		})

		Convey("A game update with an unknown algorithm rejects the whole write", func() {
			alg := "sigmoid"
			lo := 10.0
			next, err := cfg.ApplyGameUpdate(gameUpdate(&alg, &lo, nil))
			So(err, ShouldNotBeNil)
			So(next, ShouldResemble, cfg)
		})

		Convey("Game bounds arriving together land atomically", func() {
			lo, hi := 200.0, 400.0
			next, err := cfg.ApplyGameUpdate(gameUpdate(nil, &lo, &hi))
			So(err, ShouldBeNil)
			So(next.Game.MinScore, ShouldEqual, 200.0)
			So(next.Game.MaxScore, ShouldEqual, 400.0)
		})
	})
}

func TestSnapshotRoundTrip(t *testing.T) {
	Convey("Given a configuration with every surface touched", t, func() {
		lib := presets.Builtin()
		cfg := session.Defaults()
		cfg, err := cfg.ApplyPreset(lib, presets.ExperimentalWithGame)
		So(err, ShouldBeNil)
		cfg, err = cfg.ApplySubFocus(presets.IntensityFocus)
		So(err, ShouldBeNil)
		cfg = cfg.SetMVCThreshold("quadriceps_left", 85)
		cfg = cfg.ApplyBFRUpdate(fullBFRUpdate(180, 90, 40, 60, 12))
		cfg, err = cfg.ApplyGameUpdate(gameUpdate(nil, ptr(0.0), ptr(50.0)))
		So(err, ShouldBeNil)

		at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		snap := cfg.Snapshot("session-9", 17, at)

		Convey("The snapshot carries identity and state", func() {
			So(snap.SessionID, ShouldEqual, "session-9")
			So(snap.Revision, ShouldEqual, 17)
			So(snap.UpdatedAt, ShouldEqual, at)
			So(snap.ActivePreset, ShouldEqual, presets.ExperimentalWithGame)
			So(snap.Thresholds.Channels, ShouldContainKey, "quadriceps_left")
		})

		Convey("FromSnapshot rebuilds an equivalent configuration", func() {
			got := session.FromSnapshot(snap)
			So(got.Weights, ShouldResemble, cfg.Weights)
			So(got.SubWeights, ShouldResemble, cfg.SubWeights)
			So(got.BFR, ShouldResemble, cfg.BFR)
			So(got.Game, ShouldResemble, cfg.Game)
			So(got.ActivePreset, ShouldEqual, cfg.ActivePreset)
			So(got.Thresholds.Get("quadriceps_left"), ShouldResemble, cfg.Thresholds.Get("quadriceps_left"))
		})

		Convey("A snapshot with no preset name loads as custom", func() {
			snap.ActivePreset = ""
			got := session.FromSnapshot(snap)
			So(got.ActivePreset, ShouldEqual, presets.Custom)
		})

		Convey("A snapshot with no game algorithm loads the default curve", func() {
			snap.Game.Algorithm = ""
			got := session.FromSnapshot(snap)
			So(got.Game, ShouldResemble, gamescore.Default())
		})

		Convey("Stale derived BFR fields are recomputed on load", func() {
			snap.BFR.Compliant = false
			snap.BFR.FailureReason = "too low"
			got := session.FromSnapshot(snap)
			So(got.BFR.Compliant, ShouldBeTrue)
			So(got.BFR.FailureReason, ShouldBeBlank)
		})
	})
}
