package weights_test

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	weights "github.com/tonuslab/tonus/internal/domain/weights"
)

func TestNormalize(t *testing.T) {
	Convey("Given the renormalization primitive", t, func() {
		Convey("When normalizing vectors with a positive sum", func() {
			vectors := []weights.Vector{
				{"a": 1, "b": 1},
				{"a": 0.5, "b": 0.25, "c": 0.125, "d": 0.125},
				{"a": 10, "b": 30, "c": 60},
				{"a": 0.0001, "b": 0.0003},
				{"a": 1375, "b": 0, "c": 125},
			}

			Convey("Then each result should sum to one", func() {
				for _, v := range vectors {
					got := weights.Normalize(v)
					So(weights.Sum(got), ShouldAlmostEqual, 1.0, weights.SumTolerance)
				}
			})
		})

		Convey("When normalizing an already normalized vector", func() {
			v := weights.Vector{"a": 0.5, "b": 0.25, "c": 0.25}
			once := weights.Normalize(v)
			twice := weights.Normalize(once)

			Convey("Then normalization should be idempotent", func() {
				for k := range v {
					So(twice[k], ShouldAlmostEqual, once[k], weights.SumTolerance)
				}
			})
		})

		Convey("When normalizing a zero-sum vector", func() {
			v := weights.Vector{"a": 0, "b": 0, "c": 0}
			got := weights.Normalize(v)

			Convey("Then the values should come back unchanged", func() {
				So(got, ShouldResemble, v)
			})

			Convey("And the input map should not be aliased", func() {
				got["a"] = 99
				So(v["a"], ShouldEqual, 0)
			})
		})
	})
}

func TestSetAndNormalize(t *testing.T) {
	Convey("Given a vector and a single-key write", t, func() {
		v := weights.Vector{"a": 0.2, "b": 0.3, "c": 0.5}

		Convey("When overwriting one key", func() {
			got := weights.SetAndNormalize(v, "c", 0.9)

			Convey("Then the result should sum to one", func() {
				So(weights.Sum(got), ShouldAlmostEqual, 1.0, weights.SumTolerance)
			})

			Convey("And the ratio between untouched keys should be preserved", func() {
				before := v["a"] / v["b"]
				after := got["a"] / got["b"]
				So(after, ShouldAlmostEqual, before, weights.SumTolerance)
			})

			Convey("And the input vector should be untouched", func() {
				So(v["c"], ShouldEqual, 0.5)
			})
		})

		Convey("When the write overwrites rather than adds", func() {
			got := weights.SetAndNormalize(v, "a", 0.2)

			Convey("Then the vector should be unchanged up to normalization", func() {
				norm := weights.Normalize(v)
				for k := range norm {
					So(got[k], ShouldAlmostEqual, norm[k], weights.SumTolerance)
				}
			})
		})

		Convey("When the write zeroes the only non-zero entries", func() {
			z := weights.Vector{"a": 1, "b": 0}
			got := weights.SetAndNormalize(z, "a", 0)

			Convey("Then the degenerate vector should pass through", func() {
				So(got["a"], ShouldEqual, 0)
				So(got["b"], ShouldEqual, 0)
			})
		})
	})
}

func TestTopLevel(t *testing.T) {
	Convey("Given the top-level weight split", t, func() {
		Convey("When reading the defaults", func() {
			def := weights.DefaultTopLevel()

			Convey("Then they should match the balanced split", func() {
				So(def.Compliance, ShouldEqual, 0.5)
				So(def.Symmetry, ShouldEqual, 0.25)
				So(def.Effort, ShouldEqual, 0.125)
				So(def.GameScore, ShouldEqual, 0.125)
				So(def.Sum(), ShouldAlmostEqual, 1.0, weights.SumTolerance)
			})
		})

		Convey("When raising the game score slider to its 50 cap", func() {
			got, err := weights.DefaultTopLevel().SetPercent(weights.GameScore, 50)

			Convey("Then the whole split should rescale", func() {
				So(err, ShouldBeNil)
				So(got.Compliance, ShouldAlmostEqual, 0.364, 0.001)
				So(got.Symmetry, ShouldAlmostEqual, 0.182, 0.001)
				So(got.Effort, ShouldAlmostEqual, 0.091, 0.001)
				So(got.GameScore, ShouldAlmostEqual, 0.364, 0.001)
				So(got.Sum(), ShouldAlmostEqual, 1.0, weights.SumTolerance)
			})

			Convey("And the untouched ratios should be preserved", func() {
				def := weights.DefaultTopLevel()
				So(got.Compliance/got.Symmetry, ShouldAlmostEqual, def.Compliance/def.Symmetry, weights.SumTolerance)
				So(got.Symmetry/got.Effort, ShouldAlmostEqual, def.Symmetry/def.Effort, weights.SumTolerance)
			})
		})

		Convey("When the slider value exceeds the scale", func() {
			overAll, err1 := weights.DefaultTopLevel().SetPercent(weights.Compliance, 250)
			overGame, err2 := weights.DefaultTopLevel().SetPercent(weights.GameScore, 80)

			Convey("Then the value should clamp to the component's cap", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)

				// 250 clamps to 100 => fraction 1.0 over {1.0, 0.25, 0.125, 0.125}.
				So(overAll.Compliance, ShouldAlmostEqual, 1.0/1.5, weights.SumTolerance)

				// 80 clamps to the 50 game score cap, same as the cap scenario.
				So(overGame.GameScore, ShouldAlmostEqual, 0.364, 0.001)
			})
		})

		Convey("When the slider value is negative", func() {
			got, err := weights.DefaultTopLevel().SetPercent(weights.Effort, -30)

			Convey("Then it should clamp to zero", func() {
				So(err, ShouldBeNil)
				So(got.Effort, ShouldEqual, 0)
				So(got.Sum(), ShouldAlmostEqual, 1.0, weights.SumTolerance)
			})
		})

		Convey("When the input is not a number", func() {
			def := weights.DefaultTopLevel()
			gotNaN, errNaN := def.SetPercent(weights.Symmetry, math.NaN())
			gotInf, errInf := def.SetPercent(weights.Symmetry, math.Inf(1))

			Convey("Then the write should be ignored and the prior value retained", func() {
				So(errNaN, ShouldBeNil)
				So(errInf, ShouldBeNil)
				So(gotNaN, ShouldResemble, def)
				So(gotInf, ShouldResemble, def)
			})
		})

		Convey("When the component is unknown", func() {
			def := weights.DefaultTopLevel()
			got, err := def.SetPercent(weights.Component("sparkle"), 10)

			Convey("Then the write should be rejected", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "unknown weight component")
				So(got, ShouldResemble, def)
			})
		})

		Convey("When converting through the map form", func() {
			def := weights.DefaultTopLevel()
			back := weights.TopLevelFromMap(def.Map())

			Convey("Then the round trip should be lossless", func() {
				So(back, ShouldResemble, def)
			})
		})

		Convey("When comparing splits", func() {
			a := weights.DefaultTopLevel()
			b := a
			b.Effort += 0.0005

			Convey("Then EqualWithin should honor the tolerance", func() {
				So(a.EqualWithin(b, 0.001), ShouldBeTrue)
				So(a.EqualWithin(b, 0.0001), ShouldBeFalse)
			})
		})
	})
}

func TestSub(t *testing.T) {
	Convey("Given the compliance sub-weight split", t, func() {
		Convey("When reading the defaults", func() {
			def := weights.DefaultSub()

			Convey("Then it should be an equal three-way split", func() {
				So(def.Completion, ShouldAlmostEqual, 1.0/3.0, weights.SumTolerance)
				So(def.Intensity, ShouldAlmostEqual, 1.0/3.0, weights.SumTolerance)
				So(def.Duration, ShouldAlmostEqual, 1.0/3.0, weights.SumTolerance)
				So(def.Sum(), ShouldAlmostEqual, 1.0, weights.SumTolerance)
			})
		})

		Convey("When moving one sub-weight", func() {
			got, err := weights.DefaultSub().SetPercent(weights.Completion, 60)

			Convey("Then the split should renormalize and keep untouched ratios", func() {
				So(err, ShouldBeNil)
				So(got.Sum(), ShouldAlmostEqual, 1.0, weights.SumTolerance)
				So(got.Intensity/got.Duration, ShouldAlmostEqual, 1.0, weights.SumTolerance)
			})
		})

		Convey("When the sub-component is unknown", func() {
			def := weights.DefaultSub()
			got, err := def.SetPercent(weights.SubComponent("velocity"), 10)

			Convey("Then the write should be rejected", func() {
				So(err, ShouldNotBeNil)
				So(got, ShouldResemble, def)
			})
		})

		Convey("When the input is not a number", func() {
			def := weights.DefaultSub()
			got, err := def.SetPercent(weights.Duration, math.NaN())

			Convey("Then the write should be ignored", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, def)
			})
		})
	})
}

func TestComponentOrder(t *testing.T) {
	Convey("Given the closed component sets", t, func() {
		Convey("Then the canonical orders should be stable", func() {
			So(weights.Components(), ShouldResemble, []weights.Component{
				weights.Compliance, weights.Symmetry, weights.Effort, weights.GameScore,
			})
			So(weights.SubComponents(), ShouldResemble, []weights.SubComponent{
				weights.Completion, weights.Intensity, weights.Duration,
			})
		})
	})
}
