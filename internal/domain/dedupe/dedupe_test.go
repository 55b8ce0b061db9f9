package dedupe_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	dedupe "github.com/tonuslab/tonus/internal/domain/dedupe"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording update IDs", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the update is new", func() {
				seen := d.SeenAndRecord(context.Background(), "update-1")

				Convey("Then it should return false and record the update", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the update was already seen", func() {
				d.SeenAndRecord(context.Background(), "update-1")

				seen := d.SeenAndRecord(context.Background(), "update-1")

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And multiple updates are recorded", func() {
				updates := []string{"update-1", "update-2", "update-3", "update-4", "update-5"}

				for _, id := range updates {
					seen := d.SeenAndRecord(context.Background(), id)
					So(seen, ShouldBeFalse)
				}

				Convey("Then all updates should be recorded", func() {
					So(d.Size(), ShouldEqual, int64(len(updates)))

					for _, id := range updates {
						seen := d.SeenAndRecord(context.Background(), id)
						So(seen, ShouldBeTrue)
					}
				})
			})
		})

		Convey("When unrecording updates", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the update exists", func() {
				d.SeenAndRecord(context.Background(), "update-1")
				So(d.Size(), ShouldEqual, 1)

				d.Unrecord(context.Background(), "update-1")

				Convey("Then it should be removed and retryable", func() {
					So(d.Size(), ShouldEqual, 0)

					seen := d.SeenAndRecord(context.Background(), "update-1")
					So(seen, ShouldBeFalse)
				})
			})

			Convey("And the update doesn't exist", func() {
				d.Unrecord(context.Background(), "nonexistent")

				Convey("Then it should not affect the size", func() {
					So(d.Size(), ShouldEqual, 0)
				})
			})

			Convey("And multiple updates are unrecorded", func() {
				updates := []string{"update-1", "update-2", "update-3"}

				for _, id := range updates {
					d.SeenAndRecord(context.Background(), id)
				}
				So(d.Size(), ShouldEqual, int64(len(updates)))

				for _, id := range updates {
					d.Unrecord(context.Background(), id)
				}

				Convey("Then all updates should be removed", func() {
					So(d.Size(), ShouldEqual, 0)

					for _, id := range updates {
						seen := d.SeenAndRecord(context.Background(), id)
						So(seen, ShouldBeFalse)
					}
				})
			})
		})

		Convey("When using bounded mode with eviction", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

			Convey("And the deduper is at capacity", func() {
				updates := []string{"update-1", "update-2", "update-3"}
				for _, id := range updates {
					seen := d.SeenAndRecord(context.Background(), id)
					So(seen, ShouldBeFalse)
				}
				So(d.Size(), ShouldEqual, 3)

				seen := d.SeenAndRecord(context.Background(), "update-4")

				Convey("Then it should evict the oldest and add the new one", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 3)

					// The oldest entry was evicted, so recording it again
					// must not be a duplicate and must not grow the tracker.
					originalSize := d.Size()
					seen1 := d.SeenAndRecord(context.Background(), "update-1")
					So(seen1, ShouldBeFalse)
					So(d.Size(), ShouldEqual, originalSize)
				})
			})
		})

		Convey("When using unbounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

			Convey("And many updates are recorded", func() {
				const numUpdates = 1000
				for i := 0; i < numUpdates; i++ {
					id := fmt.Sprintf("update-%d", i)
					seen := d.SeenAndRecord(context.Background(), id)
					So(seen, ShouldBeFalse)
				}

				Convey("Then all updates should be recorded without eviction", func() {
					So(d.Size(), ShouldEqual, int64(numUpdates))

					for i := 0; i < numUpdates; i++ {
						id := fmt.Sprintf("update-%d", i)
						seen := d.SeenAndRecord(context.Background(), id)
						So(seen, ShouldBeTrue)
					}
				})
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const numGoroutines = 10
		const updatesPerGoroutine = 100

		Convey("When multiple goroutines record updates concurrently", func() {
			var wg sync.WaitGroup

			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(goroutineID int) {
					defer wg.Done()
					for j := 0; j < updatesPerGoroutine; j++ {
						id := fmt.Sprintf("update-%d-%d", goroutineID, j)
						d.SeenAndRecord(context.Background(), id)
					}
				}(i)
			}

			wg.Wait()

			Convey("Then all updates should be recorded successfully", func() {
				So(d.Size(), ShouldEqual, int64(numGoroutines*updatesPerGoroutine))
			})
		})

		Convey("When multiple goroutines unrecord updates concurrently", func() {
			const numUpdates = 500
			for i := 0; i < numUpdates; i++ {
				id := fmt.Sprintf("update-%d", i)
				d.SeenAndRecord(context.Background(), id)
			}

			So(d.Size(), ShouldEqual, int64(numUpdates))

			var wg sync.WaitGroup
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(goroutineID int) {
					defer wg.Done()
					for j := 0; j < numUpdates/numGoroutines; j++ {
						id := fmt.Sprintf("update-%d", goroutineID*(numUpdates/numGoroutines)+j)
						d.Unrecord(context.Background(), id)
					}
				}(i)
			}

			wg.Wait()

			Convey("Then all updates should be unrecorded successfully", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestDedupeEdgeCases(t *testing.T) {
	Convey("Given a deduper with edge cases", t, func() {
		Convey("When recording an empty string", func() {
			d := dedupe.NewInMemoryDeduper()

			seen := d.SeenAndRecord(context.Background(), "")

			Convey("Then it should handle the empty string like any id", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)

				seen2 := d.SeenAndRecord(context.Background(), "")
				So(seen2, ShouldBeTrue)
			})
		})

		Convey("When recording very long IDs", func() {
			d := dedupe.NewInMemoryDeduper()

			longID := strings.Repeat("a", 10000)
			seen := d.SeenAndRecord(context.Background(), longID)

			Convey("Then it should handle long IDs", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)

				seen2 := d.SeenAndRecord(context.Background(), longID)
				So(seen2, ShouldBeTrue)
			})
		})

		Convey("When using nil context", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should not panic", func() {
				So(func() { d.SeenAndRecord(nil, "update-1") }, ShouldNotPanic)
				So(func() { d.Unrecord(nil, "update-1") }, ShouldNotPanic)
			})
		})

		Convey("When using very small max size", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1))

			Convey("And adding multiple updates", func() {
				seen1 := d.SeenAndRecord(context.Background(), "update-1")
				So(seen1, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)

				seen2 := d.SeenAndRecord(context.Background(), "update-2")
				So(seen2, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)

				// The first update was evicted so it records fresh.
				seen1Again := d.SeenAndRecord(context.Background(), "update-1")
				So(seen1Again, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When using negative max size", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(-1))

			Convey("Then it should be unbounded", func() {
				const numUpdates = 1000
				for i := 0; i < numUpdates; i++ {
					id := fmt.Sprintf("update-%d", i)
					seen := d.SeenAndRecord(context.Background(), id)
					So(seen, ShouldBeFalse)
				}

				So(d.Size(), ShouldEqual, int64(numUpdates))
			})
		})
	})
}

func TestDedupeOptions(t *testing.T) {
	Convey("Given dedupe options", t, func() {
		Convey("When using WithMaxSize", func() {
			Convey("Then it should set the max size", func() {
				d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(500))
				So(d, ShouldNotBeNil)
			})

			Convey("And when max size is zero", func() {
				d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
				So(d, ShouldNotBeNil)
			})
		})
	})
}
