package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/paddock/internal/domain/dedupe"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When a key is recorded for the first time", func() {
			seen := d.SeenAndRecord(ctx, dedupe.Key("driver:1@3", "analytics"))

			Convey("Then it is reported new and counted", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same key is recorded while in flight", func() {
			key := dedupe.Key("unfiltered@0", "analytics")
			d.SeenAndRecord(ctx, key)
			seen := d.SeenAndRecord(ctx, key)

			Convey("Then it is reported seen", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key is released", func() {
			key := dedupe.Key("team:6@2", "prediction")
			d.SeenAndRecord(ctx, key)
			d.Unrecord(ctx, key)

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, key), ShouldBeFalse)
			})
		})

		Convey("When an unknown key is released", func() {
			d.Unrecord(ctx, "missing")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a deduper bounded to two keys", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2), dedupe.WithTTL(0))
		d.SeenAndRecord(ctx, "a")
		d.SeenAndRecord(ctx, "b")

		Convey("When a third key arrives", func() {
			d.SeenAndRecord(ctx, "c")

			Convey("Then the oldest key is evicted", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.SeenAndRecord(ctx, "b"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a deduper with a one minute ttl", t, func() {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		d := dedupe.NewInMemoryDeduper(
			dedupe.WithTTL(time.Minute),
			dedupe.WithClock(func() time.Time { return now }),
		)
		d.SeenAndRecord(ctx, "stuck")

		Convey("When the key was never released and the ttl passed", func() {
			now = now.Add(2 * time.Minute)

			Convey("Then it counts as released", func() {
				So(d.SeenAndRecord(ctx, "stuck"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the ttl has not passed", func() {
			now = now.Add(30 * time.Second)

			Convey("Then it is still in flight", func() {
				So(d.SeenAndRecord(ctx, "stuck"), ShouldBeTrue)
			})
		})
	})

	Convey("Given concurrent callers racing on the same keys", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0

		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					if !d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each key is new exactly once", func() {
			So(fresh, ShouldEqual, 50)
			So(d.Size(), ShouldEqual, 50)
		})
	})
}
