package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSeenAndRecord(t *testing.T) {
	Convey("Given a fresh deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		ctx := context.Background()

		Convey("When recording a new key", func() {
			seen := d.SeenAndRecord(ctx, dedupe.Key("alice", "123"))

			Convey("Then it should not have been seen before", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And recording it again should report it as seen", func() {
				So(d.SeenAndRecord(ctx, dedupe.Key("alice", "123")), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And the same id for another owner is a distinct key", func() {
				So(d.SeenAndRecord(ctx, dedupe.Key("bob", "123")), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 2)
			})
		})

		Convey("When unrecording a key", func() {
			d.SeenAndRecord(ctx, "k1")
			d.Unrecord(ctx, "k1")

			Convey("Then the key can be recorded again", func() {
				So(d.SeenAndRecord(ctx, "k1"), ShouldBeFalse)
			})

			Convey("And unrecording an absent key is a no-op", func() {
				d.Unrecord(ctx, "never-seen")
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}

func TestBoundedEviction(t *testing.T) {
	Convey("Given a deduper bounded to 3 keys", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			So(d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i)), ShouldBeFalse)
		}

		Convey("When a fourth key arrives", func() {
			So(d.SeenAndRecord(ctx, "k3"), ShouldBeFalse)

			Convey("Then the oldest key should have been evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "k0"), ShouldBeFalse) // forgotten, re-recorded
			})

			Convey("And newer keys should still be remembered", func() {
				So(d.SeenAndRecord(ctx, "k2"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "k3"), ShouldBeTrue)
			})
		})
	})
}

func TestConcurrentAccess(t *testing.T) {
	Convey("Given concurrent writers racing on the same key", t, func() {
		d := dedupe.NewInMemoryDeduper()
		ctx := context.Background()

		const goroutines = 32
		var wg sync.WaitGroup
		firsts := make(chan bool, goroutines)

		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				firsts <- !d.SeenAndRecord(ctx, "contested")
			}()
		}
		wg.Wait()
		close(firsts)

		Convey("Then exactly one should win the record", func() {
			wins := 0
			for first := range firsts {
				if first {
					wins++
				}
			}
			So(wins, ShouldEqual, 1)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
