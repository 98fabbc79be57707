package bus_test

import (
	"context"
	"testing"
	"time"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/capture/bus"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func event(id string) model.CorrelationEvent {
	return model.CorrelationEvent{
		SubmissionID:  id,
		CorrelationID: "1710504000000-abcd1234",
		Language:      "python3",
		ProblemID:     "42",
		Timestamp:     time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestPublishSubscribe(t *testing.T) {
	Convey("Given an open bus", t, func() {
		b := bus.New(bus.WithCapacity(4))
		ctx := context.Background()

		Convey("When publishing an event", func() {
			ok := b.Publish(ctx, event("100"))

			Convey("Then it should be accepted and delivered", func() {
				So(ok, ShouldBeTrue)
				So(b.Len(), ShouldEqual, 1)
				got := <-b.Subscribe(ctx)
				So(got.SubmissionID, ShouldEqual, "100")
			})
		})

		Convey("When the bus is full", func() {
			for i := 0; i < 4; i++ {
				So(b.Publish(ctx, event("x")), ShouldBeTrue)
			}

			Convey("Then further publishes are dropped, not blocked", func() {
				done := make(chan bool, 1)
				go func() { done <- b.Publish(ctx, event("overflow")) }()
				select {
				case ok := <-done:
					So(ok, ShouldBeFalse)
				case <-time.After(time.Second):
					t.Fatal("publish blocked on a full bus")
				}
			})
		})
	})
}

func TestClose(t *testing.T) {
	Convey("Given a bus that has been closed", t, func() {
		b := bus.New()
		ctx := context.Background()
		So(b.Publish(ctx, event("1")), ShouldBeTrue)
		So(b.Close(), ShouldBeNil)

		Convey("Then publishes report failure without panicking", func() {
			So(func() { b.Publish(ctx, event("2")) }, ShouldNotPanic)
			So(b.Publish(ctx, event("2")), ShouldBeFalse)
		})

		Convey("And the subscribe channel drains then closes", func() {
			ch := b.Subscribe(ctx)
			got, open := <-ch
			So(open, ShouldBeTrue)
			So(got.SubmissionID, ShouldEqual, "1")
			_, open = <-ch
			So(open, ShouldBeFalse)
		})

		Convey("And closing again is a no-op", func() {
			So(b.Close(), ShouldBeNil)
		})
	})
}
