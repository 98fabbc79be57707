package logger

import (
	"context"
	"log/slog"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given an uninitialized logger package", t, func() {
		Convey("When Init is called", func() {
			err := Init()

			Convey("Then it should succeed", func() {
				So(err, ShouldBeNil)
			})

			Convey("And Get should return a usable logger", func() {
				l := Get()
				So(l, ShouldNotBeNil)
				// Must not panic.
				l.Info(context.Background(), "hello", String("k", "v"), Int("n", 1))
			})

			Convey("And Named should return a derived logger", func() {
				l := Named("ingest")
				So(l, ShouldNotBeNil)
				l.Debug(context.Background(), "scoped message")
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(Init(), ShouldBeNil)

		Convey("When setting known levels", func() {
			for _, lvl := range []string{"debug", "info", "warn", "warning", "error", "", "DEBUG"} {
				So(SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("When setting an unknown level", func() {
			err := SetLevelString("loud")

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When setting a level directly", func() {
			SetLevel(slog.LevelWarn)
			So(levelVar.Level(), ShouldEqual, slog.LevelWarn)
		})
	})
}

func TestFieldConstructors(t *testing.T) {
	Convey("Given the field constructors", t, func() {
		So(String("a", "b").Key, ShouldEqual, "a")
		So(Int("n", 3).Value, ShouldEqual, 3)
		So(Bool("ok", true).Value, ShouldEqual, true)
		So(Error(nil).Key, ShouldEqual, "error")
	})
}
