package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewDefaults(t *testing.T) {
	Convey("Given a default config", t, func() {
		cfg := config.New()

		Convey("Then defaults should match the documented values", func() {
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.PendingTTLSeconds, ShouldEqual, 300)
			So(cfg.SweepIntervalSeconds, ShouldEqual, 60)
			So(cfg.TxRetryAttempts, ShouldEqual, 3)
			So(cfg.TxRetryBaseMS, ShouldEqual, 50)
			So(cfg.DedupeSize, ShouldEqual, 50_000)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		os.Unsetenv("DSA_CONFIG")
		os.Unsetenv("DSA_ADDR")
		os.Unsetenv("DSA_TX_RETRY_ATTEMPTS")

		Convey("When loading with no overrides", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then defaults should be returned", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9080")
			})
		})

		Convey("When env vars override defaults", func() {
			os.Setenv("DSA_ADDR", ":7070")
			os.Setenv("DSA_JWT_SECRET", "test-secret")
			defer os.Unsetenv("DSA_ADDR")
			defer os.Unsetenv("DSA_JWT_SECRET")

			cfg, err := config.Load(context.Background())

			Convey("Then env values should win", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7070")
				So(cfg.JWTSecret, ShouldEqual, "test-secret")
			})
		})

		Convey("When an override is invalid", func() {
			os.Setenv("DSA_TX_RETRY_ATTEMPTS", "0")
			defer os.Unsetenv("DSA_TX_RETRY_ATTEMPTS")

			_, err := config.Load(context.Background())

			Convey("Then load should fail with the sentinel", func() {
				So(err, ShouldEqual, config.ErrInvalidRetries)
			})
		})

		Convey("When DSA_CONFIG points at a YAML file", func() {
			f, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
			So(err, ShouldBeNil)
			_, err = f.WriteString("addr: \":6060\"\nallowed_origin: \"chrome-extension://abc\"\n")
			So(err, ShouldBeNil)
			So(f.Close(), ShouldBeNil)
			os.Setenv("DSA_CONFIG", f.Name())
			defer os.Unsetenv("DSA_CONFIG")

			cfg, err := config.Load(context.Background())

			Convey("Then file values should apply", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":6060")
				So(cfg.AllowedOrigin, ShouldEqual, "chrome-extension://abc")
			})
		})
	})
}
