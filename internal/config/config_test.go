package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/steamcompass/compass/internal/config"
)

func TestConfigDefaults(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := config.New(context.Background())

		Convey("Then the engine defaults should be set", func() {
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.BatchSize, ShouldEqual, 5)
			So(cfg.BatchDelay(), ShouldEqual, 2*time.Second)
			So(cfg.FetchTimeout(), ShouldEqual, 8*time.Second)
			So(cfg.SignalTimeout(), ShouldEqual, 20*time.Second)
			So(cfg.ResolverDelay(), ShouldEqual, 500*time.Millisecond)
			So(cfg.BreakerOpenTimeout(), ShouldEqual, 30*time.Second)
			So(cfg.RefreshInterval(), ShouldEqual, time.Duration(0))
			So(cfg.IncludeDegraded, ShouldBeFalse)
		})

		Convey("Then they should validate", func() {
			So(cfg.Validate(), ShouldBeNil)
		})
	})
}

func TestConfigValidate(t *testing.T) {
	Convey("Given an invalid configuration", t, func() {
		cfg := config.New(context.Background())

		Convey("When the batch size is zero", func() {
			cfg.BatchSize = 0
			err := cfg.Validate()

			Convey("Then it should be rejected as invalid", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "BatchSize")
			})
		})

		Convey("When the signal timeout is shorter than a single fetch", func() {
			cfg.SignalTimeoutMS = 100
			cfg.FetchTimeoutMS = 200

			Convey("Then it should be rejected", func() {
				So(cfg.Validate(), ShouldNotBeNil)
			})
		})

		Convey("When the log format is unknown", func() {
			cfg.LogFormat = "xml"

			Convey("Then it should be rejected", func() {
				So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When a source URL is malformed", func() {
			cfg.HLTBURL = "not a url"

			Convey("Then it should be rejected", func() {
				So(cfg.Validate(), ShouldNotBeNil)
			})
		})
	})
}
