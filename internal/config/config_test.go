package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/devbasics/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.APIBaseURL, convey.ShouldEqual, "http://localhost:3000")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.StoreDir, convey.ShouldBeEmpty)
			convey.So(cfg.AutoCloseDelay(), convey.ShouldEqual, 1200*time.Millisecond)
			convey.So(cfg.HTTPTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.EventBuffer, convey.ShouldEqual, 16)
			convey.So(cfg.DedupeWindow, convey.ShouldEqual, 1024)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad setting", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"empty base url", func(c *config.Config) { c.APIBaseURL = "" }},
			{"negative delay", func(c *config.Config) { c.AutoCloseDelayMS = -1 }},
			{"negative timeout", func(c *config.Config) { c.HTTPTimeoutMS = -5 }},
			{"negative buffer", func(c *config.Config) { c.EventBuffer = -1 }},
		}

		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)

			convey.Convey("Then "+tc.name+" is rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("Then a zero delay is allowed", func() {
			cfg := config.New()
			cfg.AutoCloseDelayMS = 0
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
