package config_test

import (
	"errors"
	"testing"

	"github.com/okian/beatcore/internal/config"
	"github.com/okian/beatcore/internal/domain/beatmap"
	"github.com/okian/beatcore/internal/domain/spawn"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DBPath, convey.ShouldEqual, "")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
			convey.So(cfg.TickRate, convey.ShouldEqual, 90)
			convey.So(cfg.NoteJumpSpeed, convey.ShouldEqual, spawn.DefaultNoteJumpSpeed)
			convey.So(cfg.MoveSpeed, convey.ShouldEqual, 200.0)
			convey.So(cfg.HalfJumpDurationBeats, convey.ShouldEqual, 4.0)
			convey.So(cfg.Obstacles, convey.ShouldEqual, "all")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the spawn config matches the spawn defaults", func() {
			convey.So(cfg.SpawnConfig(), convey.ShouldResemble, spawn.DefaultConfig())
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config", t, func() {
		cfg := config.New()

		convey.Convey("When a count is not positive", func() {
			cfg.WorkerCount = 0

			convey.Convey("Then validation names the key", func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "worker_count")
			})
		})

		convey.Convey("When a kinematics value is negative", func() {
			cfg.NoteJumpSpeed = -1

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the obstacle filter is unknown", func() {
			cfg.Obstacles = "some"

			convey.Convey("Then validation and the gameplay options fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				_, err := cfg.GameplayOptions()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the log level is unknown", func() {
			cfg.LogLevel = "loud"

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When HTTP is disabled", func() {
			cfg.Addr = ""

			convey.Convey("Then the config is still valid", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}

func TestConfig_Accessors(t *testing.T) {
	convey.Convey("Given a config with gameplay transforms and tuned kinematics", t, func() {
		cfg := config.New()
		cfg.Mirror = true
		cfg.StaticLights = true
		cfg.Obstacles = "full_height_only"
		cfg.MoveSpeed = 150
		cfg.NoteLinesDistance = 0.5

		convey.Convey("Then the gameplay options carry them", func() {
			opts, err := cfg.GameplayOptions()
			convey.So(err, convey.ShouldBeNil)
			convey.So(opts, convey.ShouldResemble, beatmap.GameplayOptions{
				Mirror:       true,
				Obstacles:    beatmap.ObstaclesFullHeightOnly,
				StaticLights: true,
			})
		})

		convey.Convey("Then the spawn config carries them", func() {
			sc := cfg.SpawnConfig()
			convey.So(sc.MoveSpeed, convey.ShouldEqual, 150.0)
			convey.So(sc.NoteLinesDistance, convey.ShouldEqual, 0.5)
			convey.So(sc.DissolveDuration, convey.ShouldEqual, spawn.DefaultConfig().DissolveDuration)
		})

		convey.Convey("Then there is one scoring option per fever setting", func() {
			convey.So(cfg.ScoringOptions(), convey.ShouldHaveLength, 2)
		})
	})
}
