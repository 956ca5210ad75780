// Package config defines runtime configuration and how it is loaded.
//
// Conventions:
//   - New returns the defaults; Load layers a YAML file and env vars on top.
//   - Validate reports bad values as ErrInvalidConfig.
//   - Domain packages never read Config directly; the accessors below
//     translate it into their option types.
package config

import (
	"fmt"

	"github.com/okian/beatcore/internal/domain/beatmap"
	"github.com/okian/beatcore/internal/domain/scoring"
	"github.com/okian/beatcore/internal/domain/spawn"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080". Empty disables HTTP.
	Addr string `koanf:"addr"`

	// DBPath selects the SQLite results database. Empty keeps results in memory.
	DBPath string `koanf:"db_path"`

	// QueueSize bounds the in-memory result queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of persistence workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the record id deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxResultsLimit caps GET /results?limit.
	MaxResultsLimit int `koanf:"max_results_limit"`

	// TickRate is the number of simulation ticks per second of song time.
	TickRate int `koanf:"tick_rate"`

	// Spawn kinematics.
	NoteJumpSpeed         float64 `koanf:"note_jump_speed"`
	MoveSpeed             float64 `koanf:"move_speed"`
	MoveDurationBeats     float64 `koanf:"move_duration_beats"`
	HalfJumpDurationBeats float64 `koanf:"half_jump_duration_beats"`
	MaxHalfJumpDistance   float64 `koanf:"max_half_jump_distance"`
	NoteLinesDistance     float64 `koanf:"note_lines_distance"`

	// Fever mode.
	FeverCombo           int     `koanf:"fever_combo"`
	FeverDurationSeconds float64 `koanf:"fever_duration_seconds"`

	// Gameplay transforms applied before the level starts.
	Mirror       bool   `koanf:"mirror"`
	NoArrows     bool   `koanf:"no_arrows"`
	Obstacles    string `koanf:"obstacles"` // all, full_height_only or none
	StaticLights bool   `koanf:"static_lights"`
}

// New creates a Config holding the defaults.
func New() *Config {
	sc := spawn.DefaultConfig()
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		QueueSize:             1024,
		WorkerCount:           2,
		DedupeSize:            50_000,
		MaxResultsLimit:       100,
		TickRate:              90,
		NoteJumpSpeed:         spawn.DefaultNoteJumpSpeed,
		MoveSpeed:             sc.MoveSpeed,
		MoveDurationBeats:     sc.MoveDurationBeats,
		HalfJumpDurationBeats: sc.HalfJumpDurationBeats,
		MaxHalfJumpDistance:   sc.MaxHalfJumpDistance,
		NoteLinesDistance:     sc.NoteLinesDistance,
		FeverCombo:            scoring.DefaultFeverComboThreshold,
		FeverDurationSeconds:  scoring.DefaultFeverDuration,
		Obstacles:             "all",
	}
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"queue_size", float64(c.QueueSize)},
		{"worker_count", float64(c.WorkerCount)},
		{"dedupe_size", float64(c.DedupeSize)},
		{"max_results_limit", float64(c.MaxResultsLimit)},
		{"tick_rate", float64(c.TickRate)},
		{"note_jump_speed", c.NoteJumpSpeed},
		{"move_speed", c.MoveSpeed},
		{"move_duration_beats", c.MoveDurationBeats},
		{"half_jump_duration_beats", c.HalfJumpDurationBeats},
		{"max_half_jump_distance", c.MaxHalfJumpDistance},
		{"note_lines_distance", c.NoteLinesDistance},
		{"fever_combo", float64(c.FeverCombo)},
		{"fever_duration_seconds", c.FeverDurationSeconds},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, p.name)
		}
	}
	if _, err := beatmap.ParseObstacleFilter(c.Obstacles); err != nil {
		return fmt.Errorf("%w: obstacles: %w", ErrInvalidConfig, err)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}

// SpawnConfig returns the spawn defaults with the configured kinematics.
func (c *Config) SpawnConfig() spawn.Config {
	sc := spawn.DefaultConfig()
	sc.MoveSpeed = c.MoveSpeed
	sc.MoveDurationBeats = c.MoveDurationBeats
	sc.HalfJumpDurationBeats = c.HalfJumpDurationBeats
	sc.MaxHalfJumpDistance = c.MaxHalfJumpDistance
	sc.NoteLinesDistance = c.NoteLinesDistance
	return sc
}

// ScoringOptions returns the configured fever tuning.
func (c *Config) ScoringOptions() []scoring.Option {
	return []scoring.Option{
		scoring.WithFeverComboThreshold(c.FeverCombo),
		scoring.WithFeverDuration(c.FeverDurationSeconds),
	}
}

// GameplayOptions returns the configured beatmap transforms.
func (c *Config) GameplayOptions() (beatmap.GameplayOptions, error) {
	filter, err := beatmap.ParseObstacleFilter(c.Obstacles)
	if err != nil {
		return beatmap.GameplayOptions{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return beatmap.GameplayOptions{
		Mirror:       c.Mirror,
		NoArrows:     c.NoArrows,
		Obstacles:    filter,
		StaticLights: c.StaticLights,
	}, nil
}
