package service

import (
	"github.com/okian/beatcore/internal/adapters/repository"
	"github.com/okian/beatcore/internal/domain/scoring"
	"github.com/okian/beatcore/internal/domain/spawn"
	"github.com/okian/beatcore/pkg/logger"
)

// Option applies a configuration option to a Session.
type Option func(*Session)

// WithLogger sets a custom logger for the session.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPool replaces the spawn controller's instance pool.
func WithPool(p spawn.Pool) Option {
	return func(s *Session) {
		if p != nil {
			s.pool = p
		}
	}
}

// WithGeometry sets the player body used for obstacle intersection.
func WithGeometry(g PlayerGeometry) Option {
	return func(s *Session) {
		s.geometry = g
	}
}

// WithSink sets where the completed-level record is published.
func WithSink(sink ResultSink) Option {
	return func(s *Session) {
		s.sink = sink
	}
}

// WithSpawnConfig overrides the spawn kinematics defaults.
func WithSpawnConfig(cfg spawn.Config) Option {
	return func(s *Session) {
		s.spawnCfg = cfg
	}
}

// WithScoringOptions passes options through to the scoring controller.
func WithScoringOptions(opts ...scoring.Option) Option {
	return func(s *Session) {
		s.scoringOpts = append(s.scoringOpts, opts...)
	}
}

// WithNoteJumpSpeed sets the note jump speed in units per second.
func WithNoteJumpSpeed(njs float64) Option {
	return func(s *Session) {
		if njs > 0 {
			s.njs = njs
		}
	}
}

// WithLevelID labels the completed-level record.
func WithLevelID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.levelID = id
		}
	}
}

// ServiceOption applies a configuration option to the Service.
type ServiceOption func(*Service)

// WithWorkerCount sets the number of persistence workers.
func WithWorkerCount(count int) ServiceOption {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the result queue.
func WithQueueSize(size int) ServiceOption {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the record id deduplication cache.
func WithDedupeSize(size int) ServiceOption {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDBPath selects the SQLite results store. An empty path keeps the
// in-memory store.
func WithDBPath(path string) ServiceOption {
	return func(s *Service) {
		s.dbPath = path
	}
}

// WithStore injects a results store, overriding WithDBPath.
func WithStore(store repository.Store) ServiceOption {
	return func(s *Service) {
		s.store = store
	}
}

// WithServiceLogger sets a custom logger for the service.
func WithServiceLogger(l logger.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
