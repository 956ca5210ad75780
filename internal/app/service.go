// Package service wires beatmap sessions to the persistence pipeline and
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	eventqueue "github.com/okian/beatcore/internal/adapters/mq/queue"
	workerpool "github.com/okian/beatcore/internal/adapters/mq/worker"
	repository "github.com/okian/beatcore/internal/adapters/repository"
	"github.com/okian/beatcore/internal/domain/dedupe"
	"github.com/okian/beatcore/internal/domain/model"
	"github.com/okian/beatcore/pkg/logger"
	"github.com/okian/beatcore/pkg/metrics"
)

// Service persists completed levels asynchronously and serves reads over
// them. It implements ResultSink.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper[string]
	queue      *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool
	session    *Session

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	dbPath      string

	// State
	started   bool
	ownsStore bool

	// Logging
	logger logger.Logger
}

// NewService constructs a Service with default configuration.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		workerCount: 2,
		queueSize:   1024,
		dedupeSize:  50000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store and starts the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.store == nil {
		s.ownsStore = true
		if s.dbPath != "" {
			store, err := repository.OpenSQLiteStore(ctx, s.dbPath)
			if err != nil {
				return fmt.Errorf("start service: %w", err)
			}
			s.store = store
			s.logger.Info(ctx, "using sqlite store", logger.String("path", s.dbPath))
		} else {
			s.store = repository.NewTreapStore()
			s.logger.Info(ctx, "using treap store")
		}
	}
	s.deduper = dedupe.New[string](dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.store,
		workerpool.WithLogger(s.logger.Named("worker")),
		workerpool.WithFailureHandler(func(ctx context.Context, r workerpool.Record, err error) {
			// let a retry of the same record through
			s.deduper.Unrecord(r.ID)
		}),
	)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "results service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains the queue into the store and closes it.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping results service...")

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "closing store", logger.Error(err))
	}
	if s.ownsStore {
		s.store = nil
	}

	s.started = false
	s.logger.Info(ctx, "results service stopped",
		logger.Any("persisted", s.workerPool.Processed()),
	)
}

// Publish implements ResultSink. A record already published is accepted
// again without being queued twice.
func (s *Service) Publish(ctx context.Context, rec model.CompletedLevel) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return ErrNotStarted
	}
	if s.deduper.SeenAndRecord(rec.ID) {
		s.logger.Debug(ctx, "duplicate record skipped", logger.String("id", rec.ID))
		return nil
	}
	if err := s.queue.Enqueue(ctx, rec); err != nil {
		s.deduper.Unrecord(rec.ID)
		return fmt.Errorf("enqueue result: %w", err)
	}
	return nil
}

// Attach makes sess the session reported by GetStats.
func (s *Service) Attach(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
}

// Results returns up to limit records of a level, best first.
func (s *Service) Results(ctx context.Context, levelID string, limit int) ([]repository.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store.List(ctx, levelID, limit)
}

// Best returns the best record of a level, or false if there is none.
func (s *Service) Best(ctx context.Context, levelID string) (model.CompletedLevel, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.CompletedLevel{}, false, ErrNotStarted
	}
	rec, err := s.store.Best(ctx, levelID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.CompletedLevel{}, false, nil
	}
	if err != nil {
		return model.CompletedLevel{}, false, err
	}
	return rec, true, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["storedResults"] = s.store.Count(ctx)
		stats["persisted"] = s.workerPool.Processed()
		metrics.UpdateQueueSize(queueLen)
	}
	if s.session != nil {
		stats["session"] = s.session.Stats()
	}
	return stats
}
