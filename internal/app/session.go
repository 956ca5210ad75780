package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/beatcore/internal/domain/beatmap"
	"github.com/okian/beatcore/internal/domain/callback"
	"github.com/okian/beatcore/internal/domain/model"
	"github.com/okian/beatcore/internal/domain/results"
	"github.com/okian/beatcore/internal/domain/scoring"
	"github.com/okian/beatcore/internal/domain/spawn"
	"github.com/okian/beatcore/internal/domain/types"
	"github.com/okian/beatcore/pkg/logger"
	"github.com/okian/beatcore/pkg/metrics"
)

// PlayerGeometry decides whether the player's body is inside an obstacle.
type PlayerGeometry interface {
	IntersectsObstacle(o spawn.ObstacleState) bool
}

// ResultSink receives the record of a finished level.
type ResultSink interface {
	Publish(ctx context.Context, rec model.CompletedLevel) error
}

// FinishInput carries what the caller knows at level end.
type FinishInput struct {
	EndState types.LevelEndState

	// ModifiedScore, when set, replaces the played score once (practice
	// penalties, modifiers).
	ModifiedScore *int

	LeftHandActivity  []float64
	RightHandActivity []float64
}

// Stats is a point-in-time snapshot of a session. It is safe to read from
// any goroutine.
type Stats struct {
	SessionID     string  `json:"session_id"`
	LevelID       string  `json:"level_id"`
	SongTime      float64 `json:"song_time"`
	Score         int     `json:"score"`
	Combo         int     `json:"combo"`
	MaxCombo      int     `json:"max_combo"`
	Multiplier    int     `json:"multiplier"`
	FeverActive   bool    `json:"fever_active"`
	LiveInstances int     `json:"live_instances"`
	Outcomes      int     `json:"outcomes"`
	Events        int     `json:"events"`
	Finished      bool    `json:"finished"`
}

// Session plays one beatmap. Everything except Stats must be called from a
// single simulation goroutine.
type Session struct {
	mu sync.RWMutex

	id      string
	levelID string
	data    *beatmap.Data

	// Core components
	engine  *callback.Engine
	spawner *spawn.Controller
	score   *scoring.Controller
	agg     *results.Aggregator

	// Configuration
	pool        spawn.Pool
	spawnCfg    spawn.Config
	scoringOpts []scoring.Option
	njs         float64
	geometry    PlayerGeometry
	sink        ResultSink

	// State
	started      bool
	finished     bool
	songTime     float64
	inObstacle   bool
	obstacleHits map[int]bool
	events       int
	result       *results.LevelCompletionResult
	stats        Stats

	// Logging
	logger logger.Logger
}

// New creates a session for data. Call Start before the first Tick.
func New(data *beatmap.Data, opts ...Option) *Session {
	s := &Session{
		id:           uuid.NewString(),
		levelID:      "unknown",
		data:         data,
		spawnCfg:     spawn.DefaultConfig(),
		njs:          spawn.DefaultNoteJumpSpeed,
		obstacleHits: make(map[int]bool),
		logger:       logger.NamedOrNop("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session id stamped on the completed-level record.
func (s *Session) ID() string { return s.id }

// Start binds the beatmap and wires every component. Calling it again does
// nothing.
func (s *Session) Start(ctx context.Context) error {
	if s.started {
		return nil
	}
	if s.data == nil {
		return fmt.Errorf("start session: %w", beatmap.ErrMalformedBeatmap)
	}

	s.engine = callback.NewEngine(callback.WithLogger(s.logger.Named("callback")))
	spawnOpts := []spawn.Option{
		spawn.WithConfig(s.spawnCfg),
		spawn.WithLogger(s.logger.Named("spawn")),
	}
	if s.pool != nil {
		spawnOpts = append(spawnOpts, spawn.WithPool(s.pool))
	}
	s.spawner = spawn.NewController(s.engine, spawnOpts...)
	s.score = scoring.NewController(append([]scoring.Option{scoring.WithLogger(s.logger.Named("scoring"))}, s.scoringOpts...)...)
	s.agg = results.NewAggregator()

	for _, k := range spawn.Kinds {
		metrics.InitSpawnKinds(k.String())
	}
	s.wire()
	s.engine.SetBeatmap(s.data)
	s.spawner.Init(s.data.BeatsPerMinute(), s.data.LaneCount(), s.njs)

	s.started = true
	s.refreshStats()
	s.logger.Info(ctx, "session started",
		logger.String("session_id", s.id),
		logger.String("level_id", s.levelID),
		logger.Float64("bpm", s.data.BeatsPerMinute()),
		logger.Int("notes", s.data.NotesCount()),
		logger.Float64("spawn_ahead", s.spawner.Kinematics().SpawnAheadTime),
	)
	return nil
}

func (s *Session) wire() {
	s.engine.AddEventCallback(func(beatmap.Event) { s.events++ })

	s.spawner.NoteSpawned.Subscribe(func(e spawn.NoteEvent) {
		if e.Note.Type == beatmap.Bomb {
			metrics.RecordSpawn(spawn.KindBomb.String())
			return
		}
		metrics.RecordSpawn(spawn.KindNote.String())
	})
	s.spawner.ObstacleMoveStarted.Subscribe(func(e spawn.ObstacleEvent) {
		kind := spawn.KindObstacleFullHeight
		if e.Obstacle.Type == beatmap.ObstacleTop {
			kind = spawn.KindObstacleTop
		}
		metrics.RecordSpawn(kind.String())
	})
	s.spawner.NoteCut.Subscribe(s.onNoteCut)
	s.spawner.NoteMissed.Subscribe(s.onNoteMissed)
	s.spawner.ObstacleAvoidedMark.Subscribe(s.onObstaclePassed)

	s.score.CutFinalized.Subscribe(func(c scoring.CutFinalized) {
		s.agg.Record(model.Outcome{
			ObjectID:        c.ObjectID,
			Category:        model.NoteGood,
			CutScore:        c.CutScore,
			CutDirDeviation: c.Info.CutDirDeviation,
			TimeDeviation:   c.Info.TimeDeviation,
		})
	})
	s.score.ScoreChanged.Subscribe(metrics.UpdateScore)
	s.score.ComboChanged.Subscribe(metrics.UpdateCombo)
	s.score.MultiplierChanged.Subscribe(func(m scoring.MultiplierChange) { metrics.UpdateMultiplier(m.Multiplier) })
	s.score.FeverStarted.Subscribe(func(float64) { metrics.RecordFeverActivation() })
}

func (s *Session) onNoteCut(e spawn.CutEvent) {
	note := e.Note
	switch {
	case note.Type == beatmap.Bomb:
		s.agg.Record(model.Outcome{ObjectID: note.ID(), Category: model.BombNotGood})
		metrics.RecordBombHit()
	case !e.Info.AllIsOK():
		s.agg.Record(model.Outcome{
			ObjectID:        note.ID(),
			Category:        model.NoteBad,
			CutDirDeviation: e.Info.CutDirDeviation,
			TimeDeviation:   e.Info.TimeDeviation,
		})
		metrics.RecordCut(false)
	default:
		metrics.RecordCut(true)
	}
	// good cuts are recorded when the scoring controller finalizes them
	s.score.HandleNoteCut(e.SongTime, note, e.Info)
}

func (s *Session) onNoteMissed(e spawn.NoteEvent) {
	if e.Note.Type == beatmap.Bomb {
		s.agg.Record(model.Outcome{ObjectID: e.Note.ID(), Category: model.BombOK})
		return
	}
	s.agg.Record(model.Outcome{ObjectID: e.Note.ID(), Category: model.NoteMissed})
	s.score.HandleNoteMissed(e.Note)
	metrics.RecordMiss()
}

func (s *Session) onObstaclePassed(e spawn.ObstacleEvent) {
	id := e.Obstacle.ID()
	category := model.ObstacleOK
	if s.obstacleHits[id] {
		category = model.ObstacleNotGood
	}
	delete(s.obstacleHits, id)
	s.agg.Record(model.Outcome{ObjectID: id, Category: category})
}

// Tick advances the level to songTime. After Finish only the dissolve keeps
// advancing.
func (s *Session) Tick(ctx context.Context, songTime float64) error {
	if !s.started {
		return ErrNotStarted
	}
	start := time.Now()
	s.songTime = songTime
	if s.finished {
		s.spawner.Tick(songTime)
		s.refreshStats()
		return nil
	}

	s.engine.Tick(songTime)
	s.spawner.Tick(songTime)
	s.checkObstacles()
	s.score.Tick(songTime)

	metrics.RecordTick(float64(time.Since(start).Microseconds()) / 1000)
	metrics.UpdateLiveInstances(s.spawner.Live())
	s.refreshStats()
	return nil
}

// checkObstacles applies the multiplier loss once per entry into any
// obstacle, however many ticks the intersection lasts.
func (s *Session) checkObstacles() {
	if s.geometry == nil {
		return
	}
	inside := false
	for _, o := range s.spawner.ActiveObstacles() {
		if s.geometry.IntersectsObstacle(o) {
			inside = true
			s.obstacleHits[o.Obstacle.ID()] = true
		}
	}
	if inside && !s.inObstacle {
		s.score.HandleObstacleEntered()
		metrics.RecordObstacleHit()
	}
	s.inObstacle = inside
}

// Cut reports a saber cut on a live note or bomb.
func (s *Session) Cut(h spawn.Handle, info model.NoteCutInfo) bool {
	if !s.started || s.finished {
		return false
	}
	return s.spawner.Cut(h, info)
}

// Finish ends the level: spawning stops, live objects dissolve, pending
// cuts are committed and the completion result is built and published.
// A sink failure is returned alongside the result.
func (s *Session) Finish(ctx context.Context, in FinishInput) (*results.LevelCompletionResult, error) {
	if !s.started {
		return nil, ErrNotStarted
	}
	if s.finished {
		return nil, ErrAlreadyFinished
	}
	s.finished = true

	s.spawner.StopSpawningAndDissolveAll()
	s.score.FinishPending()

	res := s.agg.Finish(results.Input{
		Score:             s.score.Score(),
		MaxCombo:          s.score.MaxCombo(),
		TotalNotes:        s.data.NotesCount(),
		EndState:          in.EndState,
		EndSongTime:       s.songTime,
		LeftHandActivity:  in.LeftHandActivity,
		RightHandActivity: in.RightHandActivity,
	})
	if in.ModifiedScore != nil {
		if err := res.ModifyScore(*in.ModifiedScore); err != nil {
			return nil, fmt.Errorf("modify score: %w", err)
		}
	}
	s.result = res
	s.refreshStats()

	metrics.RecordLevelCompleted(res.EndState.String(), res.Rank.String())
	s.logger.Info(ctx, "level finished",
		logger.String("session_id", s.id),
		logger.String("end_state", res.EndState.String()),
		logger.Int("score", res.Score),
		logger.Int("max_score", res.MaxScore),
		logger.String("rank", res.Rank.String()),
		logger.Bool("full_combo", res.FullCombo),
	)

	if s.sink == nil {
		return res, nil
	}
	if err := s.sink.Publish(ctx, s.record(res)); err != nil {
		s.logger.Error(ctx, "publishing result failed", logger.Error(err))
		return res, fmt.Errorf("publish result: %w", err)
	}
	return res, nil
}

func (s *Session) record(res *results.LevelCompletionResult) model.CompletedLevel {
	return model.CompletedLevel{
		ID:            uuid.NewString(),
		SessionID:     s.id,
		LevelID:       s.levelID,
		Score:         res.Score,
		RawScore:      res.RawScore,
		MaxScore:      res.MaxScore,
		MaxCombo:      res.MaxCombo,
		Rank:          res.Rank,
		FullCombo:     res.FullCombo,
		EndState:      res.EndState,
		EndSongTime:   res.EndSongTime,
		GoodCuts:      res.GoodCuts,
		BadCuts:       res.BadCuts,
		MissedNotes:   res.MissedNotes,
		NotGoodBombs:  res.NotGoodBombs,
		NotGoodWalls:  res.NotGoodObstacles,
		AvgCutScore:   res.CutScore.Avg,
		AvgTimeOffset: res.TimeDeviation.Avg,
		PlayedAt:      time.Now().UTC(),
	}
}

// Result returns the completion result once Finish has run.
func (s *Session) Result() *results.LevelCompletionResult { return s.result }

// Score exposes the scoring controller.
func (s *Session) Score() *scoring.Controller { return s.score }

// Spawner exposes the spawn controller, for players that need to see live
// objects.
func (s *Session) Spawner() *spawn.Controller { return s.spawner }

// SongTime returns the time of the last tick.
func (s *Session) SongTime() float64 { return s.songTime }

func (s *Session) refreshStats() {
	st := Stats{
		SessionID:     s.id,
		LevelID:       s.levelID,
		SongTime:      s.songTime,
		Score:         s.score.Score(),
		Combo:         s.score.Combo(),
		MaxCombo:      s.score.MaxCombo(),
		Multiplier:    s.score.EffectiveMultiplier(),
		FeverActive:   s.score.FeverActive(),
		LiveInstances: s.spawner.Live(),
		Outcomes:      len(s.agg.Outcomes()),
		Events:        s.events,
		Finished:      s.finished,
	}
	if s.result != nil {
		st.Score = s.result.Score
	}
	s.mu.Lock()
	s.stats = st
	s.mu.Unlock()
}

// Stats returns the snapshot taken at the end of the last tick.
func (s *Session) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
