// Package results turns the outcome stream of a level into its completion
// summary and rank.
package results

import (
	"math"

	"github.com/okian/beatcore/internal/domain/dedupe"
	"github.com/okian/beatcore/internal/domain/model"
	"github.com/okian/beatcore/internal/domain/scoring"
	"github.com/okian/beatcore/internal/domain/types"
)

// Stat is a running min, max and mean.
type Stat struct {
	Min   float64
	Max   float64
	Avg   float64
	Count int
}

func (s *Stat) add(v float64) {
	if s.Count == 0 {
		s.Min, s.Max = v, v
	} else {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Count++
	s.Avg += (v - s.Avg) / float64(s.Count)
}

// Input carries the level-end values the outcome stream does not.
type Input struct {
	Score       int
	MaxCombo    int
	TotalNotes  int
	EndState    types.LevelEndState
	EndSongTime float64

	LeftHandActivity  []float64
	RightHandActivity []float64
}

// LevelCompletionResult is the end-of-level summary. Only ModifyScore
// changes it after Finish.
type LevelCompletionResult struct {
	Score    int
	RawScore int
	MaxScore int
	Rank     types.Rank

	MaxCombo  int
	FullCombo bool

	GoodCuts         int
	BadCuts          int
	MissedNotes      int
	OKBombs          int
	NotGoodBombs     int
	OKObstacles      int
	NotGoodObstacles int

	CutDirDeviation Stat
	TimeDeviation   Stat
	CutScore        Stat

	EndState    types.LevelEndState
	EndSongTime float64

	LeftHandActivity  []float64
	RightHandActivity []float64

	modified bool
}

// ModifyScore replaces the score once and regrades it.
func (r *LevelCompletionResult) ModifyScore(newScore int) error {
	if r.modified {
		return ErrScoreAlreadyModified
	}
	r.modified = true
	r.Score = newScore
	r.Rank = RankFor(newScore, r.MaxScore)
	return nil
}

// Modified reports whether ModifyScore was applied.
func (r *LevelCompletionResult) Modified() bool { return r.modified }

// NotGood counts bomb hits and obstacle hits.
func (r *LevelCompletionResult) NotGood() int { return r.NotGoodBombs + r.NotGoodObstacles }

// Aggregator collects one outcome per object.
type Aggregator struct {
	seen     dedupe.Deduper[int]
	outcomes []model.Outcome
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{seen: dedupe.New[int](dedupe.WithMaxSize(0))}
}

// Record appends o unless an outcome for the same object was recorded
// already. It reports whether o was kept.
func (a *Aggregator) Record(o model.Outcome) bool {
	if a.seen.SeenAndRecord(o.ObjectID) {
		return false
	}
	a.outcomes = append(a.outcomes, o)
	return true
}

// Outcomes returns the recorded outcomes in arrival order.
func (a *Aggregator) Outcomes() []model.Outcome { return a.outcomes }

// Finish builds the completion result.
func (a *Aggregator) Finish(in Input) *LevelCompletionResult {
	r := &LevelCompletionResult{
		Score:             in.Score,
		RawScore:          in.Score,
		MaxScore:          scoring.MaxScoreForNumberOfNotes(in.TotalNotes),
		MaxCombo:          in.MaxCombo,
		EndState:          in.EndState,
		EndSongTime:       in.EndSongTime,
		LeftHandActivity:  append([]float64(nil), in.LeftHandActivity...),
		RightHandActivity: append([]float64(nil), in.RightHandActivity...),
	}
	for _, o := range a.outcomes {
		switch o.Category {
		case model.NoteGood:
			r.GoodCuts++
			r.CutDirDeviation.add(o.CutDirDeviation)
			r.TimeDeviation.add(o.TimeDeviation)
			r.CutScore.add(float64(o.CutScore))
		case model.NoteBad:
			r.BadCuts++
		case model.NoteMissed:
			r.MissedNotes++
		case model.BombOK:
			r.OKBombs++
		case model.BombNotGood:
			r.NotGoodBombs++
		case model.ObstacleOK:
			r.OKObstacles++
		case model.ObstacleNotGood:
			r.NotGoodObstacles++
		}
	}
	r.FullCombo = r.GoodCuts == in.TotalNotes && r.BadCuts == 0 && r.NotGood() == 0
	r.Rank = RankFor(r.Score, r.MaxScore)
	return r
}
