package model

import (
	"time"

	"github.com/okian/beatcore/internal/domain/types"
)

// CompletedLevel is the persisted summary of a finished level.
type CompletedLevel struct {
	ID        string // unique record id
	SessionID string // session that produced the record
	LevelID   string // level identifier, usually the beatmap file name

	Score       int // final score, after any post-hoc modification
	RawScore    int // score as played
	MaxScore    int
	MaxCombo    int
	Rank        types.Rank
	FullCombo   bool
	EndState    types.LevelEndState
	EndSongTime float64

	GoodCuts      int
	BadCuts       int
	MissedNotes   int
	NotGoodBombs  int
	NotGoodWalls  int
	AvgCutScore   float64
	AvgTimeOffset float64

	PlayedAt time.Time
}
