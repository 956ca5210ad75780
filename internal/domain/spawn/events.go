package spawn

import (
	"github.com/okian/beatcore/internal/domain/beatmap"
	"github.com/okian/beatcore/internal/domain/model"
)

// NoteEvent reports a note or bomb lifecycle step.
type NoteEvent struct {
	Handle   Handle
	Note     *beatmap.NoteData
	SongTime float64
}

// CutEvent reports a cut on a live note or bomb.
type CutEvent struct {
	NoteEvent
	Info model.NoteCutInfo
}

// ObstacleEvent reports an obstacle lifecycle step.
type ObstacleEvent struct {
	Handle   Handle
	Obstacle *beatmap.ObstacleData
	SongTime float64
}
