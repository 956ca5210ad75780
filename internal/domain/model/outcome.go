package model

import "fmt"

// Category buckets the outcome of one beatmap object.
type Category int

const (
	NoteGood Category = iota
	NoteBad
	NoteMissed
	BombOK
	BombNotGood
	ObstacleOK
	ObstacleNotGood
)

var categoryNames = [...]string{
	"note_good", "note_bad", "note_missed",
	"bomb_ok", "bomb_not_good",
	"obstacle_ok", "obstacle_not_good",
}

func (c Category) String() string {
	if c < NoteGood || c > ObstacleNotGood {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Outcome is the final verdict on one object. CutScore and the deviations
// are only meaningful for NoteGood.
type Outcome struct {
	ObjectID        int
	Category        Category
	CutScore        int
	CutDirDeviation float64
	TimeDeviation   float64
}
