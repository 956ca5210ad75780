// Package autoplay is a deterministic synthetic player. It cuts every note
// when the note reaches the player and stands still in a head box that
// obstacles may pass through.
package autoplay

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/okian/beatcore/internal/domain/beatmap"
	"github.com/okian/beatcore/internal/domain/model"
	"github.com/okian/beatcore/internal/domain/spawn"
)

const (
	// DefaultSeed keeps runs reproducible unless overridden.
	DefaultSeed = 42

	badCutMinDeviation = 45.0
	badCutMaxDeviation = 90.0
)

// Cutter accepts cuts, usually a level session.
type Cutter interface {
	Cut(h spawn.Handle, info model.NoteCutInfo) bool
}

// Player decides what to cut each tick.
type Player struct {
	accuracy float64
	seed     int64
	dodge    bool
	head     mgl32.Vec3
	headHalf mgl32.Vec3

	rng   *rand.Rand
	good  int
	bad   int
	left  int
	right int
}

// New returns a perfect player unless options say otherwise.
func New(opts ...Option) *Player {
	p := &Player{
		accuracy: 1,
		seed:     DefaultSeed,
		head:     mgl32.Vec3{0, 1.7, 0},
		headHalf: mgl32.Vec3{0.12, 0.12, 0.12},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.rng = rand.New(rand.NewSource(p.seed))
	return p
}

// Step cuts every coloured note whose time has come. Bombs are left alone.
// It returns how many cuts were accepted.
func (p *Player) Step(songTime float64, notes []spawn.NoteState, c Cutter) int {
	n := 0
	for _, ns := range notes {
		note := ns.Note
		if ns.Dissolving || !note.Type.Colored() || note.Time() > songTime {
			continue
		}
		good := p.rng.Float64() < p.accuracy
		if !c.Cut(ns.Handle, p.cutInfo(note, songTime, good)) {
			continue
		}
		n++
		if good {
			p.good++
		} else {
			p.bad++
		}
		if note.Type == beatmap.NoteA {
			p.left++
		} else {
			p.right++
		}
	}
	return n
}

func (p *Player) cutInfo(note *beatmap.NoteData, songTime float64, good bool) model.NoteCutInfo {
	info := model.NoteCutInfo{
		DirectionOK:   true,
		SpeedOK:       true,
		SaberTypeOK:   true,
		SwingRating:   1,
		TimeDeviation: songTime - note.Time(),
		SaberSpeed:    3,
		AfterCut:      model.FixedRating(1),
	}
	if !good {
		info.DirectionOK = false
		info.CutDirDeviation = badCutMinDeviation + p.rng.Float64()*(badCutMaxDeviation-badCutMinDeviation)
		info.AfterCut = nil
	}
	return info
}

// IntersectsObstacle reports whether the head box overlaps o. A dodging
// player never does.
func (p *Player) IntersectsObstacle(o spawn.ObstacleState) bool {
	if p.dodge {
		return false
	}
	lo := p.head.Sub(p.headHalf)
	hi := p.head.Add(p.headHalf)
	for i := 0; i < 3; i++ {
		if hi[i] < o.Min[i] || lo[i] > o.Max[i] {
			return false
		}
	}
	return true
}

// Good returns how many good cuts were made.
func (p *Player) Good() int { return p.good }

// Bad returns how many bad cuts were made.
func (p *Player) Bad() int { return p.bad }

// Activity returns the cut counts of the left (NoteA) and right (NoteB)
// hands.
func (p *Player) Activity() (left, right []float64) {
	return []float64{float64(p.left)}, []float64{float64(p.right)}
}
