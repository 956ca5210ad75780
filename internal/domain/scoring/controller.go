package scoring

import (
	"context"

	"github.com/okian/beatcore/internal/domain/beatmap"
	"github.com/okian/beatcore/internal/domain/model"
	"github.com/okian/beatcore/pkg/feed"
	"github.com/okian/beatcore/pkg/logger"
)

// MultiplierChange reports the ladder state after a change.
type MultiplierChange struct {
	Multiplier int
	Progress   float64 // in [0,1]
}

// CutFinalized reports the final score of a good cut once its after-cut
// rating has resolved.
type CutFinalized struct {
	ObjectID       int
	CutScore       int
	BeforeCutScore int
	AfterCutScore  int
	Multiplier     int
	Info           model.NoteCutInfo
}

// afterCutBuffer is a good cut whose follow-through is still being rated.
type afterCutBuffer struct {
	objectID   int
	info       model.NoteCutInfo
	before     int
	after      int
	multiplier int // effective multiplier at cut time
}

// Controller owns score, combo, multiplier and fever for one level. It is
// driven from the simulation goroutine only.
type Controller struct {
	ladder    multiplierLadder
	baseScore int
	pending   []*afterCutBuffer
	lastScore int

	combo    int
	maxCombo int

	feverActive    bool
	feverStart     float64
	feverCombo     int
	feverThreshold int
	feverDuration  float64

	log logger.Logger

	ScoreChanged       feed.Feed[int]
	MultiplierChanged  feed.Feed[MultiplierChange]
	ComboChanged       feed.Feed[int]
	FeverChargeChanged feed.Feed[float64]
	FeverStarted       feed.Feed[float64]
	FeverFinished      feed.Feed[float64]
	CutFinalized       feed.Feed[CutFinalized]
}

// NewController creates a controller at multiplier 1 with zero score.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		feverThreshold: DefaultFeverComboThreshold,
		feverDuration:  DefaultFeverDuration,
		log:            logger.NamedOrNop("scoring"),
	}
	c.ladder.reset()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HandleNoteCut applies a cut on a coloured note. Bad cuts lose the
// multiplier; good cuts commit the before-cut score at the effective
// multiplier active before this cut, then advance combo, ladder and fever.
func (c *Controller) HandleNoteCut(songTime float64, note *beatmap.NoteData, info model.NoteCutInfo) {
	if note.Type == beatmap.Bomb {
		c.HandleBombCut(note)
		return
	}
	if !info.AllIsOK() {
		c.loseMultiplier()
		return
	}

	buf := &afterCutBuffer{
		objectID:   note.ID(),
		info:       info,
		before:     BeforeCutScore(info),
		multiplier: c.EffectiveMultiplier(),
	}
	c.baseScore += buf.before * buf.multiplier

	c.combo++
	if c.combo > c.maxCombo {
		c.maxCombo = c.combo
	}
	c.ComboChanged.Publish(c.combo)

	c.feverCombo++
	c.FeverChargeChanged.Publish(c.feverCharge())
	if !c.feverActive && c.feverCombo >= c.feverThreshold {
		c.feverActive = true
		c.feverStart = songTime
		c.FeverStarted.Publish(songTime)
		c.log.Debug(context.Background(), "fever started", logger.Float64("song_time", songTime))
	}

	if c.ladder.increase() {
		c.publishMultiplier()
	}

	if info.AfterCut == nil {
		c.finalize(buf)
		return
	}
	c.pending = append(c.pending, buf)
}

// HandleNoteMissed applies a note that passed the player uncut. Bombs
// passing by are fine.
func (c *Controller) HandleNoteMissed(note *beatmap.NoteData) {
	if note.Type.Colored() {
		c.loseMultiplier()
	}
}

// HandleBombCut applies a bomb hit.
func (c *Controller) HandleBombCut(*beatmap.NoteData) {
	c.loseMultiplier()
}

// HandleObstacleEntered applies the start of an obstacle intersection. The
// caller reports edges only.
func (c *Controller) HandleObstacleEntered() {
	c.loseMultiplier()
}

// Tick expires fever, polls after-cut ratings and broadcasts the score if
// it changed.
func (c *Controller) Tick(songTime float64) {
	if c.feverActive && songTime-c.feverStart > c.feverDuration {
		c.feverActive = false
		c.feverCombo = 0
		c.FeverFinished.Publish(songTime)
		c.FeverChargeChanged.Publish(0)
		c.log.Debug(context.Background(), "fever finished", logger.Float64("song_time", songTime))
	}

	kept := c.pending[:0]
	for _, buf := range c.pending {
		buf.after = AfterCutScore(buf.info.AfterCut.AfterCutRating(), true)
		if buf.info.AfterCut.Finished() {
			c.finalize(buf)
			continue
		}
		kept = append(kept, buf)
	}
	for i := len(kept); i < len(c.pending); i++ {
		c.pending[i] = nil
	}
	c.pending = kept

	c.broadcastScore()
}

// FinishPending commits every pending cut with its current after-cut rating.
// It is called once when the level ends.
func (c *Controller) FinishPending() {
	for _, buf := range c.pending {
		buf.after = AfterCutScore(buf.info.AfterCut.AfterCutRating(), true)
		c.finalize(buf)
	}
	c.pending = nil
	c.broadcastScore()
}

func (c *Controller) finalize(buf *afterCutBuffer) {
	c.baseScore += buf.after * buf.multiplier
	c.CutFinalized.Publish(CutFinalized{
		ObjectID:       buf.objectID,
		CutScore:       buf.before + buf.after,
		BeforeCutScore: buf.before,
		AfterCutScore:  buf.after,
		Multiplier:     buf.multiplier,
		Info:           buf.info,
	})
}

func (c *Controller) loseMultiplier() {
	if c.feverCombo > 0 {
		c.feverCombo = 0
		c.FeverChargeChanged.Publish(0)
	}
	if c.combo > 0 {
		c.combo = 0
		c.ComboChanged.Publish(0)
	}
	if c.ladder.lose() {
		c.publishMultiplier()
	}
}

func (c *Controller) publishMultiplier() {
	c.MultiplierChanged.Publish(MultiplierChange{Multiplier: c.ladder.multiplier, Progress: c.ladder.ratio()})
}

func (c *Controller) broadcastScore() {
	if s := c.Score(); s != c.lastScore {
		c.lastScore = s
		c.ScoreChanged.Publish(s)
	}
}

func (c *Controller) feverCharge() float64 {
	if c.feverCombo >= c.feverThreshold {
		return 1
	}
	return float64(c.feverCombo) / float64(c.feverThreshold)
}

// Score is the committed score plus what pending cuts have earned so far.
func (c *Controller) Score() int {
	s := c.baseScore
	for _, buf := range c.pending {
		s += buf.after * buf.multiplier
	}
	return s
}

// BaseScore is the committed score.
func (c *Controller) BaseScore() int { return c.baseScore }

// Combo is the current streak of good cuts.
func (c *Controller) Combo() int { return c.combo }

// MaxCombo is the longest streak so far.
func (c *Controller) MaxCombo() int { return c.maxCombo }

// Multiplier is the ladder multiplier without fever.
func (c *Controller) Multiplier() int { return c.ladder.multiplier }

// MultiplierProgress is the ladder fill ratio.
func (c *Controller) MultiplierProgress() float64 { return c.ladder.ratio() }

// EffectiveMultiplier includes the fever bonus.
func (c *Controller) EffectiveMultiplier() int {
	if c.feverActive {
		return c.ladder.multiplier * 2
	}
	return c.ladder.multiplier
}

// FeverActive reports whether fever is running.
func (c *Controller) FeverActive() bool { return c.feverActive }

// FeverCombo is the current fever charge count.
func (c *Controller) FeverCombo() int { return c.feverCombo }

// Pending counts cuts still waiting for their after-cut rating.
func (c *Controller) Pending() int { return len(c.pending) }
