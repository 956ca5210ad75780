package scoring_test

import (
	"testing"

	"github.com/okian/beatcore/internal/domain/beatmap"
	"github.com/okian/beatcore/internal/domain/model"
	scoring "github.com/okian/beatcore/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// swing is an after-cut counter driven by the test.
type swing struct {
	rating float64
	done   bool
}

func (s *swing) AfterCutRating() float64 { return s.rating }
func (s *swing) Finished() bool          { return s.done }

func note(id int) *beatmap.NoteData {
	return beatmap.NewNote(id, float64(id), 0, beatmap.LayerBase, beatmap.NoteA, beatmap.CutDown)
}

func good() model.NoteCutInfo {
	return model.NoteCutInfo{DirectionOK: true, SpeedOK: true, SaberTypeOK: true, SwingRating: 1}
}

func perfect() model.NoteCutInfo {
	info := good()
	info.AfterCut = model.FixedRating(1)
	return info
}

func TestMultiplierLadder(t *testing.T) {
	Convey("Given a fresh controller", t, func() {
		c := scoring.NewController(scoring.WithFeverComboThreshold(1000))
		var changes []scoring.MultiplierChange
		c.MultiplierChanged.Subscribe(func(m scoring.MultiplierChange) { changes = append(changes, m) })

		cut := func(n int) {
			for i := 0; i < n; i++ {
				c.HandleNoteCut(0, note(i), good())
			}
		}

		Convey("Then the multiplier doubles after 2, 6 and 14 good cuts", func() {
			So(c.Multiplier(), ShouldEqual, 1)
			cut(1)
			So(c.Multiplier(), ShouldEqual, 1)
			So(c.MultiplierProgress(), ShouldEqual, 0.5)
			cut(1)
			So(c.Multiplier(), ShouldEqual, 2)
			cut(4)
			So(c.Multiplier(), ShouldEqual, 4)
			cut(7)
			So(c.Multiplier(), ShouldEqual, 4)
			cut(1)
			So(c.Multiplier(), ShouldEqual, 8)
			So(c.MultiplierProgress(), ShouldEqual, 1.0)
			So(changes[len(changes)-1], ShouldResemble, scoring.MultiplierChange{Multiplier: 8, Progress: 1})

			Convey("And stays capped at 8", func() {
				n := len(changes)
				cut(20)
				So(c.Multiplier(), ShouldEqual, 8)
				So(len(changes), ShouldEqual, n)
			})
		})

		Convey("Then a bad cut halves the multiplier and zeroes progress and combo", func() {
			cut(7)
			So(c.Multiplier(), ShouldEqual, 4)
			So(c.Combo(), ShouldEqual, 7)
			bad := good()
			bad.DirectionOK = false
			c.HandleNoteCut(0, note(99), bad)
			So(c.Multiplier(), ShouldEqual, 2)
			So(c.MultiplierProgress(), ShouldEqual, 0.0)
			So(c.Combo(), ShouldEqual, 0)
			So(c.MaxCombo(), ShouldEqual, 7)
		})

		Convey("Then misses of coloured notes lose the multiplier but passing bombs do not", func() {
			cut(2)
			bomb := beatmap.NewNote(50, 1, 0, beatmap.LayerBase, beatmap.Bomb, beatmap.CutAny)
			c.HandleNoteMissed(bomb)
			So(c.Multiplier(), ShouldEqual, 2)
			c.HandleNoteMissed(note(51))
			So(c.Multiplier(), ShouldEqual, 1)
		})

		Convey("Then bomb hits and obstacles lose the multiplier", func() {
			cut(2)
			bomb := beatmap.NewNote(50, 1, 0, beatmap.LayerBase, beatmap.Bomb, beatmap.CutAny)
			c.HandleNoteCut(0, bomb, good())
			So(c.Multiplier(), ShouldEqual, 1)
			So(c.Combo(), ShouldEqual, 0)
			cut(2)
			c.HandleObstacleEntered()
			So(c.Multiplier(), ShouldEqual, 1)
		})
	})
}

func TestScoreCommit(t *testing.T) {
	Convey("Given good cuts without after-cut counters", t, func() {
		c := scoring.NewController()
		var finalized []scoring.CutFinalized
		c.CutFinalized.Subscribe(func(f scoring.CutFinalized) { finalized = append(finalized, f) })
		for i := 0; i < 3; i++ {
			c.HandleNoteCut(0, note(i), good())
		}

		Convey("Then each cut uses the multiplier active before it", func() {
			So(c.BaseScore(), ShouldEqual, 80+80+160)
			So(len(finalized), ShouldEqual, 3)
			So(finalized[2].Multiplier, ShouldEqual, 2)
			So(finalized[2].CutScore, ShouldEqual, 80)
			So(c.Pending(), ShouldEqual, 0)
		})
	})

	Convey("Given a good cut with a running after-cut counter", t, func() {
		c := scoring.NewController()
		var scores []int
		c.ScoreChanged.Subscribe(func(s int) { scores = append(scores, s) })
		var finalized []scoring.CutFinalized
		c.CutFinalized.Subscribe(func(f scoring.CutFinalized) { finalized = append(finalized, f) })

		counter := &swing{rating: 0.2}
		info := good()
		info.AfterCut = counter
		c.HandleNoteCut(0, note(1), info)

		Convey("Then the before-cut part is committed at once", func() {
			So(c.BaseScore(), ShouldEqual, 80)
			So(c.Pending(), ShouldEqual, 1)
			So(scores, ShouldBeEmpty)
		})

		Convey("Then the observable score follows the counter once per tick", func() {
			c.Tick(0.1)
			So(scores, ShouldResemble, []int{86})
			c.Tick(0.2)
			So(scores, ShouldResemble, []int{86})
			counter.rating = 0.9
			c.Tick(0.3)
			So(scores, ShouldResemble, []int{86, 107})
			So(c.BaseScore(), ShouldEqual, 80)

			counter.done = true
			counter.rating = 1
			c.Tick(0.4)
			So(c.Pending(), ShouldEqual, 0)
			So(c.BaseScore(), ShouldEqual, 110)
			So(scores, ShouldResemble, []int{86, 107, 110})
			So(finalized, ShouldHaveLength, 1)
			So(finalized[0].CutScore, ShouldEqual, 110)
		})

		Convey("Then a bad outcome keeps the frozen multiplier of the pending cut", func() {
			c.HandleNoteCut(0, note(2), perfect())
			So(c.Multiplier(), ShouldEqual, 2)
			c.HandleObstacleEntered()
			counter.done, counter.rating = true, 1
			c.Tick(1)
			So(c.Score(), ShouldEqual, 110+110)
		})

		Convey("Then FinishPending commits the current rating", func() {
			counter.rating = 0.5
			c.FinishPending()
			So(c.Pending(), ShouldEqual, 0)
			So(c.BaseScore(), ShouldEqual, 95)
			So(scores, ShouldResemble, []int{95})
			So(finalized[0].AfterCutScore, ShouldEqual, 15)
		})
	})
}

func TestFever(t *testing.T) {
	Convey("Given a controller with a fever threshold of 4", t, func() {
		c := scoring.NewController(scoring.WithFeverComboThreshold(4), scoring.WithFeverDuration(10))
		var started, finished []float64
		c.FeverStarted.Subscribe(func(t float64) { started = append(started, t) })
		c.FeverFinished.Subscribe(func(t float64) { finished = append(finished, t) })
		var charge []float64
		c.FeverChargeChanged.Subscribe(func(v float64) { charge = append(charge, v) })

		for i := 0; i < 4; i++ {
			c.HandleNoteCut(1, note(i), good())
		}

		Convey("Then fever starts at the threshold", func() {
			So(c.FeverActive(), ShouldBeTrue)
			So(started, ShouldResemble, []float64{1})
			So(charge, ShouldResemble, []float64{0.25, 0.5, 0.75, 1})
			So(c.Multiplier(), ShouldEqual, 2)
			So(c.EffectiveMultiplier(), ShouldEqual, 4)
		})

		Convey("Then cuts during fever score double", func() {
			before := c.BaseScore()
			c.HandleNoteCut(2, note(10), good())
			So(c.BaseScore()-before, ShouldEqual, 80*4)
		})

		Convey("Then fever lasts exactly its duration", func() {
			c.Tick(11)
			So(c.FeverActive(), ShouldBeTrue)
			c.Tick(11.01)
			So(c.FeverActive(), ShouldBeFalse)
			So(c.FeverCombo(), ShouldEqual, 0)
			So(finished, ShouldResemble, []float64{11.01})
			So(c.EffectiveMultiplier(), ShouldEqual, 2)
		})

		Convey("Then a bad outcome clears the charge but not the running fever", func() {
			c.HandleObstacleEntered()
			So(c.FeverCombo(), ShouldEqual, 0)
			So(c.FeverActive(), ShouldBeTrue)
			So(charge[len(charge)-1], ShouldEqual, 0)
			c.Tick(5)
			So(c.FeverActive(), ShouldBeTrue)
			c.Tick(12)
			So(c.FeverActive(), ShouldBeFalse)
		})
	})
}
