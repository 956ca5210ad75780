package scoring_test

import (
	"testing"

	"github.com/okian/beatcore/internal/domain/model"
	scoring "github.com/okian/beatcore/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCutScore(t *testing.T) {
	Convey("Given cut facts", t, func() {
		perfect := model.NoteCutInfo{DirectionOK: true, SpeedOK: true, SaberTypeOK: true, SwingRating: 1}

		Convey("Then a perfect cut scores 110", func() {
			So(scoring.CutScore(perfect, 1, true), ShouldEqual, 110)
			So(scoring.MaxCutScore, ShouldEqual, 110)
		})

		Convey("Then accuracy points fall off linearly to 0.2 from the centre", func() {
			info := perfect
			info.CutDistanceToCenter = 0.1
			So(scoring.BeforeCutScore(info), ShouldEqual, 75)
			info.CutDistanceToCenter = 0.3
			So(scoring.BeforeCutScore(info), ShouldEqual, 70)
		})

		Convey("Then swing ratings are rounded and clamped", func() {
			info := perfect
			info.SwingRating = 0.5
			So(scoring.BeforeCutScore(info), ShouldEqual, 45)
			info.SwingRating = 1.7
			So(scoring.BeforeCutScore(info), ShouldEqual, 80)
			So(scoring.AfterCutScore(0.5, true), ShouldEqual, 15)
			So(scoring.AfterCutScore(-1, true), ShouldEqual, 0)
		})

		Convey("Then a missing after-cut counter scores no follow-through", func() {
			So(scoring.AfterCutScore(1, false), ShouldEqual, 0)
			before, after := scoring.RawScore(perfect)
			So(before, ShouldEqual, 80)
			So(after, ShouldEqual, 0)

			perfect.AfterCut = model.FixedRating(1)
			_, after = scoring.RawScore(perfect)
			So(after, ShouldEqual, 30)
		})
	})
}

// ladderOracle replays the multiplier rules note by note.
func ladderOracle(n int) int {
	score, multiplier, progress := 0, 1, 0
	for i := 0; i < n; i++ {
		score += 110 * multiplier
		if multiplier < 8 {
			progress++
			if progress == multiplier*2 {
				multiplier *= 2
				progress = 0
			}
		}
	}
	return score
}

func TestMaxScoreForNumberOfNotes(t *testing.T) {
	Convey("Given the multiplier ladder", t, func() {
		Convey("Then known values hold", func() {
			So(scoring.MaxScoreForNumberOfNotes(0), ShouldEqual, 0)
			So(scoring.MaxScoreForNumberOfNotes(1), ShouldEqual, 110)
			So(scoring.MaxScoreForNumberOfNotes(2), ShouldEqual, 220)
			So(scoring.MaxScoreForNumberOfNotes(3), ShouldEqual, 440)
			So(scoring.MaxScoreForNumberOfNotes(6), ShouldEqual, 1100)
			So(scoring.MaxScoreForNumberOfNotes(14), ShouldEqual, 4620)
			So(scoring.MaxScoreForNumberOfNotes(30), ShouldEqual, 18700)
		})

		Convey("Then it matches a direct simulation", func() {
			for n := 0; n <= 200; n++ {
				So(scoring.MaxScoreForNumberOfNotes(n), ShouldEqual, ladderOracle(n))
			}
		})
	})
}
