package model_test

import (
	"testing"

	model "github.com/okian/beatcore/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNoteCutInfo(t *testing.T) {
	Convey("Given cut facts", t, func() {
		info := model.NoteCutInfo{DirectionOK: true, SpeedOK: true, SaberTypeOK: true}

		Convey("Then a cut is good only if every check passes", func() {
			So(info.AllIsOK(), ShouldBeTrue)
			info.SpeedOK = false
			So(info.AllIsOK(), ShouldBeFalse)
			info.SpeedOK, info.SaberTypeOK = true, false
			So(info.AllIsOK(), ShouldBeFalse)
		})

		Convey("Then a fixed rating is resolved immediately", func() {
			var c model.SwingRatingCounter = model.FixedRating(0.5)
			So(c.Finished(), ShouldBeTrue)
			So(c.AfterCutRating(), ShouldEqual, 0.5)
		})
	})
}

func TestCategory(t *testing.T) {
	Convey("Given outcome categories", t, func() {
		So(model.NoteGood.String(), ShouldEqual, "note_good")
		So(model.ObstacleNotGood.String(), ShouldEqual, "obstacle_not_good")
		So(model.Category(99).String(), ShouldEqual, "Category(99)")
	})
}
