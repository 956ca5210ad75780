package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/beatcore/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRank(t *testing.T) {
	Convey("Given the rank ladder", t, func() {
		So(types.RankSSS, ShouldBeGreaterThan, types.RankSS)
		So(types.RankE.String(), ShouldEqual, "E")
		So(types.RankSSS.String(), ShouldEqual, "SSS")
		So(types.Rank(42).String(), ShouldEqual, "Rank(42)")

		Convey("When parsing", func() {
			r, err := types.ParseRank("ss")
			So(err, ShouldBeNil)
			So(r, ShouldEqual, types.RankSS)
			_, err = types.ParseRank("F")
			So(err, ShouldNotBeNil)
		})

		Convey("When encoded as JSON text", func() {
			b, err := json.Marshal(map[string]types.Rank{"rank": types.RankA})
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"rank":"A"}`)

			var back map[string]types.Rank
			So(json.Unmarshal(b, &back), ShouldBeNil)
			So(back["rank"], ShouldEqual, types.RankA)
		})

		Convey("When marshalling an invalid rank", func() {
			_, err := types.Rank(-1).MarshalText()
			So(err, ShouldNotBeNil)
		})
	})
}

func TestLevelEndState(t *testing.T) {
	Convey("Given end states", t, func() {
		So(types.EndFailed.String(), ShouldEqual, "failed")
		s, err := types.ParseLevelEndState("QUIT")
		So(err, ShouldBeNil)
		So(s, ShouldEqual, types.EndQuit)
		_, err = types.ParseLevelEndState("paused")
		So(err, ShouldNotBeNil)

		var back types.LevelEndState
		So(back.UnmarshalText([]byte("cleared")), ShouldBeNil)
		So(back, ShouldEqual, types.EndCleared)
		_, err = types.LevelEndState(9).MarshalText()
		So(err, ShouldNotBeNil)
	})
}
