package service_test

import (
	"context"
	"errors"
	"testing"

	service "github.com/okian/beatcore/internal/app"
	"github.com/okian/beatcore/internal/autoplay"
	"github.com/okian/beatcore/internal/domain/beatmap"
	"github.com/okian/beatcore/internal/domain/model"
	"github.com/okian/beatcore/internal/domain/scoring"
	"github.com/okian/beatcore/internal/domain/spawn"
	"github.com/okian/beatcore/internal/domain/types"
	"github.com/okian/beatcore/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

const tickRate = 100

type recordingSink struct {
	records []model.CompletedLevel
	err     error
}

func (s *recordingSink) Publish(_ context.Context, rec model.CompletedLevel) error {
	s.records = append(s.records, rec)
	return s.err
}

// play ticks sess from `from` to `to` seconds at tickRate, letting player
// cut after every tick. A nil player cuts nothing.
func play(sess *service.Session, p *autoplay.Player, from, to float64) {
	ctx := context.Background()
	for i := int(from * tickRate); i <= int(to*tickRate); i++ {
		t := float64(i) / tickRate
		So(sess.Tick(ctx, t), ShouldBeNil)
		if p != nil {
			p.Step(t, sess.Spawner().ActiveNotes(), sess)
		}
	}
}

// level builds a 60 bpm, four-lane level: one beat is one second.
func level(objects ...beatmap.Object) *beatmap.Data {
	return beatmap.NewData(4, 60, objects, nil)
}

func TestSessionPerfectPlay(t *testing.T) {
	Convey("Given three notes and a perfect player", t, func() {
		ctx := context.Background()
		data := level(
			beatmap.NewNote(0, 1.0, 0, beatmap.LayerBase, beatmap.NoteA, beatmap.CutDown),
			beatmap.NewNote(1, 1.5, 3, beatmap.LayerBase, beatmap.NoteB, beatmap.CutDown),
			beatmap.NewNote(2, 2.0, 1, beatmap.LayerUpper, beatmap.NoteA, beatmap.CutUp),
		)
		sink := &recordingSink{}
		sess := service.New(data, service.WithSink(sink), service.WithLevelID("intro"))
		So(sess.Start(ctx), ShouldBeNil)

		var scores []int
		sess.Score().ScoreChanged.Subscribe(func(s int) { scores = append(scores, s) })

		play(sess, autoplay.New(), -3, 4)
		res, err := sess.Finish(ctx, service.FinishInput{EndState: types.EndCleared})

		Convey("Then the result is a full combo at the maximum score", func() {
			So(err, ShouldBeNil)
			So(res.GoodCuts, ShouldEqual, 3)
			So(res.Score, ShouldEqual, 440)
			So(res.MaxScore, ShouldEqual, scoring.MaxScoreForNumberOfNotes(3))
			So(res.Rank, ShouldEqual, types.RankSSS)
			So(res.FullCombo, ShouldBeTrue)
			So(res.MaxCombo, ShouldEqual, 3)
			So(res.CutScore.Avg, ShouldEqual, 110.0)
		})

		Convey("Then the score was broadcast as cuts resolved", func() {
			So(scores, ShouldNotBeEmpty)
			So(scores[len(scores)-1], ShouldEqual, 440)
		})

		Convey("Then one record reaches the sink", func() {
			So(sink.records, ShouldHaveLength, 1)
			rec := sink.records[0]
			So(rec.ID, ShouldNotBeEmpty)
			So(rec.SessionID, ShouldEqual, sess.ID())
			So(rec.LevelID, ShouldEqual, "intro")
			So(rec.Score, ShouldEqual, 440)
			So(rec.Rank, ShouldEqual, types.RankSSS)
			So(rec.FullCombo, ShouldBeTrue)
			So(rec.AvgCutScore, ShouldEqual, 110.0)
		})

		Convey("Then finishing again fails", func() {
			_, err := sess.Finish(ctx, service.FinishInput{EndState: types.EndCleared})
			So(errors.Is(err, service.ErrAlreadyFinished), ShouldBeTrue)
		})

		Convey("Then the stats snapshot reflects the end", func() {
			st := sess.Stats()
			So(st.Finished, ShouldBeTrue)
			So(st.Score, ShouldEqual, 440)
			So(st.Outcomes, ShouldEqual, 3)
			So(st.LevelID, ShouldEqual, "intro")
		})
	})
}

func TestSessionMisses(t *testing.T) {
	Convey("Given notes and a bomb that nobody cuts", t, func() {
		ctx := context.Background()
		data := level(
			beatmap.NewNote(0, 1.0, 0, beatmap.LayerBase, beatmap.NoteA, beatmap.CutDown),
			beatmap.NewNote(1, 1.5, 1, beatmap.LayerBase, beatmap.Bomb, beatmap.CutNone),
			beatmap.NewNote(2, 2.0, 2, beatmap.LayerBase, beatmap.NoteB, beatmap.CutDown),
		)
		sess := service.New(data)
		So(sess.Start(ctx), ShouldBeNil)
		play(sess, nil, -3, 5)
		res, err := sess.Finish(ctx, service.FinishInput{EndState: types.EndCleared})

		Convey("Then notes count as missed and the bomb as avoided", func() {
			So(err, ShouldBeNil)
			So(res.MissedNotes, ShouldEqual, 2)
			So(res.OKBombs, ShouldEqual, 1)
			So(res.Score, ShouldEqual, 0)
			So(res.Rank, ShouldEqual, types.RankE)
			So(res.FullCombo, ShouldBeFalse)
		})
	})
}

func TestSessionBadCutsAndBombs(t *testing.T) {
	Convey("Given a note and a bomb", t, func() {
		ctx := context.Background()
		data := level(
			beatmap.NewNote(0, 1.0, 0, beatmap.LayerBase, beatmap.NoteA, beatmap.CutDown),
			beatmap.NewNote(1, 1.0, 3, beatmap.LayerBase, beatmap.Bomb, beatmap.CutNone),
		)
		sess := service.New(data)
		So(sess.Start(ctx), ShouldBeNil)
		play(sess, nil, -3, 1)

		Convey("When the note is cut badly and the bomb is hit", func() {
			for _, ns := range sess.Spawner().ActiveNotes() {
				So(sess.Cut(ns.Handle, model.NoteCutInfo{SpeedOK: true, SaberTypeOK: true}), ShouldBeTrue)
			}
			play(sess, nil, 1.01, 4)
			res, err := sess.Finish(ctx, service.FinishInput{EndState: types.EndFailed})

			Convey("Then both are recorded as bad outcomes", func() {
				So(err, ShouldBeNil)
				So(res.BadCuts, ShouldEqual, 1)
				So(res.NotGoodBombs, ShouldEqual, 1)
				So(res.MissedNotes, ShouldEqual, 0)
				So(res.EndState, ShouldEqual, types.EndFailed)
				So(res.Score, ShouldEqual, 0)
			})
		})
	})
}

type recordingGeometry struct {
	player *autoplay.Player
	calls  int
}

func (g *recordingGeometry) IntersectsObstacle(o spawn.ObstacleState) bool {
	hit := g.player.IntersectsObstacle(o)
	if hit {
		g.calls++
	}
	return hit
}

func TestSessionObstacleEdge(t *testing.T) {
	Convey("Given six good cuts followed by a wall through the player", t, func() {
		ctx := context.Background()
		objects := []beatmap.Object{
			beatmap.NewObstacle(0, 5, 0, beatmap.ObstacleFullHeight, 1, 2),
		}
		for i := 0; i < 6; i++ {
			objects = append(objects, beatmap.NewNote(i+1, 0.5*float64(i+1), 2+i%2, beatmap.LayerBase, beatmap.NoteA+beatmap.NoteType(i%2), beatmap.CutDown))
		}
		player := autoplay.New()
		geo := &recordingGeometry{player: player}
		sess := service.New(level(objects...), service.WithGeometry(geo))
		So(sess.Start(ctx), ShouldBeNil)

		var multipliers []int
		sess.Score().MultiplierChanged.Subscribe(func(m scoring.MultiplierChange) { multipliers = append(multipliers, m.Multiplier) })

		play(sess, player, -3, 4)
		So(sess.Score().Multiplier(), ShouldEqual, 4)
		play(sess, player, 4.01, 8)

		Convey("Then the intersection lasts many ticks but costs the multiplier once", func() {
			So(geo.calls, ShouldBeGreaterThan, 10)
			So(sess.Score().Multiplier(), ShouldEqual, 2)
			So(multipliers[len(multipliers)-1], ShouldEqual, 2)
		})

		Convey("Then the wall is recorded as hit", func() {
			res, err := sess.Finish(ctx, service.FinishInput{EndState: types.EndCleared})
			So(err, ShouldBeNil)
			So(res.NotGoodObstacles, ShouldEqual, 1)
			So(res.GoodCuts, ShouldEqual, 6)
			So(res.MaxCombo, ShouldEqual, 6)
			So(res.FullCombo, ShouldBeFalse)
		})
	})

	Convey("Given the same wall and a dodging player", t, func() {
		ctx := context.Background()
		sess := service.New(level(beatmap.NewObstacle(0, 5, 0, beatmap.ObstacleFullHeight, 1, 2)),
			service.WithGeometry(autoplay.New(autoplay.WithDodge(true))))
		So(sess.Start(ctx), ShouldBeNil)
		play(sess, nil, -3, 8)
		res, err := sess.Finish(ctx, service.FinishInput{EndState: types.EndCleared})

		Convey("Then the wall is avoided", func() {
			So(err, ShouldBeNil)
			So(res.OKObstacles, ShouldEqual, 1)
			So(res.NotGoodObstacles, ShouldEqual, 0)
		})
	})
}

func TestSessionQuitAndDissolve(t *testing.T) {
	Convey("Given a session quit while notes are in flight", t, func() {
		ctx := context.Background()
		data := level(
			beatmap.NewNote(0, 3.0, 0, beatmap.LayerBase, beatmap.NoteA, beatmap.CutDown),
			beatmap.NewNote(1, 3.5, 1, beatmap.LayerBase, beatmap.NoteB, beatmap.CutDown),
			beatmap.NewNote(2, 9.0, 2, beatmap.LayerBase, beatmap.NoteB, beatmap.CutDown),
		)
		sess := service.New(data)
		So(sess.Start(ctx), ShouldBeNil)
		play(sess, nil, 0, 2)
		So(sess.Spawner().Live(), ShouldEqual, 2)

		penalty := 0
		res, err := sess.Finish(ctx, service.FinishInput{EndState: types.EndQuit, ModifiedScore: &penalty})
		So(err, ShouldBeNil)

		Convey("Then no more outcomes or spawns happen and the dissolve completes", func() {
			play(sess, nil, 2.01, 10)
			So(sess.Spawner().Live(), ShouldEqual, 0)
			So(sess.Stats().Outcomes, ShouldEqual, 0)
			So(res.EndState, ShouldEqual, types.EndQuit)
			So(res.EndSongTime, ShouldEqual, 2.0)
			So(res.Modified(), ShouldBeTrue)
			So(res.FullCombo, ShouldBeFalse)
		})

		Convey("Then cuts are refused", func() {
			for _, ns := range sess.Spawner().ActiveNotes() {
				So(sess.Cut(ns.Handle, model.NoteCutInfo{DirectionOK: true, SpeedOK: true, SaberTypeOK: true}), ShouldBeFalse)
			}
		})
	})
}

func TestSessionLifecycleErrors(t *testing.T) {
	Convey("Given a session that was not started", t, func() {
		ctx := context.Background()
		sess := service.New(level())

		Convey("Then Tick and Finish fail and Cut is refused", func() {
			So(errors.Is(sess.Tick(ctx, 0), service.ErrNotStarted), ShouldBeTrue)
			_, err := sess.Finish(ctx, service.FinishInput{})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(sess.Cut(1, model.NoteCutInfo{}), ShouldBeFalse)
		})
	})

	Convey("Given a session without a beatmap", t, func() {
		err := service.New(nil).Start(context.Background())

		Convey("Then Start fails", func() {
			So(errors.Is(err, beatmap.ErrMalformedBeatmap), ShouldBeTrue)
		})
	})

	Convey("Given an empty level", t, func() {
		ctx := context.Background()
		sink := &recordingSink{err: errors.New("queue full")}
		sess := service.New(level(), service.WithSink(sink))
		So(sess.Start(ctx), ShouldBeNil)
		So(sess.Start(ctx), ShouldBeNil)
		res, err := sess.Finish(ctx, service.FinishInput{EndState: types.EndCleared})

		Convey("Then it ranks SSS and a sink failure is reported with the result", func() {
			So(err, ShouldNotBeNil)
			So(res, ShouldNotBeNil)
			So(res.Rank, ShouldEqual, types.RankSSS)
			So(res.FullCombo, ShouldBeTrue)
		})

		Convey("Then every spawn kind is exposed as a metric series", func() {
			families, err := metrics.GetRegistry().Gather()
			So(err, ShouldBeNil)
			kinds := map[string]bool{}
			for _, f := range families {
				if f.GetName() != "beatcore_runtime_spawns_total" {
					continue
				}
				for _, m := range f.GetMetric() {
					for _, lp := range m.GetLabel() {
						kinds[lp.GetValue()] = true
					}
				}
			}
			for _, k := range spawn.Kinds {
				So(kinds, ShouldContainKey, k.String())
			}
		})
	})
}

func TestSessionOptions(t *testing.T) {
	Convey("Given a session with fever tuned down and a slower jump", t, func() {
		ctx := context.Background()
		var objects []beatmap.Object
		for i := 0; i < 4; i++ {
			objects = append(objects, beatmap.NewNote(i, 1+0.5*float64(i), i, beatmap.LayerBase, beatmap.NoteA, beatmap.CutDown))
		}
		pool := spawn.NewArena()
		sess := service.New(level(objects...),
			service.WithPool(pool),
			service.WithNoteJumpSpeed(5),
			service.WithScoringOptions(scoring.WithFeverComboThreshold(4)),
		)
		So(sess.Start(ctx), ShouldBeNil)

		fevers := 0
		sess.Score().FeverStarted.Subscribe(func(float64) { fevers++ })
		play(sess, autoplay.New(), -3, 4)

		Convey("Then the options reach the components", func() {
			So(fevers, ShouldEqual, 1)
			So(sess.Spawner().Kinematics().NoteJumpSpeed, ShouldEqual, 5.0)
			So(pool.Capacity(), ShouldBeGreaterThan, 0)
		})
	})
}
