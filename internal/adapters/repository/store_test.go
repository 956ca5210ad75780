package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/beatcore/internal/domain/model"
	"github.com/okian/beatcore/internal/domain/types"
)

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func rec(id, level string, score int, minute int) model.CompletedLevel {
	return model.CompletedLevel{
		ID:            id,
		SessionID:     "session-" + id,
		LevelID:       level,
		Score:         score,
		RawScore:      score,
		MaxScore:      1000,
		MaxCombo:      12,
		Rank:          types.RankA,
		FullCombo:     score == 1000,
		EndState:      types.EndCleared,
		EndSongTime:   61.5,
		GoodCuts:      10,
		BadCuts:       1,
		MissedNotes:   1,
		NotGoodBombs:  2,
		NotGoodWalls:  3,
		AvgCutScore:   104.25,
		AvgTimeOffset: -0.0125,
		PlayedAt:      epoch.Add(time.Duration(minute) * time.Minute),
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{
		"treap":  NewTreapStore(),
		"sqlite": sq,
	}
}

func TestStore_SaveAndBest(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Best(ctx, "intro"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound on empty store, got %v", err)
			}

			for _, r := range []model.CompletedLevel{
				rec("a", "intro", 500, 0),
				rec("b", "intro", 900, 1),
				rec("c", "outro", 950, 2),
			} {
				if err := s.Save(ctx, r); err != nil {
					t.Fatalf("save %s: %v", r.ID, err)
				}
			}

			best, err := s.Best(ctx, "intro")
			if err != nil {
				t.Fatalf("best: %v", err)
			}
			if best.ID != "b" || best.Score != 900 {
				t.Errorf("expected b/900, got %s/%d", best.ID, best.Score)
			}
			if n := s.Count(ctx); n != 3 {
				t.Errorf("expected count 3, got %d", n)
			}
		})
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			want := rec("x", "intro", 777, 5)
			if err := s.Save(ctx, want); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := s.Best(ctx, "intro")
			if err != nil {
				t.Fatalf("best: %v", err)
			}
			if !got.PlayedAt.Equal(want.PlayedAt) {
				t.Errorf("played at: want %v, got %v", want.PlayedAt, got.PlayedAt)
			}
			got.PlayedAt = want.PlayedAt
			if got != want {
				t.Errorf("round trip mismatch:\nwant %+v\ngot  %+v", want, got)
			}
		})
	}
}

func TestStore_ListOrderingAndPositions(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			// same score: earlier play ranks first
			for _, r := range []model.CompletedLevel{
				rec("late", "intro", 800, 10),
				rec("early", "intro", 800, 1),
				rec("top", "intro", 990, 5),
				rec("low", "intro", 100, 0),
				rec("other", "outro", 999, 0),
			} {
				if err := s.Save(ctx, r); err != nil {
					t.Fatalf("save: %v", err)
				}
			}

			list, err := s.List(ctx, "intro", 10)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			wantIDs := []string{"top", "early", "late", "low"}
			wantPos := []int{1, 2, 2, 3}
			if len(list) != len(wantIDs) {
				t.Fatalf("expected %d entries, got %d", len(wantIDs), len(list))
			}
			for i, e := range list {
				if e.Record.ID != wantIDs[i] || e.Position != wantPos[i] {
					t.Errorf("entry %d: want %s@%d, got %s@%d", i, wantIDs[i], wantPos[i], e.Record.ID, e.Position)
				}
			}

			top2, err := s.List(ctx, "intro", 2)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(top2) != 2 || top2[1].Record.ID != "early" {
				t.Errorf("unexpected top 2: %+v", top2)
			}

			all, err := s.List(ctx, "", 10)
			if err != nil {
				t.Fatalf("list all: %v", err)
			}
			if len(all) != 5 || all[0].Record.ID != "other" {
				t.Errorf("expected other first across levels, got %+v", all)
			}
		})
	}
}

func TestStore_ReplaceByID(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Save(ctx, rec("a", "intro", 100, 0)); err != nil {
				t.Fatalf("save: %v", err)
			}
			if err := s.Save(ctx, rec("a", "intro", 300, 0)); err != nil {
				t.Fatalf("save: %v", err)
			}
			if n := s.Count(ctx); n != 1 {
				t.Fatalf("expected 1 record after replace, got %d", n)
			}
			list, err := s.List(ctx, "intro", 10)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != 1 || list[0].Record.Score != 300 {
				t.Errorf("expected replaced score 300, got %+v", list)
			}
		})
	}
}

func TestStore_Validation(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Save(ctx, rec("", "intro", 1, 0)); !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("missing id: expected ErrInvalidRecord, got %v", err)
			}
			if err := s.Save(ctx, rec("a", "", 1, 0)); !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("missing level: expected ErrInvalidRecord, got %v", err)
			}
			if _, err := s.List(ctx, "intro", 0); !errors.Is(err, ErrInvalidLimit) {
				t.Errorf("zero limit: expected ErrInvalidLimit, got %v", err)
			}
		})
	}
}

func TestStore_Closed(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
			if err := s.Save(ctx, rec("a", "intro", 1, 0)); !errors.Is(err, ErrClosed) {
				t.Errorf("save after close: expected ErrClosed, got %v", err)
			}
			if _, err := s.List(ctx, "intro", 1); !errors.Is(err, ErrClosed) {
				t.Errorf("list after close: expected ErrClosed, got %v", err)
			}
			if err := s.Close(); err != nil {
				t.Errorf("second close: %v", err)
			}
		})
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.db")

	s, err := OpenSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Save(ctx, rec("kept", "intro", 640, 0)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = OpenSQLiteStore(ctx, path, WithBusyTimeout(time.Second), WithMaxOpenConns(2))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	best, err := s.Best(ctx, "intro")
	if err != nil {
		t.Fatalf("best after reopen: %v", err)
	}
	if best.ID != "kept" || best.Score != 640 {
		t.Errorf("unexpected record after reopen: %+v", best)
	}
}

func TestDecodeRecord_Bad(t *testing.T) {
	for _, doc := range []string{
		`not json`,
		`{"rank":"Z","end_state":"cleared","played_at":"2026-01-02T03:04:05Z"}`,
		`{"rank":"A","end_state":"paused","played_at":"2026-01-02T03:04:05Z"}`,
		`{"rank":"A","end_state":"cleared","played_at":"yesterday"}`,
	} {
		if _, err := decodeRecord([]byte(doc)); !errors.Is(err, errBadDocument) {
			t.Errorf("%s: expected errBadDocument, got %v", doc, err)
		}
	}
}

func TestTreapStore_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	s := NewTreapStore()

	const writers, each = 8, 250
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				r := rec(fmt.Sprintf("%d-%d", w, i), "intro", (w*each+i)%997, i)
				if err := s.Save(ctx, r); err != nil {
					t.Errorf("save: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if n := s.Count(ctx); n != writers*each {
		t.Fatalf("expected %d records, got %d", writers*each, n)
	}
	if got := nsize(s.roots["intro"]); got != writers*each {
		t.Fatalf("level treap size %d, want %d", got, writers*each)
	}
	list, err := s.List(ctx, "intro", writers*each)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i := 1; i < len(list); i++ {
		if list[i].Record.Score > list[i-1].Record.Score {
			t.Fatalf("list out of order at %d: %d > %d", i, list[i].Record.Score, list[i-1].Record.Score)
		}
	}
}
