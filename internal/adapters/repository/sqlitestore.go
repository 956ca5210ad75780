package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/okian/beatcore/internal/domain/model"
	"github.com/okian/beatcore/internal/domain/types"
)

const schema = `
create table if not exists results (
	id         text primary key,
	session_id text not null,
	level_id   text not null,
	score      integer not null,
	rank       text not null,
	full_combo integer not null,
	played_at  integer not null,
	document   text not null
);
create index if not exists results_level_score on results(level_id, score desc, played_at);
`

const (
	defaultBusyTimeout  = 5 * time.Second
	defaultMaxOpenConns = 1
)

// SQLiteStore persists records in a SQLite database file. The columns hold
// what queries order and filter by; the full record is a JSON document.
type SQLiteStore struct {
	db           *sql.DB
	busyTimeout  time.Duration
	maxOpenConns int
	closed       atomic.Bool
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	s := &SQLiteStore{
		busyTimeout:  defaultBusyTimeout,
		maxOpenConns: defaultMaxOpenConns,
	}
	for _, opt := range opts {
		opt(s)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d", path, s.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create results schema: %w", err)
	}
	s.db = db
	return s, nil
}

// Save implements Store.Save.
func (s *SQLiteStore) Save(ctx context.Context, rec model.CompletedLevel) error {
	if err := validate(rec); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}
	doc, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`insert or replace into results(id, session_id, level_id, score, rank, full_combo, played_at, document)
		 values(?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.LevelID, rec.Score, rec.Rank.String(), rec.FullCombo, rec.PlayedAt.UnixNano(), string(doc),
	)
	if err != nil {
		return fmt.Errorf("save result %s: %w", rec.ID, err)
	}
	return nil
}

// Best implements Store.Best.
func (s *SQLiteStore) Best(ctx context.Context, levelID string) (model.CompletedLevel, error) {
	entries, err := s.List(ctx, levelID, 1)
	if err != nil {
		return model.CompletedLevel{}, err
	}
	if len(entries) == 0 {
		return model.CompletedLevel{}, ErrNotFound
	}
	return entries[0].Record, nil
}

// List implements Store.List.
func (s *SQLiteStore) List(ctx context.Context, levelID string, limit int) ([]Entry, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	if s.closed.Load() {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx,
		`select document from results
		 where ? = '' or level_id = ?
		 order by score desc, played_at asc, id asc
		 limit ?`,
		levelID, levelID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		rec, err := decodeRecord([]byte(doc))
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Record: rec})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	assignPositions(out)
	return out, nil
}

// Count returns the number of stored records, or 0 if the store is closed
// or the query fails.
func (s *SQLiteStore) Count(ctx context.Context) int {
	if s.closed.Load() {
		return 0
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `select count(*) from results`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close closes the database. Calling it again does nothing.
func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func encodeRecord(rec model.CompletedLevel) ([]byte, error) {
	fields := []struct {
		path  string
		value any
	}{
		{"id", rec.ID},
		{"session_id", rec.SessionID},
		{"level_id", rec.LevelID},
		{"score", rec.Score},
		{"raw_score", rec.RawScore},
		{"max_score", rec.MaxScore},
		{"max_combo", rec.MaxCombo},
		{"rank", rec.Rank.String()},
		{"full_combo", rec.FullCombo},
		{"end_state", rec.EndState.String()},
		{"end_song_time", rec.EndSongTime},
		{"cuts.good", rec.GoodCuts},
		{"cuts.bad", rec.BadCuts},
		{"cuts.missed", rec.MissedNotes},
		{"cuts.avg_score", rec.AvgCutScore},
		{"cuts.avg_time_offset", rec.AvgTimeOffset},
		{"hits.bombs", rec.NotGoodBombs},
		{"hits.walls", rec.NotGoodWalls},
		{"played_at", rec.PlayedAt.UTC().Format(time.RFC3339Nano)},
	}
	doc := []byte(`{}`)
	for _, f := range fields {
		var err error
		if doc, err = sjson.SetBytes(doc, f.path, f.value); err != nil {
			return nil, fmt.Errorf("encode result %s: %w", f.path, err)
		}
	}
	return doc, nil
}

var errBadDocument = errors.New("bad result document")

func decodeRecord(doc []byte) (model.CompletedLevel, error) {
	if !gjson.ValidBytes(doc) {
		return model.CompletedLevel{}, errBadDocument
	}
	r := gjson.ParseBytes(doc)
	rank, err := types.ParseRank(r.Get("rank").String())
	if err != nil {
		return model.CompletedLevel{}, fmt.Errorf("%w: %w", errBadDocument, err)
	}
	end, err := types.ParseLevelEndState(r.Get("end_state").String())
	if err != nil {
		return model.CompletedLevel{}, fmt.Errorf("%w: %w", errBadDocument, err)
	}
	playedAt, err := time.Parse(time.RFC3339Nano, r.Get("played_at").String())
	if err != nil {
		return model.CompletedLevel{}, fmt.Errorf("%w: %w", errBadDocument, err)
	}
	return model.CompletedLevel{
		ID:            r.Get("id").String(),
		SessionID:     r.Get("session_id").String(),
		LevelID:       r.Get("level_id").String(),
		Score:         int(r.Get("score").Int()),
		RawScore:      int(r.Get("raw_score").Int()),
		MaxScore:      int(r.Get("max_score").Int()),
		MaxCombo:      int(r.Get("max_combo").Int()),
		Rank:          rank,
		FullCombo:     r.Get("full_combo").Bool(),
		EndState:      end,
		EndSongTime:   r.Get("end_song_time").Float(),
		GoodCuts:      int(r.Get("cuts.good").Int()),
		BadCuts:       int(r.Get("cuts.bad").Int()),
		MissedNotes:   int(r.Get("cuts.missed").Int()),
		AvgCutScore:   r.Get("cuts.avg_score").Float(),
		AvgTimeOffset: r.Get("cuts.avg_time_offset").Float(),
		NotGoodBombs:  int(r.Get("hits.bombs").Int()),
		NotGoodWalls:  int(r.Get("hits.walls").Int()),
		PlayedAt:      playedAt,
	}, nil
}
