// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/beatcore/internal/adapters/repository"
	"github.com/okian/beatcore/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Results lists up to limit records of a level, best first. An empty
	// level lists every level.
	Results(ctx context.Context, levelID string, limit int) ([]repository.Entry, error)

	// Best returns the top record of a level, or false if it has none.
	Best(ctx context.Context, levelID string) (model.CompletedLevel, bool, error)
}

// Server wires HTTP routes for the results API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	resultsHandler *ResultsHandler
	bestHandler    *BestHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps the
// limit accepted by /results.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		resultsHandler: NewResultsHandler(deps, maxLimit),
		bestHandler:    NewBestHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/results", MetricsMiddleware(s.resultsHandler.HandleGetResults, "results"))
	mux.HandleFunc("/best/", MetricsMiddleware(s.bestHandler.HandleGetBest, "best"))
}

// resultResponse is the wire shape of a stored completed level.
type resultResponse struct {
	Position      int     `json:"position,omitempty"`
	ID            string  `json:"id"`
	SessionID     string  `json:"session_id"`
	LevelID       string  `json:"level_id"`
	Score         int     `json:"score"`
	RawScore      int     `json:"raw_score"`
	MaxScore      int     `json:"max_score"`
	MaxCombo      int     `json:"max_combo"`
	Rank          string  `json:"rank"`
	FullCombo     bool    `json:"full_combo"`
	EndState      string  `json:"end_state"`
	GoodCuts      int     `json:"good_cuts"`
	BadCuts       int     `json:"bad_cuts"`
	MissedNotes   int     `json:"missed_notes"`
	NotGoodBombs  int     `json:"bombs_hit"`
	NotGoodWalls  int     `json:"walls_hit"`
	AvgCutScore   float64 `json:"avg_cut_score"`
	AvgTimeOffset float64 `json:"avg_time_offset"`
	PlayedAt      string  `json:"played_at"`
}

func toResponse(pos int, rec model.CompletedLevel) resultResponse { //nolint:gocritic // hugeParam: record is read once
	return resultResponse{
		Position:      pos,
		ID:            rec.ID,
		SessionID:     rec.SessionID,
		LevelID:       rec.LevelID,
		Score:         rec.Score,
		RawScore:      rec.RawScore,
		MaxScore:      rec.MaxScore,
		MaxCombo:      rec.MaxCombo,
		Rank:          rec.Rank.String(),
		FullCombo:     rec.FullCombo,
		EndState:      rec.EndState.String(),
		GoodCuts:      rec.GoodCuts,
		BadCuts:       rec.BadCuts,
		MissedNotes:   rec.MissedNotes,
		NotGoodBombs:  rec.NotGoodBombs,
		NotGoodWalls:  rec.NotGoodWalls,
		AvgCutScore:   rec.AvgCutScore,
		AvgTimeOffset: rec.AvgTimeOffset,
		PlayedAt:      rec.PlayedAt.UTC().Format(time.RFC3339Nano),
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
