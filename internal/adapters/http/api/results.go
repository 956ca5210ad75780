package api

import (
	"net/http"
	"strconv"
	"strings"
)

const defaultResultsLimit = 10

// ResultsHandler handles result listing requests.
type ResultsHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps Dependencies, maxLimit int) *ResultsHandler {
	if maxLimit < 1 {
		maxLimit = 100
	}
	return &ResultsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetResults handles GET /results?level=ID&limit=N requests. Without
// a level every level is listed; without a limit ten records, or
// the maximum if lower, are returned.
func (h *ResultsHandler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_results"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	n := min(defaultResultsLimit, h.maxLimit)
	if limitStr := q.Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrBadRequest))
			return
		}
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", wrap(op, ErrBadRequest))
		return
	}
	entries, err := h.deps.Results(r.Context(), strings.TrimSpace(q.Get("level")), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
		return
	}
	out := make([]resultResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toResponse(e.Position, e.Record))
	}
	writeJSON(w, http.StatusOK, out)
}
