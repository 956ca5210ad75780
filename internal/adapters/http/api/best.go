package api

import (
	"net/http"
	"strings"
)

// BestHandler handles best-result requests.
type BestHandler struct {
	deps Dependencies
}

// NewBestHandler creates a new best-result handler.
func NewBestHandler(deps Dependencies) *BestHandler {
	return &BestHandler{deps: deps}
}

// HandleGetBest handles GET /best/{level_id} requests.
func (h *BestHandler) HandleGetBest(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_best"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	level := strings.TrimPrefix(r.URL.Path, "/best/")
	if level == "" || strings.Contains(level, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrBadRequest))
		return
	}
	rec, ok, err := h.deps.Best(r.Context(), level)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", wrap(op, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, toResponse(1, rec))
}
