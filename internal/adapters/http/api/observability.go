package api

import (
	"errors"
	"net/http"

	"github.com/okian/beatcore/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsProvider reports the running service and its attached session.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

var errNoStats = errors.New("no stats provider")

// HealthHandler serves the runtime metrics registry in the Prometheus
// exposition format. A scrapeable registry doubles as the liveness probe.
type HealthHandler struct {
	exposition http.Handler
}

// NewHealthHandler binds the handler to the metrics registry.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		exposition: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	h.exposition.ServeHTTP(w, r)
}

// StatsHandler serves the service statistics as JSON.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a stats handler over provider.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats handles GET /stats.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if h.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", errNoStats)
		return
	}
	writeJSON(w, http.StatusOK, h.provider.GetStats())
}
