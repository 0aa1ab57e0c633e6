package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/paddock/pkg/metrics"
)

// ReadinessProbe reports whether the upstream prediction API answers.
type ReadinessProbe interface {
	Ready(ctx context.Context) error
}

// HealthHandler serves metrics and readiness.
type HealthHandler struct {
	probe   ReadinessProbe
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(probe ReadinessProbe) *HealthHandler {
	return &HealthHandler{
		probe:   probe,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleMetrics serves the custom Prometheus registry on /healthz and /metrics.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

type readyResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HandleReady handles GET /readyz by pinging the prediction API.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ready"
	if err := h.probe.Ready(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, readyResponse{
			Status: "unavailable",
			Error:  WrapKind(op, ErrNotReady, err).Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, readyResponse{Status: "ok"})
}
