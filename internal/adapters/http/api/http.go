// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/paddock/internal/app"
	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	DashboardDependencies
	PredictionDependencies
	ChatDependencies
	ReadinessProbe
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	dashboardHandler  *DashboardHandler
	predictionHandler *PredictionHandler
	chatHandler       *ChatHandler

	corsOrigins []string
	logger      logger.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithCORSOrigins sets the origins allowed to call the API.
func WithCORSOrigins(origins []string) ServerOption {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:     NewHealthHandler(deps),
		statsHandler:      NewStatsHandler(statsProvider),
		dashboardHandler:  NewDashboardHandler(deps),
		predictionHandler: NewPredictionHandler(deps),
		chatHandler:       NewChatHandler(deps),
		corsOrigins:       []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("http")
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}

	route("GET /healthz", "healthz", s.healthHandler.HandleMetrics)
	route("GET /metrics", "metrics", s.healthHandler.HandleMetrics)
	route("GET /readyz", "readyz", s.healthHandler.HandleReady)
	route("GET /stats", "stats", s.statsHandler.HandleStats)

	route("GET /api/dashboard", "dashboard", s.dashboardHandler.HandleGetDashboard)
	route("POST /api/dashboard/filter", "dashboard_filter", s.dashboardHandler.HandlePostFilter)
	route("POST /api/dashboard/refresh", "dashboard_refresh", s.dashboardHandler.HandlePostRefresh)
	route("POST /api/dashboard/autorefresh", "dashboard_autorefresh", s.dashboardHandler.HandlePostAutoRefresh)
	route("GET /api/options", "options", s.dashboardHandler.HandleGetOptions)
	route("GET /api/seasons", "seasons", s.predictionHandler.HandleGetSeasons)

	route("GET /api/championships", "championships", s.predictionHandler.HandleGetChampionships)
	route("POST /api/predict/podium", "predict_podium", s.predictionHandler.HandlePostPodium)
	route("POST /api/predict/wdc", "predict_wdc", s.predictionHandler.HandlePostWDC)

	route("POST /api/chat", "chat", s.chatHandler.HandlePostChat)
}

// Handler wraps next with CORS, request ids and dashboard sessions.
func (s *Server) Handler(next http.Handler) http.Handler {
	return CORSMiddleware(s.corsOrigins)(RequestIDMiddleware(s.logger)(SessionMiddleware(next)))
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

// writeServiceError maps service errors to responses. Validation and
// upstream failures carry their user-facing text; anything else is a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		verr *service.ValidationError
		uerr *service.UserError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "invalid_request", Message: verr.Message})
	case errors.As(err, &uerr):
		logger.Get().Named("http").Warn(r.Context(), "upstream call failed",
			logger.String("op", op),
			logger.String("request_id", RequestIDFromContext(r.Context())),
			logger.Error(uerr.Err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Code: "upstream_error", Message: uerr.Message})
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// decodeBody reads a JSON body into v.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

// optionsResponse lists the dashboard choosers.
type optionsResponse struct {
	Drivers []model.SelectableOption `json:"drivers"`
	Teams   []model.SelectableOption `json:"teams"`
}
