package api

import (
	"context"
	"net/http"

	service "github.com/okian/paddock/internal/app"
	"github.com/okian/paddock/internal/domain/model"
)

// DashboardDependencies drives the dashboard controller.
type DashboardDependencies interface {
	Dashboard(ctx context.Context) service.DashboardView
	SetFilter(ctx context.Context, f service.Filter) (service.DashboardView, error)
	Refresh(ctx context.Context) int
	SetAutoRefresh(ctx context.Context, enabled bool) service.DashboardView
	Options(ctx context.Context) (drivers, teams []model.SelectableOption)
}

// DashboardHandler serves the dashboard view and its controls.
type DashboardHandler struct {
	deps DashboardDependencies
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps DashboardDependencies) *DashboardHandler {
	return &DashboardHandler{deps: deps}
}

// HandleGetDashboard handles GET /api/dashboard.
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Dashboard(r.Context()))
}

// HandlePostFilter handles POST /api/dashboard/filter. An empty body or
// zero ids clear the filter.
func (h *DashboardHandler) HandlePostFilter(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_filter"
	var f service.Filter
	if r.ContentLength != 0 {
		if err := decodeBody(r, &f); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}
	if f.DriverID < 0 || f.ConstructorID < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	view, err := h.deps.SetFilter(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type refreshResponse struct {
	Status string `json:"status"`
	Queued int    `json:"queued"`
}

// HandlePostRefresh handles POST /api/dashboard/refresh.
func (h *DashboardHandler) HandlePostRefresh(w http.ResponseWriter, r *http.Request) {
	n := h.deps.Refresh(r.Context())
	writeJSON(w, http.StatusAccepted, refreshResponse{Status: "accepted", Queued: n})
}

type autoRefreshRequest struct {
	Enabled *bool `json:"enabled"`
}

// HandlePostAutoRefresh handles POST /api/dashboard/autorefresh.
func (h *DashboardHandler) HandlePostAutoRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_autorefresh"
	var req autoRefreshRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.SetAutoRefresh(r.Context(), *req.Enabled))
}

// HandleGetOptions handles GET /api/options.
func (h *DashboardHandler) HandleGetOptions(w http.ResponseWriter, r *http.Request) {
	drivers, teams := h.deps.Options(r.Context())
	writeJSON(w, http.StatusOK, optionsResponse{Drivers: drivers, Teams: teams})
}
