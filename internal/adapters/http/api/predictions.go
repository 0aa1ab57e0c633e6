package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/paddock/internal/domain/model"
)

// PredictionDependencies serves the one-shot prediction pages.
type PredictionDependencies interface {
	Seasons(ctx context.Context) ([]int, error)
	Championships(ctx context.Context, year int) (model.ChampionshipPredictions, error)
	ChampionshipYears() (years []int, defaultYear int)
	PredictPodium(ctx context.Context, driverID, constructorID, grid int) (model.PodiumResult, error)
	PredictWDC(ctx context.Context, year, driverID int, points float64) (model.WDCResult, error)
}

// PredictionHandler handles championship and custom prediction requests.
type PredictionHandler struct {
	deps PredictionDependencies
}

// NewPredictionHandler creates a new prediction handler.
func NewPredictionHandler(deps PredictionDependencies) *PredictionHandler {
	return &PredictionHandler{deps: deps}
}

// HandleGetSeasons handles GET /api/seasons.
func (h *PredictionHandler) HandleGetSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.deps.Seasons(r.Context())
	if err != nil {
		writeServiceError(w, r, "api.get_seasons", err)
		return
	}
	writeJSON(w, http.StatusOK, seasons)
}

type championshipsResponse struct {
	model.ChampionshipPredictions
	Years []int `json:"years"`
}

// HandleGetChampionships handles GET /api/championships?year=N. Without a
// year the configured default is used.
func (h *PredictionHandler) HandleGetChampionships(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_championships"
	year := 0
	if s := r.URL.Query().Get("year"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		year = n
	}

	p, err := h.deps.Championships(r.Context(), year)
	if err != nil {
		writeServiceError(w, r, op, err)
		return
	}
	years, _ := h.deps.ChampionshipYears()
	writeJSON(w, http.StatusOK, championshipsResponse{ChampionshipPredictions: p, Years: years})
}

// HandlePostPodium handles POST /api/predict/podium.
func (h *PredictionHandler) HandlePostPodium(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_predict_podium"
	var req model.PodiumRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.PredictPodium(r.Context(), req.DriverID, req.ConstructorID, req.Grid)
	if err != nil {
		writeServiceError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandlePostWDC handles POST /api/predict/wdc.
func (h *PredictionHandler) HandlePostWDC(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_predict_wdc"
	var req model.WDCRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.PredictWDC(r.Context(), req.Year, req.DriverID, req.Points)
	if err != nil {
		writeServiceError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
