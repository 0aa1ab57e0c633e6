package service

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/okian/paddock/internal/domain/championship"
	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/pkg/logger"
)

const (
	minGrid = 1
	maxGrid = 20
)

// Predictor is the part of the prediction API the forms call.
type Predictor interface {
	PredictPodium(ctx context.Context, req model.PodiumRequest) (model.PodiumResult, error)
	PredictWDC(ctx context.Context, req model.WDCRequest) (model.WDCResult, error)
	Championships(ctx context.Context, year int) (model.ChampionshipPredictions, error)
	ListSeasons(ctx context.Context) ([]int, error)
}

// Forms validates one-shot prediction requests before forwarding them.
// It holds no state between calls.
type Forms struct {
	api         Predictor
	years       []int
	defaultYear int
	log         logger.Logger
}

// NewForms creates Forms. years lists the selectable championship years
// and defaultYear is used when a request names none.
func NewForms(api Predictor, years []int, defaultYear int, log logger.Logger) *Forms {
	if log == nil {
		log = logger.Get().Named("forms")
	}
	return &Forms{api: api, years: slices.Clone(years), defaultYear: defaultYear, log: log}
}

// Years returns the selectable championship years.
func (f *Forms) Years() []int { return slices.Clone(f.years) }

// DefaultYear returns the year shown when none is chosen.
func (f *Forms) DefaultYear() int { return f.defaultYear }

// PredictPodium asks whether the driver reaches the podium from grid.
func (f *Forms) PredictPodium(ctx context.Context, driverID, constructorID, grid int) (model.PodiumResult, error) {
	if driverID <= 0 || constructorID <= 0 {
		return model.PodiumResult{}, invalid(MsgSelectBoth)
	}
	if grid < minGrid || grid > maxGrid {
		return model.PodiumResult{}, invalid(MsgGridRange)
	}

	res, err := f.api.PredictPodium(ctx, model.PodiumRequest{
		DriverID:      driverID,
		ConstructorID: constructorID,
		Grid:          grid,
	})
	if err != nil {
		f.log.Warn(ctx, "podium prediction failed", logger.Error(err))
		return model.PodiumResult{}, &UserError{Message: MsgFormFailed, Err: err}
	}
	return res, nil
}

// PredictWDC asks whether the driver wins the title with points in year.
func (f *Forms) PredictWDC(ctx context.Context, year, driverID int, points float64) (model.WDCResult, error) {
	switch {
	case driverID <= 0:
		return model.WDCResult{}, invalid(MsgSelectDriver)
	case year <= 0:
		return model.WDCResult{}, invalid(MsgYearRequired)
	case points < 0 || math.IsNaN(points):
		return model.WDCResult{}, invalid(MsgPointsNegative)
	}

	res, err := f.api.PredictWDC(ctx, model.WDCRequest{Year: year, DriverID: driverID, Points: points})
	if err != nil {
		f.log.Warn(ctx, "championship prediction failed", logger.Error(err))
		return model.WDCResult{}, &UserError{Message: MsgFormFailed, Err: err}
	}
	return res, nil
}

// Championships returns the ranked forecasts of year. Zero selects the
// default year; other years must be selectable.
func (f *Forms) Championships(ctx context.Context, year int) (model.ChampionshipPredictions, error) {
	if year == 0 {
		year = f.defaultYear
	}
	if len(f.years) > 0 && !slices.Contains(f.years, year) {
		return model.ChampionshipPredictions{}, invalid(fmt.Sprintf("No predictions available for %d.", year))
	}

	p, err := f.api.Championships(ctx, year)
	if err != nil {
		f.log.Warn(ctx, "championship forecast failed", logger.Int("year", year), logger.Error(err))
		return model.ChampionshipPredictions{}, &UserError{
			Message: fmt.Sprintf("Failed to load %d predictions", year),
			Err:     err,
		}
	}
	p.Year = year
	return championship.NormalizeSeason(p), nil
}

// Seasons returns the known seasons, newest first.
func (f *Forms) Seasons(ctx context.Context) ([]int, error) {
	seasons, err := f.api.ListSeasons(ctx)
	if err != nil {
		return nil, &UserError{Message: "Failed to load seasons", Err: err}
	}
	out := slices.Clone(seasons)
	slices.Sort(out)
	slices.Reverse(out)
	return nonNil(out), nil
}
