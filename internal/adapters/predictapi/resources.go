package predictapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/samber/lo"

	"github.com/okian/paddock/internal/domain/model"
)

// Resource names used in FetchError and metrics.
const (
	ResourceDrivers          = "drivers"
	ResourceConstructors     = "constructors"
	ResourceSeasons          = "seasons"
	ResourceDriverAnalytics  = "analytics/drivers"
	ResourceTeamAnalytics    = "analytics/teams"
	ResourcePodiumAnalytics  = "analytics/podiums"
	ResourcePrediction       = "prediction"
	ResourceChampionships    = "championships"
	ResourcePodiumPrediction = "predict/podium"
	ResourceWDCPrediction    = "predict/wdc"
	ResourceHealth           = "health"
)

// Filter scopes an analytics query to one driver or one constructor.
// Zero fields are omitted.
type Filter struct {
	DriverID      int
	ConstructorID int
}

func (f Filter) query() url.Values {
	q := url.Values{}
	if f.DriverID != 0 {
		q.Set("driverId", strconv.Itoa(f.DriverID))
	}
	if f.ConstructorID != 0 {
		q.Set("constructorId", strconv.Itoa(f.ConstructorID))
	}
	return q
}

type driverRef struct {
	DriverID int    `json:"driverId"`
	Name     string `json:"name"`
}

type constructorRef struct {
	ConstructorID int    `json:"constructorId"`
	Name          string `json:"name"`
}

// ListDrivers returns the driver chooser options.
func (c *Client) ListDrivers(ctx context.Context) ([]model.SelectableOption, error) {
	var refs []driverRef
	if err := c.get(ctx, ResourceDrivers, "/drivers", nil, &refs); err != nil {
		return nil, err
	}
	return lo.Map(refs, func(r driverRef, _ int) model.SelectableOption {
		return model.SelectableOption{Value: r.DriverID, Label: r.Name}
	}), nil
}

// ListConstructors returns the team chooser options.
func (c *Client) ListConstructors(ctx context.Context) ([]model.SelectableOption, error) {
	var refs []constructorRef
	if err := c.get(ctx, ResourceConstructors, "/constructors", nil, &refs); err != nil {
		return nil, err
	}
	return lo.Map(refs, func(r constructorRef, _ int) model.SelectableOption {
		return model.SelectableOption{Value: r.ConstructorID, Label: r.Name}
	}), nil
}

// ListSeasons returns the seasons known to the API, newest first.
func (c *Client) ListSeasons(ctx context.Context) ([]int, error) {
	var years []int
	if err := c.get(ctx, ResourceSeasons, "/seasons", nil, &years); err != nil {
		return nil, err
	}
	return years, nil
}

// DriverAnalytics returns per-season driver points.
func (c *Client) DriverAnalytics(ctx context.Context, f Filter) ([]model.DriverRow, error) {
	var rows []model.DriverRow
	if err := c.get(ctx, ResourceDriverAnalytics, "/analytics/drivers", f.query(), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// TeamAnalytics returns per-season constructor points.
func (c *Client) TeamAnalytics(ctx context.Context, f Filter) ([]model.TeamRow, error) {
	var rows []model.TeamRow
	if err := c.get(ctx, ResourceTeamAnalytics, "/analytics/teams", f.query(), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// PodiumAnalytics returns per-season driver podium counts.
func (c *Client) PodiumAnalytics(ctx context.Context, f Filter) ([]model.PodiumRow, error) {
	var rows []model.PodiumRow
	if err := c.get(ctx, ResourcePodiumAnalytics, "/analytics/podiums", f.query(), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Prediction forecasts one driver or constructor for targetYear.
func (c *Client) Prediction(ctx context.Context, kind model.PredictionKind, id, targetYear int) (*model.PredictionData, error) {
	if kind != model.PredictionDriver && kind != model.PredictionConstructor {
		return nil, &FetchError{Resource: ResourcePrediction, Err: fmt.Errorf("unknown prediction kind %q", kind)}
	}
	path := fmt.Sprintf("/predict/%s/%d/%d", kind, id, targetYear)
	var out model.PredictionData
	if err := c.get(ctx, ResourcePrediction, path, nil, &out); err != nil {
		return nil, err
	}
	out.Normalize()
	return &out, nil
}

// Championships returns both championship forecasts for year as sent by the API.
func (c *Client) Championships(ctx context.Context, year int) (model.ChampionshipPredictions, error) {
	var out model.ChampionshipPredictions
	if err := c.get(ctx, ResourceChampionships, fmt.Sprintf("/predict/%d/championships", year), nil, &out); err != nil {
		return model.ChampionshipPredictions{}, err
	}
	out.Year = year
	return out, nil
}

// PredictPodium submits a custom podium prediction.
func (c *Client) PredictPodium(ctx context.Context, req model.PodiumRequest) (model.PodiumResult, error) {
	var out model.PodiumResult
	if err := c.post(ctx, ResourcePodiumPrediction, "/predict/podium", req, &out); err != nil {
		return model.PodiumResult{}, err
	}
	out.Normalize()
	return out, nil
}

// PredictWDC submits a custom drivers' championship prediction.
func (c *Client) PredictWDC(ctx context.Context, req model.WDCRequest) (model.WDCResult, error) {
	var out model.WDCResult
	if err := c.post(ctx, ResourceWDCPrediction, "/predict/wdc", req, &out); err != nil {
		return model.WDCResult{}, err
	}
	out.Normalize()
	return out, nil
}

// Health checks that the API answers on /health.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, ResourceHealth, "/health", nil, nil)
}
