package service_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/samber/lo"

	"github.com/okian/paddock/internal/adapters/predictapi"
	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

var errBoom = errors.New("boom")

// fakeAPI serves canned rows keyed by filter id; id 0 is the unfiltered set.
type fakeAPI struct {
	mu sync.Mutex

	drivers []model.SelectableOption
	teams   []model.SelectableOption
	seasons []int

	driverRows map[int][]model.DriverRow
	teamRows   map[int][]model.TeamRow
	podiumRows map[int][]model.PodiumRow
	prediction map[int]*model.PredictionData

	// hold, when set before the service starts, parks ListDrivers until it
	// is closed or the call is cancelled.
	hold chan struct{}

	failReference  bool
	failPodiums    bool
	failPrediction bool
	failForms      bool

	champs model.ChampionshipPredictions

	calls       []string
	lastPodium  model.PodiumRequest
	lastWDC     model.WDCRequest
	lastPredict [3]any
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		drivers:    []model.SelectableOption{{Value: 1, Label: "Lewis Hamilton"}, {Value: 2, Label: "Max Verstappen"}},
		teams:      []model.SelectableOption{{Value: 9, Label: "Red Bull"}},
		seasons:    []int{2022, 2024, 2023},
		driverRows: map[int][]model.DriverRow{},
		teamRows:   map[int][]model.TeamRow{},
		podiumRows: map[int][]model.PodiumRow{},
		prediction: map[int]*model.PredictionData{},
	}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) ListDrivers(ctx context.Context) ([]model.SelectableOption, error) {
	f.record("drivers")
	if f.hold != nil {
		select {
		case <-f.hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failReference {
		return nil, errBoom
	}
	return f.drivers, nil
}

func (f *fakeAPI) ListConstructors(context.Context) ([]model.SelectableOption, error) {
	f.record("constructors")
	return f.teams, nil
}

func (f *fakeAPI) ListSeasons(context.Context) ([]int, error) {
	f.record("seasons")
	return f.seasons, nil
}

func (f *fakeAPI) DriverAnalytics(_ context.Context, flt predictapi.Filter) ([]model.DriverRow, error) {
	f.record("analytics/drivers")
	return f.driverRows[flt.DriverID], nil
}

func (f *fakeAPI) TeamAnalytics(_ context.Context, flt predictapi.Filter) ([]model.TeamRow, error) {
	f.record("analytics/teams")
	return f.teamRows[flt.ConstructorID], nil
}

func (f *fakeAPI) PodiumAnalytics(_ context.Context, flt predictapi.Filter) ([]model.PodiumRow, error) {
	f.record("analytics/podiums")
	if f.failPodiums {
		return nil, errBoom
	}
	return f.podiumRows[flt.DriverID], nil
}

func (f *fakeAPI) Prediction(_ context.Context, kind model.PredictionKind, id, year int) (*model.PredictionData, error) {
	f.record("prediction")
	f.mu.Lock()
	f.lastPredict = [3]any{kind, id, year}
	f.mu.Unlock()
	if f.failPrediction {
		return nil, errBoom
	}
	return f.prediction[id], nil
}

func (f *fakeAPI) Championships(_ context.Context, year int) (model.ChampionshipPredictions, error) {
	f.record("championships")
	if f.failForms {
		return model.ChampionshipPredictions{}, errBoom
	}
	return f.champs, nil
}

func (f *fakeAPI) PredictPodium(_ context.Context, req model.PodiumRequest) (model.PodiumResult, error) {
	f.record("predict/podium")
	f.lastPodium = req
	if f.failForms {
		return model.PodiumResult{}, errBoom
	}
	return model.PodiumResult{Prediction: 1, PodiumProbability: 0.8, Confidence: model.ConfidenceHigh}, nil
}

func (f *fakeAPI) PredictWDC(_ context.Context, req model.WDCRequest) (model.WDCResult, error) {
	f.record("predict/wdc")
	f.lastWDC = req
	if f.failForms {
		return model.WDCResult{}, errBoom
	}
	return model.WDCResult{Prediction: 0, ChampionProbability: 0.2, DriverName: "Lewis Hamilton", Confidence: model.ConfidenceLow}, nil
}

func (f *fakeAPI) Health(context.Context) error {
	f.record("health")
	return nil
}

type echoRelay struct{}

func (echoRelay) Relay(_ context.Context, message string) (string, error) {
	return "echo: " + message, nil
}

func driverRow(year, id int, name string, points float64) model.DriverRow {
	return model.DriverRow{Year: lo.ToPtr(year), DriverID: lo.ToPtr(id), DriverName: name, Points: lo.ToPtr(points)}
}

func teamRow(year, id int, name string, points float64) model.TeamRow {
	return model.TeamRow{Year: lo.ToPtr(year), ConstructorID: lo.ToPtr(id), Name: name, Points: lo.ToPtr(points)}
}

func podiumRow(year, id int, name string, podiums float64) model.PodiumRow {
	return model.PodiumRow{Year: lo.ToPtr(year), DriverID: lo.ToPtr(id), DriverName: name, Podiums: lo.ToPtr(podiums)}
}
