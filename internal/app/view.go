package service

import (
	"slices"
	"time"

	"github.com/okian/paddock/internal/domain/aggregate"
	"github.com/okian/paddock/internal/domain/model"
	"github.com/okian/paddock/internal/domain/selection"
)

// Loading reports which job kinds are pending.
type Loading struct {
	Reference  bool `json:"reference"`
	Analytics  bool `json:"analytics"`
	Prediction bool `json:"prediction"`
}

// Charts are the three analytics series.
type Charts struct {
	DriverPoints aggregate.Series `json:"driverPoints"`
	TeamPoints   aggregate.Series `json:"teamPoints"`
	Podiums      aggregate.Series `json:"podiums"`
}

// Leaderboards hold at most aggregate.LeaderboardSize entries each.
type Leaderboards struct {
	Drivers []aggregate.Entry `json:"drivers"`
	Teams   []aggregate.Entry `json:"teams"`
	Podiums []aggregate.Entry `json:"podiums"`
}

// DashboardView is everything the dashboard page renders.
type DashboardView struct {
	Filter          selection.State          `json:"filter"`
	Epoch           uint64                   `json:"epoch"`
	DataFor         selection.State          `json:"dataFor"`
	Drivers         []model.SelectableOption `json:"drivers"`
	Teams           []model.SelectableOption `json:"teams"`
	Charts          Charts                   `json:"charts"`
	Leaderboards    Leaderboards             `json:"leaderboards"`
	Prediction      *model.PredictionData    `json:"prediction,omitempty"`
	PredictionYear  int                      `json:"predictionYear"`
	PredictionError string                   `json:"predictionError,omitempty"`
	Loading         Loading                  `json:"loading"`
	Error           string                   `json:"error,omitempty"`
	Blocking        bool                     `json:"blocking"`
	LastUpdated     *time.Time               `json:"lastUpdated,omitempty"`
	AutoRefresh     bool                     `json:"autoRefresh"`
}

// View computes the current view model. Unfiltered data is grouped by year
// and ranked by total; filtered data is plotted directly and ranked by
// season, newest first.
func (d *Dashboard) View() DashboardView {
	d.mu.Lock()
	defer d.mu.Unlock()

	cur := d.machine.Current()
	v := DashboardView{
		Filter:          cur.State,
		Epoch:           cur.Epoch,
		DataFor:         d.data.tag.State,
		Drivers:         nonNil(d.drivers),
		Teams:           nonNil(d.teams),
		PredictionError: d.predictionErr,
		PredictionYear:  d.targetYear(),
		Loading: Loading{
			Reference:  d.pending[selection.JobReference] > 0,
			Analytics:  d.pending[selection.JobAnalytics] > 0,
			Prediction: d.pending[selection.JobPrediction] > 0,
		},
		Error:       d.errMsg,
		Blocking:    d.blocking,
		AutoRefresh: d.autoRefresh,
	}
	if d.prediction != nil {
		p := *d.prediction
		v.Prediction = &p
	}
	if !d.lastUpdated.IsZero() {
		t := d.lastUpdated
		v.LastUpdated = &t
	}

	if d.data.tag.State.Filtered() {
		v.Charts = Charts{
			DriverPoints: aggregate.Direct(d.data.drivers),
			TeamPoints:   aggregate.Direct(d.data.teams),
			Podiums:      aggregate.Direct(d.data.podiums),
		}
		v.Leaderboards = Leaderboards{
			Drivers: nonNil(aggregate.RecentN(d.data.drivers)),
			Teams:   nonNil(aggregate.RecentN(d.data.teams)),
			Podiums: nonNil(aggregate.RecentN(d.data.podiums)),
		}
	} else {
		v.Charts = Charts{
			DriverPoints: aggregate.GroupByYearAverage(d.data.drivers),
			TeamPoints:   aggregate.GroupByYearSum(d.data.teams),
			Podiums:      aggregate.GroupByYearSum(d.data.podiums),
		}
		v.Leaderboards = Leaderboards{
			Drivers: nonNil(aggregate.TopN(d.data.drivers)),
			Teams:   nonNil(aggregate.TopN(d.data.teams)),
			Podiums: nonNil(aggregate.TopN(d.data.podiums)),
		}
	}
	return v
}

// Options returns copies of the driver and team choosers.
func (d *Dashboard) Options() (drivers, teams []model.SelectableOption) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return nonNil(slices.Clone(d.drivers)), nonNil(slices.Clone(d.teams))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
