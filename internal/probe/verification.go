package probe

import (
	"fmt"

	app "github.com/okian/paddock/internal/app"
	"github.com/okian/paddock/internal/domain/selection"
)

// sameState compares the filter identity and ignores the label.
func sameState(a, b selection.State) bool {
	return a.Kind == b.Kind && a.ID == b.ID
}

// settled reports whether every fetch for want has finished. A blocking or
// inline error also ends the wait.
func settled(v app.DashboardView, want selection.State) bool {
	if v.Loading.Reference || v.Loading.Analytics || v.Loading.Prediction {
		return false
	}
	return sameState(v.DataFor, want) || v.Error != ""
}

// checkView lists every invariant the view breaks for the wanted state.
func checkView(v app.DashboardView, want selection.State) []string {
	var problems []string

	if v.Blocking {
		problems = append(problems, "page is blocked: "+v.Error)
	} else if v.Error != "" {
		problems = append(problems, "error banner: "+v.Error)
	}
	if !sameState(v.Filter, want) {
		problems = append(problems, fmt.Sprintf("filter is %s, want %s", v.Filter, want))
	}
	if !sameState(v.DataFor, want) {
		problems = append(problems, fmt.Sprintf("data is for %s, want %s", v.DataFor, want))
	}

	for name, rows := range map[string]int{
		"drivers": len(v.Leaderboards.Drivers),
		"teams":   len(v.Leaderboards.Teams),
		"podiums": len(v.Leaderboards.Podiums),
	} {
		if rows > maxLeaderboard {
			problems = append(problems, fmt.Sprintf("%s leaderboard has %d rows, at most %d allowed", name, rows, maxLeaderboard))
		}
	}

	for name, s := range map[string]struct{ labels, values int }{
		"driverPoints": {len(v.Charts.DriverPoints.Labels), len(v.Charts.DriverPoints.Values)},
		"teamPoints":   {len(v.Charts.TeamPoints.Labels), len(v.Charts.TeamPoints.Values)},
		"podiums":      {len(v.Charts.Podiums.Labels), len(v.Charts.Podiums.Values)},
	} {
		if s.labels != s.values {
			problems = append(problems, fmt.Sprintf("%s chart has %d labels and %d values", name, s.labels, s.values))
		}
	}

	if want.Filtered() {
		if v.Prediction == nil && v.PredictionError == "" {
			problems = append(problems, "filtered view has neither a prediction nor a prediction error")
		}
	} else if v.Prediction != nil {
		problems = append(problems, "unfiltered view still shows a prediction")
	}
	return problems
}
