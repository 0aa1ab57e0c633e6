// Package championship normalises championship forecasts so every group is
// ranked and names at most one predicted champion.
package championship

import (
	"cmp"
	"slices"

	"github.com/okian/paddock/internal/domain/model"
)

// Normalize returns a ranked copy of entries: probabilities clamped to
// [0,1], missing confidence derived, sorted by probability descending with
// input order kept for ties. Only the top entry may keep PredictedChampion.
func Normalize(entries []model.ChampionshipEntry) model.ChampionshipGroup {
	out := make([]model.ChampionshipEntry, len(entries))
	for i, e := range entries {
		e.ChampionProbability = model.ClampProbability(e.ChampionProbability)
		if c, ok := model.ParseConfidence(string(e.Confidence)); ok {
			e.Confidence = c
		} else {
			e.Confidence = model.ConfidenceFor(e.ChampionProbability)
		}
		out[i] = e
	}

	slices.SortStableFunc(out, func(a, b model.ChampionshipEntry) int {
		return cmp.Compare(b.ChampionProbability, a.ChampionProbability)
	})
	for i := 1; i < len(out); i++ {
		out[i].PredictedChampion = false
	}

	group := model.ChampionshipGroup{Predictions: out}
	if len(out) > 0 {
		top := out[0]
		group.Top = &top
	}
	return group
}

// NormalizeSeason normalises both championships of a season.
func NormalizeSeason(p model.ChampionshipPredictions) model.ChampionshipPredictions {
	return model.ChampionshipPredictions{
		Year:         p.Year,
		Drivers:      Normalize(p.Drivers.Predictions),
		Constructors: Normalize(p.Constructors.Predictions),
	}
}
