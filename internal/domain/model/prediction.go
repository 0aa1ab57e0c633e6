package model

import (
	"math"
	"strings"
)

// Confidence is the coarse certainty bucket attached to a prediction.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

const (
	highConfidenceAbove   = 0.7
	mediumConfidenceAbove = 0.4
)

// ParseConfidence accepts low, medium or high in any case.
func ParseConfidence(s string) (Confidence, bool) {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(s))); c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return c, true
	default:
		return "", false
	}
}

// ConfidenceFor buckets a probability: above 0.7 is high, above 0.4 medium.
func ConfidenceFor(p float64) Confidence {
	switch {
	case p > highConfidenceAbove:
		return ConfidenceHigh
	case p > mediumConfidenceAbove:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ClampProbability forces p into [0,1]. NaN becomes 0.
func ClampProbability(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// orDerived keeps a valid confidence and otherwise derives it from p.
func orDerived(c Confidence, p float64) Confidence {
	if parsed, ok := ParseConfidence(string(c)); ok {
		return parsed
	}
	return ConfidenceFor(p)
}

// PredictionKind selects the entity a single-entity prediction is about.
type PredictionKind string

const (
	PredictionDriver      PredictionKind = "driver"
	PredictionConstructor PredictionKind = "constructor"
)

// PredictedFigures holds the numbers of a single-entity prediction.
type PredictedFigures struct {
	Points                  float64  `json:"points"`
	PodiumProbability       *float64 `json:"podium_probability,omitempty"`
	ChampionshipProbability float64  `json:"championship_probability"`
}

// PredictionData is the next-season forecast for one driver or constructor.
type PredictionData struct {
	DriverName      string           `json:"driver_name,omitempty"`
	ConstructorName string           `json:"constructor_name,omitempty"`
	Predictions     PredictedFigures `json:"predictions"`
	Confidence      Confidence       `json:"confidence"`
	BasedOnRaces    *int             `json:"based_on_races,omitempty"`
	BasedOnSeasons  *int             `json:"based_on_seasons,omitempty"`
	Note            string           `json:"note,omitempty"`
}

// Name returns whichever entity name the prediction carries.
func (p PredictionData) Name() string {
	if p.DriverName != "" {
		return p.DriverName
	}
	return p.ConstructorName
}

// Normalize clamps probabilities and fills a missing confidence.
func (p *PredictionData) Normalize() {
	p.Predictions.ChampionshipProbability = ClampProbability(p.Predictions.ChampionshipProbability)
	if p.Predictions.PodiumProbability != nil {
		v := ClampProbability(*p.Predictions.PodiumProbability)
		p.Predictions.PodiumProbability = &v
	}
	p.Confidence = orDerived(p.Confidence, p.Predictions.ChampionshipProbability)
}

// PodiumRequest asks whether a driver finishes on the podium from a grid slot.
type PodiumRequest struct {
	DriverID      int `json:"driverId"`
	ConstructorID int `json:"constructorId"`
	Grid          int `json:"grid"`
}

// PodiumResult is the answer to a PodiumRequest.
type PodiumResult struct {
	Prediction        int        `json:"prediction"`
	PodiumProbability float64    `json:"podium_probability"`
	Confidence        Confidence `json:"confidence"`
}

// Normalize clamps the probability and fills a missing confidence.
func (r *PodiumResult) Normalize() {
	r.PodiumProbability = ClampProbability(r.PodiumProbability)
	r.Confidence = orDerived(r.Confidence, r.PodiumProbability)
}

// WDCRequest asks whether a driver wins the drivers' title with given points.
type WDCRequest struct {
	Year     int     `json:"year"`
	DriverID int     `json:"driverId"`
	Points   float64 `json:"points"`
}

// WDCResult is the answer to a WDCRequest.
type WDCResult struct {
	Prediction          int        `json:"prediction"`
	ChampionProbability float64    `json:"champion_probability"`
	DriverName          string     `json:"driver_name"`
	Confidence          Confidence `json:"confidence"`
}

// Normalize clamps the probability and fills a missing confidence.
func (r *WDCResult) Normalize() {
	r.ChampionProbability = ClampProbability(r.ChampionProbability)
	r.Confidence = orDerived(r.Confidence, r.ChampionProbability)
}
