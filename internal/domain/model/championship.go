package model

// ChampionshipEntry is one contender in a championship forecast. Driver
// entries carry DriverID/DriverName, constructor entries the constructor pair.
type ChampionshipEntry struct {
	DriverID            int        `json:"driver_id,omitempty"`
	DriverName          string     `json:"driver_name,omitempty"`
	ConstructorID       int        `json:"constructor_id,omitempty"`
	ConstructorName     string     `json:"constructor_name,omitempty"`
	PredictedChampion   bool       `json:"predicted_champion"`
	ChampionProbability float64    `json:"champion_probability"`
	Confidence          Confidence `json:"confidence"`
}

// ID returns the driver or constructor id.
func (e ChampionshipEntry) ID() int {
	if e.DriverID != 0 {
		return e.DriverID
	}
	return e.ConstructorID
}

// Name returns the driver or constructor name.
func (e ChampionshipEntry) Name() string {
	if e.DriverName != "" {
		return e.DriverName
	}
	return e.ConstructorName
}

// ChampionshipGroup is the ranked forecast of one championship.
type ChampionshipGroup struct {
	Predictions []ChampionshipEntry `json:"predictions"`
	Top         *ChampionshipEntry  `json:"top_prediction"`
}

// ChampionshipPredictions holds both championships of one season.
type ChampionshipPredictions struct {
	Year         int               `json:"year,omitempty"`
	Drivers      ChampionshipGroup `json:"world_drivers_championship"`
	Constructors ChampionshipGroup `json:"constructors_championship"`
}
