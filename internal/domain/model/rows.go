// Package model contains domain models passed between layers.
package model

import "strings"

// Sample is the complete projection of one analytics row used by aggregation.
type Sample struct {
	Year  int
	ID    int
	Name  string
	Value float64
}

// DriverRow is one season of a driver's historical points.
// Optional fields are pointers so a missing value can be told apart from zero.
type DriverRow struct {
	Year       *int     `json:"year,omitempty"`
	DriverID   *int     `json:"driverId,omitempty"`
	Forename   string   `json:"forename,omitempty"`
	Surname    string   `json:"surname,omitempty"`
	Points     *float64 `json:"points,omitempty"`
	DriverName string   `json:"driver_name,omitempty"`
}

// Name returns driver_name, or "forename surname" when only the parts exist.
func (r DriverRow) Name() string {
	return driverName(r.DriverName, r.Forename, r.Surname)
}

// Sample reports false when any field needed for aggregation is missing.
func (r DriverRow) Sample() (Sample, bool) {
	return sample(r.Year, r.DriverID, r.Name(), r.Points)
}

// TeamRow is one season of a constructor's points.
type TeamRow struct {
	Year          *int     `json:"year,omitempty"`
	ConstructorID *int     `json:"constructorId,omitempty"`
	Name          string   `json:"name,omitempty"`
	Points        *float64 `json:"points,omitempty"`
}

// Sample reports false when any field needed for aggregation is missing.
func (r TeamRow) Sample() (Sample, bool) {
	return sample(r.Year, r.ConstructorID, strings.TrimSpace(r.Name), r.Points)
}

// PodiumRow is one season of a driver's podium count.
type PodiumRow struct {
	Year       *int     `json:"year,omitempty"`
	DriverID   *int     `json:"driverId,omitempty"`
	Forename   string   `json:"forename,omitempty"`
	Surname    string   `json:"surname,omitempty"`
	Podiums    *float64 `json:"podiums,omitempty"`
	DriverName string   `json:"driver_name,omitempty"`
}

// Name returns driver_name, or "forename surname" when only the parts exist.
func (r PodiumRow) Name() string {
	return driverName(r.DriverName, r.Forename, r.Surname)
}

// Sample reports false when any field needed for aggregation is missing.
func (r PodiumRow) Sample() (Sample, bool) {
	return sample(r.Year, r.DriverID, r.Name(), r.Podiums)
}

func driverName(full, forename, surname string) string {
	if name := strings.TrimSpace(full); name != "" {
		return name
	}
	forename, surname = strings.TrimSpace(forename), strings.TrimSpace(surname)
	if forename == "" || surname == "" {
		return ""
	}
	return forename + " " + surname
}

func sample(year, id *int, name string, value *float64) (Sample, bool) {
	if year == nil || id == nil || value == nil || name == "" {
		return Sample{}, false
	}
	return Sample{Year: *year, ID: *id, Name: name, Value: *value}, true
}

// SelectableOption is one entry of a driver or team chooser.
type SelectableOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}
