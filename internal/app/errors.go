package service

import "errors"

// User-facing messages shown by the dashboard and the prediction forms.
const (
	MsgReferenceFailed  = "Failed to load drivers and teams"
	MsgAnalyticsFailed  = "Failed to load analytics data"
	MsgFilteredFailed   = "Failed to load filtered data"
	MsgPredictionFailed = "Failed to load predictions"
	MsgFormFailed       = "Failed to get prediction. Please try again."
	MsgSelectBoth       = "Please select both a driver and constructor."
	MsgSelectDriver     = "Please select a driver."
	MsgGridRange        = "Grid position must be between 1 and 20."
	MsgYearRequired     = "Please select a season."
	MsgPointsNegative   = "Points cannot be negative."
	MsgOneFilter        = "Select either a driver or a team, not both."
)

var (
	// ErrValidation marks input rejected before any upstream call.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream marks a failed prediction API call.
	ErrUpstream = errors.New("prediction api failed")
	// ErrNotStarted is returned by operations that need a running service.
	ErrNotStarted = errors.New("service not started")
)

// ValidationError carries the text to show next to the offending input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// UserError pairs an upstream failure with the message shown instead of it.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message + ": " + e.Err.Error() }

func (e *UserError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrUpstream) match.
func (e *UserError) Is(target error) bool { return target == ErrUpstream }
