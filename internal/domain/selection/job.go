package selection

import (
	"time"

	"github.com/google/uuid"
)

// JobKind names what a fetch job loads.
type JobKind string

const (
	// JobReference loads the driver and constructor choosers.
	JobReference JobKind = "reference"
	// JobAnalytics loads the analytics datasets for the tagged state.
	JobAnalytics JobKind = "analytics"
	// JobPrediction loads the next-season prediction for the tagged state.
	JobPrediction JobKind = "prediction"
)

// Job is a fetch request tagged with the state it was issued for. Session
// names the dashboard that issued it.
type Job struct {
	ID      uuid.UUID
	Session string
	Tag     Tag
	Kind    JobKind
	Issued  time.Time
}

// NewJob creates a job for tag.
func NewJob(tag Tag, kind JobKind) Job {
	return Job{ID: uuid.New(), Tag: tag, Kind: kind, Issued: time.Now()}
}

// Key identifies equivalent jobs: same kind issued for the same tag.
func (j Job) Key() string {
	return j.Tag.String() + "|" + string(j.Kind)
}
