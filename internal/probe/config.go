// Package probe drives a running paddock server through one filter cycle
// and checks the dashboard invariants the UI relies on.
package probe

import "time"

// Defaults used by cmd/probe.
const (
	DefaultBaseURL = "http://localhost:9080"
	DefaultTimeout = 10 * time.Second
	DefaultSettle  = 30 * time.Second

	pollInterval    = 250 * time.Millisecond
	maxLeaderboard  = 5
	maxErrorPreview = 256
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL  string        // Base URL of the server
	Timeout  time.Duration // Per request timeout
	Settle   time.Duration // How long to wait for data to arrive after a transition
	DriverID int           // Driver to select; 0 picks the first option
	TeamID   int           // Team to select; 0 picks the first option
	Chat     string        // Message sent through the chat relay; empty skips the step
	Verbose  bool          // Log every poll
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.Settle <= 0 {
		out.Settle = DefaultSettle
	}
	return &out
}

// Step is the outcome of one probe step.
type Step struct {
	Name     string
	OK       bool
	Skipped  bool
	Problems []string
	Duration time.Duration
}

// Report collects every step of a run.
type Report struct {
	Steps     []Step
	StartTime time.Time
	EndTime   time.Time
}

// Failed counts steps that did not pass.
func (r *Report) Failed() int {
	n := 0
	for _, s := range r.Steps {
		if !s.OK && !s.Skipped {
			n++
		}
	}
	return n
}

// Step returns the named step, if it ran.
func (r *Report) Step(name string) (Step, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}
