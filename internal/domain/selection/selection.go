// Package selection holds the dashboard filter state and the tags used to
// tell fresh fetch results from stale ones.
package selection

import (
	"strconv"

	"github.com/okian/paddock/internal/domain/model"
)

// Kind names the three filter states.
type Kind string

const (
	Unfiltered Kind = "unfiltered"
	ByDriver   Kind = "driver"
	ByTeam     Kind = "team"
)

// State is the active filter. ID and Label are empty when Unfiltered.
type State struct {
	Kind  Kind   `json:"kind"`
	ID    int    `json:"id,omitempty"`
	Label string `json:"label,omitempty"`
}

// DriverID returns the selected driver, if any.
func (s State) DriverID() (int, bool) {
	return s.ID, s.Kind == ByDriver
}

// TeamID returns the selected constructor, if any.
func (s State) TeamID() (int, bool) {
	return s.ID, s.Kind == ByTeam
}

// Filtered reports whether a driver or team is selected.
func (s State) Filtered() bool { return s.Kind == ByDriver || s.Kind == ByTeam }

func (s State) String() string {
	if !s.Filtered() {
		return string(Unfiltered)
	}
	return string(s.Kind) + ":" + strconv.Itoa(s.ID)
}

// Tag identifies the state a fetch was issued for. Epoch grows on every
// transition, so two selections of the same driver get different tags.
type Tag struct {
	State State  `json:"state"`
	Epoch uint64 `json:"epoch"`
}

func (t Tag) String() string {
	return t.State.String() + "@" + strconv.FormatUint(t.Epoch, 10)
}

// Machine owns the filter state. It is not safe for concurrent use.
type Machine struct {
	state State
	epoch uint64
}

// NewMachine starts Unfiltered at epoch 0.
func NewMachine() *Machine {
	return &Machine{state: State{Kind: Unfiltered}}
}

// SelectDriver filters by driver and drops any team selection.
// A nil or zero option clears the filter.
func (m *Machine) SelectDriver(opt *model.SelectableOption) Tag {
	if opt == nil || opt.Value == 0 {
		return m.Clear()
	}
	return m.move(State{Kind: ByDriver, ID: opt.Value, Label: opt.Label})
}

// SelectTeam filters by constructor and drops any driver selection.
// A nil or zero option clears the filter.
func (m *Machine) SelectTeam(opt *model.SelectableOption) Tag {
	if opt == nil || opt.Value == 0 {
		return m.Clear()
	}
	return m.move(State{Kind: ByTeam, ID: opt.Value, Label: opt.Label})
}

// Clear returns to Unfiltered.
func (m *Machine) Clear() Tag {
	return m.move(State{Kind: Unfiltered})
}

// Current tags work for the present state without a transition.
func (m *Machine) Current() Tag {
	return Tag{State: m.state, Epoch: m.epoch}
}

// IsCurrent reports whether results tagged with t may still be applied.
func (m *Machine) IsCurrent(t Tag) bool {
	return t.Epoch == m.epoch && t.State == m.state
}

func (m *Machine) move(s State) Tag {
	m.epoch++
	m.state = s
	return m.Current()
}
