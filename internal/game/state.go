// Package game holds the session-wide golf state and the reconciler that
// folds each parsed screen observation into it.
//
// A [State] is created once per monitoring session and owned by a single
// goroutine (the monitor loop). Nothing in this package locks.
package game

import "fmt"

// Reading is an integer that may not have been observed yet.
type Reading struct {
	Value int
	Known bool
}

// Known returns a set reading holding v.
func Known(v int) Reading { return Reading{Value: v, Known: true} }

// Equal reports whether r and o are both unset or both set to the same value.
func (r Reading) Equal(o Reading) bool {
	if r.Known != o.Known {
		return false
	}
	return !r.Known || r.Value == o.Value
}

// String returns the value, or "-" when unset.
func (r Reading) String() string {
	if !r.Known {
		return "-"
	}
	return fmt.Sprintf("%d", r.Value)
}

// HoleRecord is a finished hole in the round history.
type HoleRecord struct {
	Hole  int
	Shots int
}

// Announced remembers what has already been spoken so the same fact is
// not announced twice.
type Announced struct {
	Hole     Reading
	Distance Reading
	Wind     Reading
}

// State is the accumulated knowledge about the round in progress.
type State struct {
	Hole         Reading
	Par          Reading
	Distance     Reading
	LastDistance Reading
	Wind         Reading
	// Lie is the last observed ball lie, empty if none was seen.
	Lie         string
	ShotsOnHole int

	history []HoleRecord

	Announced Announced
}

// NewState returns an empty state for a fresh session.
func NewState() *State {
	return &State{}
}

// History returns a copy of the completed-hole records in the order they
// were finished.
func (s *State) History() []HoleRecord {
	out := make([]HoleRecord, len(s.history))
	copy(out, s.history)
	return out
}

// TotalShots sums the shots of all finished holes plus the current one.
func (s *State) TotalShots() int {
	n := s.ShotsOnHole
	for _, h := range s.history {
		n += h.Shots
	}
	return n
}

// Observation is what a single screen yielded after parsing. Unset fields
// mean the parser found nothing valid for them.
type Observation struct {
	Hole     Reading
	Par      Reading
	Distance Reading
	Wind     Reading
	Lie      string
}

// Empty reports whether the observation carries no field at all.
func (o Observation) Empty() bool {
	return !o.Hole.Known && !o.Par.Known && !o.Distance.Known && !o.Wind.Known && o.Lie == ""
}
