package game

// Thresholds tune when a reading change becomes an event.
type Thresholds struct {
	// ShotDeltaYards is the distance change above which a new shot is
	// counted. Default 20.
	ShotDeltaYards int
	// WindSignificanceMph is the minimum wind speed that is worth an event.
	// Default 10.
	WindSignificanceMph int
}

// DefaultThresholds returns the thresholds used when none are configured.
func DefaultThresholds() Thresholds {
	return Thresholds{ShotDeltaYards: 20, WindSignificanceMph: 10}
}

// Reconciler diffs observations against the accumulated [State].
type Reconciler struct {
	Thresholds Thresholds
}

// NewReconciler returns a reconciler using t. Zero fields fall back to
// [DefaultThresholds].
func NewReconciler(t Thresholds) *Reconciler {
	def := DefaultThresholds()
	if t.ShotDeltaYards <= 0 {
		t.ShotDeltaYards = def.ShotDeltaYards
	}
	if t.WindSignificanceMph <= 0 {
		t.WindSignificanceMph = def.WindSignificanceMph
	}
	return &Reconciler{Thresholds: t}
}

// Reconcile merges obs into s and returns the resulting events in the
// order hole, par, distance, shot, wind. Unset observation fields leave
// the state untouched.
func (r *Reconciler) Reconcile(s *State, obs Observation) []Event {
	var events []Event

	if obs.Hole.Known && !obs.Hole.Equal(s.Hole) {
		if s.Hole.Known {
			s.history = append(s.history, HoleRecord{Hole: s.Hole.Value, Shots: s.ShotsOnHole})
		}
		s.Hole = obs.Hole
		s.ShotsOnHole = 0
		s.Announced.Distance = Reading{}
		s.Announced.Wind = Reading{}
		// Distances are only comparable within one hole.
		if s.Distance.Known {
			s.LastDistance = s.Distance
		}
		s.Distance = Reading{}
		events = append(events, Event{Kind: KindHole, Value: obs.Hole.Value})
	}

	if obs.Par.Known && !obs.Par.Equal(s.Par) {
		s.Par = obs.Par
		events = append(events, Event{Kind: KindPar, Value: obs.Par.Value})
	}

	if obs.Distance.Known && !obs.Distance.Equal(s.Distance) {
		old := s.Distance
		if old.Known {
			s.LastDistance = old
		}
		s.Distance = obs.Distance
		events = append(events, Event{Kind: KindDistance, Value: obs.Distance.Value})
		if old.Known && abs(obs.Distance.Value-old.Value) > r.Thresholds.ShotDeltaYards {
			s.ShotsOnHole++
			events = append(events, Event{Kind: KindShot, Value: s.ShotsOnHole})
		}
	}

	if obs.Wind.Known && !obs.Wind.Equal(s.Wind) {
		s.Wind = obs.Wind
		if obs.Wind.Value >= r.Thresholds.WindSignificanceMph {
			events = append(events, Event{Kind: KindWind, Value: obs.Wind.Value})
		}
	}

	if obs.Lie != "" {
		s.Lie = obs.Lie
	}

	return events
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
