package game

import "fmt"

// Kind names what changed in the game state.
type Kind string

const (
	KindHole     Kind = "hole"
	KindPar      Kind = "par"
	KindDistance Kind = "distance"
	KindShot     Kind = "shot"
	KindWind     Kind = "wind"
)

// Event is a discrete change detected by [Reconciler.Reconcile]. Events
// live for a single monitor cycle.
type Event struct {
	Kind  Kind
	Value int
}

func (e Event) String() string {
	return fmt.Sprintf("%s=%d", e.Kind, e.Value)
}

// Has reports whether events contains at least one event of kind k.
func Has(events []Event, k Kind) bool {
	for _, e := range events {
		if e.Kind == k {
			return true
		}
	}
	return false
}
