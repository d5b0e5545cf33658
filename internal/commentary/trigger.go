// Package commentary turns reconciled game events into something worth
// saying: the trigger builds a short situation description, and a
// Generator phrases it in the voice of the active personality.
package commentary

import (
	"fmt"
	"strings"

	"github.com/jasonnardone/voice-caddy/internal/game"
)

// Separator joins the fragments of one situation description.
const Separator = ". "

// Trigger maps events to a situation description and remembers what has
// been announced so the same fact is not repeated.
type Trigger struct{}

// NewTrigger returns a Trigger.
func NewTrigger() *Trigger { return &Trigger{} }

// BuildContext composes the situation for this cycle's events. It returns
// false when no event produced a fragment. Only s.Announced is modified.
//
// Par events never produce a fragment of their own; par is spoken as part
// of the hole fragment.
func (t *Trigger) BuildContext(events []game.Event, s *game.State) (string, bool) {
	if len(events) == 0 || s == nil {
		return "", false
	}
	holeEvent := game.Has(events, game.KindHole)

	var parts []string
	for _, e := range events {
		switch e.Kind {
		case game.KindHole:
			if s.Announced.Hole.Known && s.Announced.Hole.Value == s.Hole.Value {
				continue
			}
			parts = append(parts, holeFragment(s))
			s.Announced.Hole = s.Hole
			if s.Distance.Known {
				s.Announced.Distance = s.Distance
			}

		case game.KindDistance:
			if holeEvent || !s.Distance.Known || s.Announced.Distance.Equal(s.Distance) {
				continue
			}
			msg := fmt.Sprintf("Current distance: %d yards", s.Distance.Value)
			if s.ShotsOnHole > 0 {
				msg += fmt.Sprintf(" (shot #%d on this hole)", s.ShotsOnHole)
			}
			parts = append(parts, msg)
			s.Announced.Distance = s.Distance

		case game.KindWind:
			w := game.Known(e.Value)
			if s.Announced.Wind.Equal(w) {
				continue
			}
			parts = append(parts, fmt.Sprintf("Wind: %d mph", e.Value))
			s.Announced.Wind = w
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, Separator), true
}

func holeFragment(s *game.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New hole #%d", s.Hole.Value)
	if s.Par.Known {
		fmt.Fprintf(&b, ", par %d", s.Par.Value)
	}
	if s.Distance.Known {
		fmt.Fprintf(&b, ", %d yards", s.Distance.Value)
	}
	return b.String()
}
