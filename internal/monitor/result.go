package monitor

import (
	"time"

	"github.com/jasonnardone/voice-caddy/internal/detect"
	"github.com/jasonnardone/voice-caddy/internal/game"
)

// Outcome is how far a cycle got through the pipeline.
type Outcome string

const (
	OutcomeCaptureFailed  Outcome = "capture-failed"
	OutcomeUnchanged      Outcome = "unchanged"
	OutcomeNoEvents       Outcome = "no-events"
	OutcomeNoContext      Outcome = "no-context"
	OutcomeGenerateFailed Outcome = "generate-failed"
	OutcomeSpeakFailed    Outcome = "speak-failed"
	OutcomeAnnounced      Outcome = "announced"
)

// Announced reports whether commentary was produced and handed to the
// speaker, even if speaking failed.
func (o Outcome) Announced() bool {
	return o == OutcomeAnnounced || o == OutcomeSpeakFailed
}

// CycleResult records what one monitor cycle did.
type CycleResult struct {
	Outcome  Outcome
	Decision detect.Decision
	// Text is the recognised screen text; empty when recognition failed.
	Text       string
	Events     []game.Event
	Context    string
	Commentary string
	// Err is the error that ended the cycle early, if any. Recognition
	// errors do not end a cycle and are not reported here.
	Err      error
	Duration time.Duration
}
