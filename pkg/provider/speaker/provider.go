// Package speaker defines the Speaker interface that voices commentary.
//
// Speak blocks until the line has been delivered (played, printed or
// posted). Failures are reported to the caller, which still counts the
// commentary as announced.
package speaker

import "context"

// DefaultRate is the speaking rate in words per minute used when a
// personality does not set one.
const DefaultRate = 160

// Speaker voices one line of commentary.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// RateSetter is implemented by speakers whose speaking rate can follow the
// active personality.
type RateSetter interface {
	SetRate(wpm int)
}
