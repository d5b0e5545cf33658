package monitor

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jasonnardone/voice-caddy/internal/detect"
	"github.com/jasonnardone/voice-caddy/internal/game"
	"github.com/jasonnardone/voice-caddy/pkg/provider/llm"
)

// Stats accumulates session statistics. It is written by the monitor loop
// and read by the status endpoint and the shutdown report.
type Stats struct {
	mu    sync.Mutex
	start time.Time
	snap  Snapshot
	cost  float64
}

// Snapshot is a point-in-time copy of [Stats].
type Snapshot struct {
	Runtime       time.Duration `json:"runtime_ns"`
	RuntimeText   string        `json:"runtime"`
	Screenshots   int           `json:"screenshots"`
	CaptureErrors int           `json:"capture_errors"`
	Changes       int           `json:"changes_detected"`
	Events        int           `json:"events"`
	Generated     int           `json:"commentary_generated"`
	Announcements int           `json:"announcements"`
	SpeakErrors   int           `json:"speak_errors"`
	PromptTokens  int           `json:"prompt_tokens"`
	OutputTokens  int           `json:"completion_tokens"`
	EstimatedCost float64       `json:"estimated_cost_usd"`
	// Efficiency is the percentage of screenshots that passed the change
	// gate.
	Efficiency float64 `json:"trigger_efficiency_pct"`

	Hole           int    `json:"hole,omitempty"`
	ShotsOnHole    int    `json:"shots_on_hole"`
	TotalShots     int    `json:"total_shots"`
	LastCommentary string `json:"last_commentary,omitempty"`
}

// NewStats starts a session clock.
func NewStats() *Stats {
	return &Stats{start: time.Now()}
}

// AddUsage adds the cost of one completion. It has the signature of
// commentary.UsageFunc.
func (s *Stats) AddUsage(info llm.ModelInfo, u llm.Usage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.PromptTokens += u.PromptTokens
	s.snap.OutputTokens += u.CompletionTokens
	s.cost += info.Cost(u)
}

func (s *Stats) record(res CycleResult, st *game.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res.Outcome == OutcomeCaptureFailed {
		s.snap.CaptureErrors++
	} else {
		s.snap.Screenshots++
	}
	// The first frame and fail-open decisions are not counted as changes.
	if res.Decision.Changed && res.Decision.Reason == detect.ReasonChanged {
		s.snap.Changes++
	}
	s.snap.Events += len(res.Events)
	if res.Commentary != "" {
		s.snap.Generated++
		s.snap.LastCommentary = res.Commentary
	}
	if res.Outcome.Announced() {
		s.snap.Announcements++
	}
	if res.Outcome == OutcomeSpeakFailed {
		s.snap.SpeakErrors++
	}
	if st != nil {
		s.snap.Hole = st.Hole.Value
		s.snap.ShotsOnHole = st.ShotsOnHole
		s.snap.TotalShots = st.TotalShots()
	}
}

// Snapshot returns the current statistics.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.snap
	out.Runtime = time.Since(s.start)
	out.RuntimeText = out.Runtime.Round(time.Second).String()
	out.EstimatedCost = s.cost
	if out.Screenshots > 0 {
		out.Efficiency = float64(out.Changes) / float64(out.Screenshots) * 100
	}
	return out
}

// WriteReport prints the end-of-session summary.
func (s Snapshot) WriteReport(w io.Writer) error {
	rule := strings.Repeat("=", 60)
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\nSESSION STATS\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Runtime:            %.1f minutes\n", s.Runtime.Minutes())
	fmt.Fprintf(&b, "Screenshots:        %d\n", s.Screenshots)
	fmt.Fprintf(&b, "Changes detected:   %d\n", s.Changes)
	fmt.Fprintf(&b, "Commentary calls:   %d\n", s.Generated)
	fmt.Fprintf(&b, "Announcements:      %d\n", s.Announcements)
	fmt.Fprintf(&b, "Estimated cost:     $%.4f\n", s.EstimatedCost)
	if s.Screenshots > 0 {
		fmt.Fprintf(&b, "Trigger efficiency: %.1f%% (only %d of %d screenshots triggered)\n",
			s.Efficiency, s.Changes, s.Screenshots)
	}
	if s.Hole > 0 {
		fmt.Fprintf(&b, "Round:              hole %d, %d shots this hole, %d total\n",
			s.Hole, s.ShotsOnHole, s.TotalShots)
	}
	fmt.Fprintf(&b, "%s\n", rule)
	_, err := io.WriteString(w, b.String())
	return err
}
