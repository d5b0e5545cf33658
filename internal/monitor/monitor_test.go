package monitor

import (
	"context"
	"errors"
	"image"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jasonnardone/voice-caddy/internal/commentary"
	"github.com/jasonnardone/voice-caddy/internal/detect"
	"github.com/jasonnardone/voice-caddy/internal/framedump"
	"github.com/jasonnardone/voice-caddy/internal/game"
	"github.com/jasonnardone/voice-caddy/internal/observe"
	"github.com/jasonnardone/voice-caddy/pkg/provider/capture"
	capturemock "github.com/jasonnardone/voice-caddy/pkg/provider/capture/mock"
	"github.com/jasonnardone/voice-caddy/pkg/provider/capture/scripted"
	"github.com/jasonnardone/voice-caddy/pkg/provider/llm"
	llmmock "github.com/jasonnardone/voice-caddy/pkg/provider/llm/mock"
	ocrmock "github.com/jasonnardone/voice-caddy/pkg/provider/ocr/mock"
	speakermock "github.com/jasonnardone/voice-caddy/pkg/provider/speaker/mock"
)

type speakFunc func(ctx context.Context, text string) error

func (f speakFunc) Speak(ctx context.Context, text string) error { return f(ctx, text) }

func frame(scene int, lines ...string) scripted.Frame {
	return scripted.Frame{Scene: scene, Lines: lines}
}

func TestCycle_EndToEnd(t *testing.T) {
	t.Parallel()
	screen := scripted.New()
	spk := &speakermock.Speaker{}
	m, err := New(screen, screen, commentary.PlainGenerator{}, spk)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	screen.Show(frame(1, "Hole 5  Par 4", "250 yds", "Wind 15 mph"))
	res := m.Cycle(ctx)
	if res.Outcome != OutcomeAnnounced {
		t.Fatalf("cycle 1 outcome = %s (err %v)", res.Outcome, res.Err)
	}
	if res.Context != "New hole #5, par 4, 250 yards. Wind: 15 mph" {
		t.Errorf("context = %q", res.Context)
	}
	if res.Decision.Reason != detect.ReasonFirst {
		t.Errorf("reason = %s, want first", res.Decision.Reason)
	}

	// Same screen: gated before recognition.
	if res := m.Cycle(ctx); res.Outcome != OutcomeUnchanged {
		t.Errorf("cycle 2 outcome = %s, want unchanged", res.Outcome)
	}

	// Camera moves after the tee shot.
	screen.Show(frame(2, "Hole 5  Par 4", "160 yds", "Wind 15 mph"))
	res = m.Cycle(ctx)
	if res.Outcome != OutcomeAnnounced {
		t.Fatalf("cycle 3 outcome = %s (err %v)", res.Outcome, res.Err)
	}
	if res.Context != "Current distance: 160 yards (shot #1 on this hole)" {
		t.Errorf("context = %q", res.Context)
	}

	lines := spk.Lines()
	want := []string{
		"New hole number 5, par 4, 250 yards. Wind: 15 mph.",
		"Current distance: 160 yards (shot number 1 on this hole).",
	}
	if len(lines) != 2 || lines[0] != want[0] || lines[1] != want[1] {
		t.Errorf("spoken = %q, want %q", lines, want)
	}

	snap := m.Stats().Snapshot()
	if snap.Screenshots != 3 || snap.Changes != 1 || snap.Announcements != 2 || snap.Hole != 5 || snap.ShotsOnHole != 1 {
		t.Errorf("stats = %+v", snap)
	}
}

func TestCycle_CaptureFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("display not found")
	rec := &ocrmock.Recognizer{}
	m, _ := New(&capturemock.Source{Err: boom}, rec, commentary.PlainGenerator{}, &speakermock.Speaker{})

	res := m.Cycle(context.Background())
	if res.Outcome != OutcomeCaptureFailed || !errors.Is(res.Err, boom) {
		t.Errorf("result = %s, %v", res.Outcome, res.Err)
	}
	if rec.CallCount() != 0 {
		t.Error("recognizer called after capture failure")
	}
	if snap := m.Stats().Snapshot(); snap.CaptureErrors != 1 || snap.Screenshots != 0 {
		t.Errorf("stats = %+v", snap)
	}
}

func TestCycle_RecognitionFailureIsEmptyText(t *testing.T) {
	t.Parallel()
	src := &capturemock.Source{Frames: []image.Image{image.NewGray(image.Rect(0, 0, 40, 30))}}
	m, _ := New(src, &ocrmock.Recognizer{Err: errors.New("tesseract: exit status 1")}, commentary.PlainGenerator{}, &speakermock.Speaker{})

	res := m.Cycle(context.Background())
	if res.Outcome != OutcomeNoEvents || res.Err != nil || res.Text != "" {
		t.Errorf("result = %+v", res)
	}
}

func TestCycle_GenerateFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("rate limited")
	gen, _ := commentary.NewLLMGenerator(&llmmock.Provider{CompleteErr: boom}, commentary.Persona{})
	src := &capturemock.Source{Frames: []image.Image{image.NewGray(image.Rect(0, 0, 40, 30))}}
	spk := &speakermock.Speaker{}
	m, _ := New(src, &ocrmock.Recognizer{Texts: []string{"Hole 1 Par 4 387 yards"}}, gen, spk)

	res := m.Cycle(context.Background())
	if res.Outcome != OutcomeGenerateFailed || !errors.Is(res.Err, boom) {
		t.Errorf("result = %s, %v", res.Outcome, res.Err)
	}
	if res.Context != "New hole #1, par 4, 387 yards" {
		t.Errorf("context = %q", res.Context)
	}
	if len(spk.Lines()) != 0 {
		t.Error("speaker called after generation failure")
	}
}

func TestCycle_SpeakFailureStillCountsAsAnnounced(t *testing.T) {
	t.Parallel()
	screen := scripted.New()
	spk := &speakermock.Speaker{Err: errors.New("no audio device")}
	m, _ := New(screen, screen, commentary.PlainGenerator{}, spk)
	ctx := context.Background()

	screen.Show(frame(1, "Wind 20 mph"))
	if res := m.Cycle(ctx); res.Outcome != OutcomeSpeakFailed {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	// Same wind on a new scene: reconciler sees no change at all.
	screen.Show(frame(2, "Wind 20 mph"))
	if res := m.Cycle(ctx); res.Outcome != OutcomeNoEvents {
		t.Errorf("outcome = %s, want no-events", res.Outcome)
	}
	snap := m.Stats().Snapshot()
	if snap.Announcements != 1 || snap.SpeakErrors != 1 {
		t.Errorf("stats = %+v", snap)
	}
}

func TestCycle_LLMUsageAndMetrics(t *testing.T) {
	t.Parallel()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	met, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatal(err)
	}

	stats := NewStats()
	p := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "Big one here!", Usage: llm.Usage{PromptTokens: 1000, CompletionTokens: 100}},
		ModelInfo:        llm.ModelInfo{InputPricePerMTok: 3, OutputPricePerMTok: 15},
	}
	gen, _ := commentary.NewLLMGenerator(p, commentary.Persona{}, commentary.WithUsage(stats.AddUsage))
	src := &capturemock.Source{Frames: []image.Image{image.NewGray(image.Rect(0, 0, 40, 30))}}
	m, _ := New(src, &ocrmock.Recognizer{Texts: []string{"HOLE 18 PAR 5"}}, gen, &speakermock.Speaker{},
		WithMetrics(met), WithStats(stats))

	if res := m.Cycle(context.Background()); res.Outcome != OutcomeAnnounced {
		t.Fatalf("outcome = %s (%v)", res.Outcome, res.Err)
	}
	snap := stats.Snapshot()
	if snap.PromptTokens != 1000 || snap.OutputTokens != 100 {
		t.Errorf("tokens = %d/%d", snap.PromptTokens, snap.OutputTokens)
	}
	if want := (1000*3.0 + 100*15.0) / 1e6; snap.EstimatedCost != want {
		t.Errorf("cost = %v, want %v", snap.EstimatedCost, want)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, mt := range sm.Metrics {
			if mt.Name != "caddy.cycles" {
				continue
			}
			for _, dp := range mt.Data.(metricdata.Sum[int64]).DataPoints {
				if v, _ := dp.Attributes.Value("outcome"); v.AsString() == "announced" && dp.Value == 1 {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("caddy.cycles{outcome=announced} not recorded")
	}
}

func TestCycle_DumpsChangedFrames(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	sink, err := framedump.NewFileSink(dir)
	if err != nil {
		t.Fatal(err)
	}
	screen := scripted.New()
	m, _ := New(screen, screen, commentary.PlainGenerator{}, &speakermock.Speaker{}, WithSink(sink))

	screen.Show(frame(1, "Hole 2"))
	m.Cycle(context.Background())
	screen.Show(frame(2, "Hole 2"))
	m.Cycle(context.Background())

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var changes, diffs int
	for _, e := range entries {
		switch {
		case strings.HasPrefix(e.Name(), "change_"):
			changes++
		case strings.HasPrefix(e.Name(), "diff_"):
			diffs++
		}
	}
	// First frame has no diff; the scene change has both.
	if changes != 2 || diffs != 1 {
		t.Errorf("changes=%d diffs=%d, want 2 and 1", changes, diffs)
	}
}

func TestTune(t *testing.T) {
	t.Parallel()
	screen := scripted.New()
	m, _ := New(screen, screen, commentary.PlainGenerator{}, &speakermock.Speaker{}, WithInterval(time.Second))
	ctx := context.Background()

	screen.Show(frame(1, "Hole 1"))
	m.Cycle(ctx)

	m.Tune(Tuning{Interval: 250 * time.Millisecond, ChangeThreshold: 100, Thresholds: game.Thresholds{ShotDeltaYards: 50}})
	if m.Interval() != time.Second {
		t.Error("tuning applied before the next cycle")
	}
	m.applyTuning()
	if m.Interval() != 250*time.Millisecond || m.Threshold() != 100 {
		t.Errorf("interval=%v threshold=%v", m.Interval(), m.Threshold())
	}
	if m.reconciler.Thresholds.ShotDeltaYards != 50 || m.reconciler.Thresholds.WindSignificanceMph != 10 {
		t.Errorf("thresholds = %+v", m.reconciler.Thresholds)
	}

	screen.Show(frame(2, "Hole 1"))
	if res := m.Cycle(ctx); res.Outcome != OutcomeUnchanged {
		t.Errorf("outcome = %s, want unchanged at 100%% threshold", res.Outcome)
	}
}

func TestRun_StopsWhenSourceExhausted(t *testing.T) {
	t.Parallel()
	img := image.NewGray(image.Rect(0, 0, 40, 30))
	src := &capturemock.Source{
		Frames: []image.Image{img},
		Errs:   []error{nil, nil, capture.ErrNoFrames},
	}
	var cycles int
	m, _ := New(src, &ocrmock.Recognizer{}, commentary.PlainGenerator{}, &speakermock.Speaker{},
		WithInterval(time.Millisecond),
		WithObserver(func(CycleResult) { cycles++ }))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if cycles != 3 {
		t.Errorf("cycles = %d, want 3", cycles)
	}
}

func TestRun_InterruptFinishesCycle(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var spoke atomic.Int32
	var speakCtxErr error
	spk := speakFunc(func(sctx context.Context, _ string) error {
		cancel()
		time.Sleep(10 * time.Millisecond)
		speakCtxErr = sctx.Err()
		spoke.Add(1)
		return nil
	})
	src := &capturemock.Source{Frames: []image.Image{image.NewGray(image.Rect(0, 0, 40, 30))}}
	m, _ := New(src, &ocrmock.Recognizer{Texts: []string{"Hole 3 Par 3 147 yds"}}, commentary.PlainGenerator{}, spk,
		WithInterval(time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after interrupt")
	}

	if spoke.Load() != 1 {
		t.Errorf("spoke %d times, want 1", spoke.Load())
	}
	if speakCtxErr != nil {
		t.Errorf("in-flight speech saw cancelled context: %v", speakCtxErr)
	}
	if src.CallCount() != 1 {
		t.Errorf("captures = %d, want 1 (no capture after interrupt)", src.CallCount())
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	t.Parallel()
	if _, err := New(nil, nil, nil, nil); err == nil {
		t.Error("expected error")
	}
}
