// Package monitor runs the capture → detect → recognise → parse →
// reconcile → trigger → generate → speak loop against a golf simulator
// screen.
//
// The loop is strictly sequential and owns the [game.State]; other
// goroutines only read [Stats] and push [Tuning] updates, which are
// applied at the start of the next cycle.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jasonnardone/voice-caddy/internal/commentary"
	"github.com/jasonnardone/voice-caddy/internal/detect"
	"github.com/jasonnardone/voice-caddy/internal/framedump"
	"github.com/jasonnardone/voice-caddy/internal/game"
	"github.com/jasonnardone/voice-caddy/internal/observe"
	"github.com/jasonnardone/voice-caddy/internal/parse"
	"github.com/jasonnardone/voice-caddy/pkg/provider/capture"
	"github.com/jasonnardone/voice-caddy/pkg/provider/ocr"
	"github.com/jasonnardone/voice-caddy/pkg/provider/speaker"
)

// Defaults.
const (
	DefaultInterval     = time.Second
	DefaultCycleTimeout = 30 * time.Second
)

// Tuning holds the values that can change while the loop runs.
type Tuning struct {
	Interval        time.Duration
	ChangeThreshold float64
	Thresholds      game.Thresholds
}

// Monitor is the announcement loop.
type Monitor struct {
	source     capture.Source
	recognizer ocr.Recognizer
	generator  commentary.Generator
	speaker    speaker.Speaker

	detectOpts detect.Options
	detector   *detect.Detector
	parser     *parse.Parser
	reconciler *game.Reconciler
	trigger    *commentary.Trigger
	state      *game.State

	cycleTimeout time.Duration
	metrics      *observe.Metrics
	stats        *Stats
	sink         framedump.Sink
	onCycle      func(CycleResult)

	mu       sync.Mutex
	interval time.Duration
	pending  *Tuning
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the delay between cycles.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithCycleTimeout bounds a single cycle. A started cycle is not cancelled
// by the Run context; only this timeout stops it.
func WithCycleTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.cycleTimeout = d
		}
	}
}

// WithDetectOptions configures the change detector.
func WithDetectOptions(o detect.Options) Option {
	return func(m *Monitor) { m.detectOpts = o }
}

// WithParser replaces the default parser.
func WithParser(p *parse.Parser) Option {
	return func(m *Monitor) { m.parser = p }
}

// WithThresholds sets the reconciler thresholds.
func WithThresholds(t game.Thresholds) Option {
	return func(m *Monitor) { m.reconciler = game.NewReconciler(t) }
}

// WithMetrics records pipeline metrics.
func WithMetrics(met *observe.Metrics) Option {
	return func(m *Monitor) { m.metrics = met }
}

// WithStats shares a Stats value with the caller.
func WithStats(s *Stats) Option {
	return func(m *Monitor) { m.stats = s }
}

// WithSink saves every changed frame.
func WithSink(s framedump.Sink) Option {
	return func(m *Monitor) { m.sink = s }
}

// WithObserver is called with the result of every cycle, on the loop
// goroutine.
func WithObserver(fn func(CycleResult)) Option {
	return func(m *Monitor) { m.onCycle = fn }
}

// New assembles a Monitor. All four collaborators are required.
func New(src capture.Source, rec ocr.Recognizer, gen commentary.Generator, spk speaker.Speaker, opts ...Option) (*Monitor, error) {
	var errs []error
	if src == nil {
		errs = append(errs, errors.New("monitor: capture source is required"))
	}
	if rec == nil {
		errs = append(errs, errors.New("monitor: recognizer is required"))
	}
	if gen == nil {
		errs = append(errs, errors.New("monitor: generator is required"))
	}
	if spk == nil {
		errs = append(errs, errors.New("monitor: speaker is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	m := &Monitor{
		source:       src,
		recognizer:   rec,
		generator:    gen,
		speaker:      spk,
		detectOpts:   detect.DefaultOptions(),
		trigger:      commentary.NewTrigger(),
		state:        game.NewState(),
		interval:     DefaultInterval,
		cycleTimeout: DefaultCycleTimeout,
	}
	for _, o := range opts {
		o(m)
	}
	m.detector = detect.New(m.detectOpts)
	if m.parser == nil {
		m.parser = parse.New()
	}
	if m.reconciler == nil {
		m.reconciler = game.NewReconciler(game.DefaultThresholds())
	}
	if m.stats == nil {
		m.stats = NewStats()
	}
	return m, nil
}

// Stats returns the session statistics.
func (m *Monitor) Stats() *Stats { return m.stats }

// Interval returns the current delay between cycles.
func (m *Monitor) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// Threshold returns the current change threshold in percent.
func (m *Monitor) Threshold() float64 { return m.detector.Threshold() }

// Tune schedules new tuning values for the next cycle.
func (m *Monitor) Tune(t Tuning) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = &t
}

func (m *Monitor) applyTuning() {
	m.mu.Lock()
	t := m.pending
	m.pending = nil
	if t != nil && t.Interval > 0 {
		m.interval = t.Interval
	}
	m.mu.Unlock()
	if t == nil {
		return
	}
	if t.ChangeThreshold > 0 {
		m.detector.SetThreshold(t.ChangeThreshold)
	}
	m.reconciler = game.NewReconciler(t.Thresholds)
	slog.Info("monitor: tuning applied",
		"interval", m.Interval(),
		"change_threshold", m.detector.Threshold(),
		"shot_delta_yards", m.reconciler.Thresholds.ShotDeltaYards,
		"wind_threshold_mph", m.reconciler.Thresholds.WindSignificanceMph,
	)
}

// Run cycles until ctx is cancelled or the source runs out of frames. A
// cancellation never interrupts a cycle in progress; the loop stops before
// the next capture. Run returns nil on a clean stop.
func (m *Monitor) Run(ctx context.Context) error {
	slog.Info("monitor: started", "interval", m.Interval(), "change_threshold", m.Threshold())
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("monitor: stopping")
			return nil
		case <-timer.C:
		}
		if ctx.Err() != nil {
			slog.Info("monitor: stopping")
			return nil
		}

		res := m.Cycle(ctx)
		if m.onCycle != nil {
			m.onCycle(res)
		}
		if errors.Is(res.Err, capture.ErrNoFrames) {
			slog.Info("monitor: source exhausted")
			return nil
		}
		timer.Reset(m.Interval())
	}
}

// Cycle applies pending tuning and runs one pass of the pipeline. It
// detaches from ctx's cancellation and is bounded by the cycle timeout
// instead.
func (m *Monitor) Cycle(ctx context.Context) CycleResult {
	m.applyTuning()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cycleTimeout)
	defer cancel()
	ctx, span := observe.StartSpan(ctx, "monitor.cycle")
	defer span.End()

	start := time.Now()
	res := m.cycle(ctx)
	res.Duration = time.Since(start)

	span.SetAttributes(attribute.String("outcome", string(res.Outcome)))
	if m.metrics != nil {
		m.metrics.RecordCycle(ctx, string(res.Outcome), res.Duration.Seconds())
	}
	m.stats.record(res, m.state)
	return res
}

func (m *Monitor) cycle(ctx context.Context) CycleResult {
	log := observe.Logger(ctx)

	img, err := m.capture(ctx)
	if err != nil {
		if !errors.Is(err, capture.ErrNoFrames) {
			log.Warn("monitor: capture failed", "err", err)
		}
		return CycleResult{Outcome: OutcomeCaptureFailed, Err: err}
	}

	dec := m.detector.Detect(img)
	res := CycleResult{Decision: dec}
	if m.metrics != nil && (dec.Reason == detect.ReasonChanged || dec.Reason == detect.ReasonBelow) {
		m.metrics.ChangeMagnitude.Record(ctx, dec.Magnitude)
	}
	if !dec.Changed {
		log.Debug("monitor: screen unchanged", "reason", dec.Reason, "magnitude", dec.Magnitude)
		res.Outcome = OutcomeUnchanged
		return res
	}
	if dec.Err != nil {
		log.Warn("monitor: change detection failed, processing frame", "err", dec.Err)
	}
	log.Info("monitor: screen changed", "magnitude", fmt.Sprintf("%.1f%%", dec.Magnitude), "reason", dec.Reason)
	m.dump(ctx, img, dec)

	res.Text = m.recognize(ctx, img)
	obs := m.parser.Parse(res.Text)
	res.Events = m.reconciler.Reconcile(m.state, obs)
	if len(res.Events) == 0 {
		log.Debug("monitor: no game events", "text_len", len(res.Text))
		res.Outcome = OutcomeNoEvents
		return res
	}
	log.Info("monitor: game events", "events", res.Events)
	if m.metrics != nil {
		for _, e := range res.Events {
			m.metrics.RecordEvent(ctx, string(e.Kind))
		}
	}

	situation, ok := m.trigger.BuildContext(res.Events, m.state)
	if !ok {
		log.Debug("monitor: nothing new to announce")
		res.Outcome = OutcomeNoContext
		return res
	}
	res.Context = situation
	log.Info("monitor: situation", "context", situation)

	line, err := m.generate(ctx, situation)
	if err != nil {
		log.Warn("monitor: commentary generation failed", "err", err)
		res.Outcome = OutcomeGenerateFailed
		res.Err = err
		return res
	}
	res.Commentary = line
	if m.metrics != nil {
		m.metrics.Announcements.Add(ctx, 1)
	}

	if err := m.speak(ctx, line); err != nil {
		log.Warn("monitor: speech failed", "err", err)
		res.Outcome = OutcomeSpeakFailed
		res.Err = err
		return res
	}
	log.Info("monitor: announced", "commentary", line)
	res.Outcome = OutcomeAnnounced
	return res
}

func (m *Monitor) capture(ctx context.Context) (image.Image, error) {
	start := time.Now()
	img, err := m.source.Capture(ctx)
	m.recordProvider(ctx, m.source, "capture", start, err)
	return img, err
}

func (m *Monitor) recognize(ctx context.Context, img image.Image) string {
	start := time.Now()
	text, err := m.recognizer.Recognize(ctx, img)
	m.recordProvider(ctx, m.recognizer, "ocr", start, err)
	if err != nil {
		observe.Logger(ctx).Warn("monitor: recognition failed, treating screen as empty", "err", err)
		return ""
	}
	return text
}

func (m *Monitor) generate(ctx context.Context, situation string) (string, error) {
	start := time.Now()
	line, err := m.generator.Generate(ctx, situation)
	m.recordProvider(ctx, m.generator, "llm", start, err)
	return line, err
}

func (m *Monitor) speak(ctx context.Context, line string) error {
	start := time.Now()
	err := m.speaker.Speak(ctx, line)
	m.recordProvider(ctx, m.speaker, "speaker", start, err)
	return err
}

func (m *Monitor) dump(ctx context.Context, img image.Image, dec detect.Decision) {
	if m.sink == nil {
		return
	}
	var diff *image.Gray
	if dec.Previous != nil && dec.Current != nil {
		diff = detect.DiffImage(dec.Previous, dec.Current, m.detectOpts.PixelDelta)
	}
	if err := m.sink.Save(ctx, framedump.NewFrame(img, diff, dec.Magnitude, time.Now())); err != nil {
		observe.Logger(ctx).Warn("monitor: saving debug frame failed", "err", err)
	}
}

// recordProvider records latency and request status for one collaborator
// call. Providers are labelled by their concrete type.
func (m *Monitor) recordProvider(ctx context.Context, p any, kind string, start time.Time, err error) {
	if m.metrics == nil {
		return
	}
	seconds := time.Since(start).Seconds()
	switch kind {
	case "capture":
		m.metrics.CaptureDuration.Record(ctx, seconds)
	case "ocr":
		m.metrics.OCRDuration.Record(ctx, seconds)
	case "llm":
		m.metrics.LLMDuration.Record(ctx, seconds)
	case "speaker":
		m.metrics.SpeakDuration.Record(ctx, seconds)
	}
	name := fmt.Sprintf("%T", p)
	status := "ok"
	if err != nil {
		status = "error"
		m.metrics.RecordProviderError(ctx, name, kind)
	}
	m.metrics.RecordProviderRequest(ctx, name, kind, status)
}
