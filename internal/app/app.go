// Package app wires the caddy subsystems into a running application.
//
// The App owns the full lifecycle: New builds the commentary stack and the
// monitor from the config, Run executes the monitor loop next to the status
// server and config watcher, and Shutdown prints the session report and
// tears everything down in order.
//
// Providers are built by the caller (usually via config.Registry) and
// passed in, so tests can inject mocks for every collaborator.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jasonnardone/voice-caddy/internal/commentary"
	"github.com/jasonnardone/voice-caddy/internal/config"
	"github.com/jasonnardone/voice-caddy/internal/detect"
	"github.com/jasonnardone/voice-caddy/internal/framedump"
	"github.com/jasonnardone/voice-caddy/internal/game"
	"github.com/jasonnardone/voice-caddy/internal/health"
	"github.com/jasonnardone/voice-caddy/internal/monitor"
	"github.com/jasonnardone/voice-caddy/internal/observe"
	"github.com/jasonnardone/voice-caddy/pkg/provider/capture"
	"github.com/jasonnardone/voice-caddy/pkg/provider/llm"
	"github.com/jasonnardone/voice-caddy/pkg/provider/ocr"
	"github.com/jasonnardone/voice-caddy/pkg/provider/speaker"
)

// Providers holds one value per collaborator slot. LLM may be nil in plain
// commentary mode.
type Providers struct {
	Capture capture.Source
	OCR     ocr.Recognizer
	LLM     llm.Provider
	Speaker speaker.Speaker
}

// healthReporter is implemented by fallback groups.
type healthReporter interface {
	Healthy() bool
}

// App owns all subsystem lifetimes.
type App struct {
	cfg       *config.Config
	providers *Providers

	personas  commentary.Personas
	generator commentary.Generator
	llmGen    *commentary.LLMGenerator
	stats     *monitor.Stats
	monitor   *monitor.Monitor
	sink      framedump.Sink
	metrics   *observe.Metrics

	telemetry  *observe.Telemetry
	level      *slog.LevelVar
	configPath string
	report     io.Writer
	listener   net.Listener

	cycles atomic.Int64

	// closers are called in order during Shutdown.
	closers  []func(context.Context) error
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithTelemetry serves t's Prometheus handler on /metrics and shuts it
// down with the app.
func WithTelemetry(t *observe.Telemetry) Option {
	return func(a *App) { a.telemetry = t }
}

// WithLogLevel lets config reloads change the log level.
func WithLogLevel(v *slog.LevelVar) Option {
	return func(a *App) { a.level = v }
}

// WithConfigPath watches path and applies live-tunable changes.
func WithConfigPath(path string) Option {
	return func(a *App) { a.configPath = path }
}

// WithReportWriter sets where the session report is printed. Default
// stdout.
func WithReportWriter(w io.Writer) Option {
	return func(a *App) { a.report = w }
}

// WithSink overrides the debug frame sink built from the config.
func WithSink(s framedump.Sink) Option {
	return func(a *App) { a.sink = s }
}

// WithListener serves the status endpoints on l instead of listening on
// server.listen_addr.
func WithListener(l net.Listener) Option {
	return func(a *App) { a.listener = l }
}

// New builds the commentary stack and the monitor.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	a := &App{
		cfg:       cfg,
		providers: providers,
		stats:     monitor.NewStats(),
		metrics:   observe.DefaultMetrics(),
		report:    os.Stdout,
	}
	for _, o := range opts {
		o(a)
	}
	if a.telemetry != nil {
		a.closers = append(a.closers, a.telemetry.Shutdown)
	}

	if err := a.initCommentary(); err != nil {
		return nil, fmt.Errorf("app: init commentary: %w", err)
	}
	if err := a.initSink(ctx); err != nil {
		return nil, fmt.Errorf("app: init debug frames: %w", err)
	}
	if err := a.initMonitor(); err != nil {
		return nil, fmt.Errorf("app: init monitor: %w", err)
	}
	return a, nil
}

func (a *App) initCommentary() error {
	personas := commentary.Builtin()
	if path := a.cfg.Commentary.PersonalitiesFile; path != "" {
		loaded, err := commentary.LoadPersonas(path)
		if err != nil {
			return err
		}
		personas = loaded
	}
	a.personas = personas

	persona, ok := personas.Lookup(a.cfg.Commentary.Personality)
	if !ok {
		slog.Warn("unknown personality, using the default prompt",
			"personality", a.cfg.Commentary.Personality, "available", personas.Keys())
	}

	switch a.cfg.Commentary.Mode {
	case config.ModePlain:
		a.generator = commentary.PlainGenerator{}
	default:
		if a.providers.LLM == nil {
			return errors.New("ai commentary requires an LLM provider")
		}
		gen, err := commentary.NewLLMGenerator(a.providers.LLM, persona,
			commentary.WithMaxTokens(a.cfg.Commentary.MaxTokens),
			commentary.WithTemperature(a.cfg.Commentary.Temperature),
			commentary.WithUsage(a.stats.AddUsage),
		)
		if err != nil {
			return err
		}
		a.generator, a.llmGen = gen, gen
	}
	a.applyRate(persona, a.cfg.Speaker.Rate)
	slog.Info("commentary ready", "mode", a.cfg.Commentary.Mode, "personality", persona.Name)
	return nil
}

// applyRate sets the speaking rate to rate, falling back to the
// personality's rate when rate is zero.
func (a *App) applyRate(p commentary.Persona, rate int) {
	rs, ok := a.providers.Speaker.(speaker.RateSetter)
	if !ok {
		return
	}
	if rate == 0 {
		rate = p.VoiceRate
	}
	if rate > 0 {
		rs.SetRate(rate)
	}
}

func (a *App) initSink(ctx context.Context) error {
	if a.sink != nil || !a.cfg.Debug.Enabled {
		return nil
	}
	file, err := framedump.NewFileSink(a.cfg.Debug.Dir)
	if err != nil {
		return err
	}
	sinks := framedump.Multi{file}
	if d := a.cfg.Debug; d.S3Bucket != "" {
		s3, err := framedump.NewS3Sink(ctx, d.S3Bucket, d.S3Region, d.S3Prefix)
		if err != nil {
			return err
		}
		sinks = append(sinks, s3)
	}
	a.sink = sinks
	slog.Info("debug frames enabled", "dir", file.Dir(), "s3_bucket", a.cfg.Debug.S3Bucket)
	return nil
}

func (a *App) initMonitor() error {
	m := a.cfg.Monitor
	dopts := detect.DefaultOptions()
	dopts.Threshold = m.ChangeThreshold

	opts := []monitor.Option{
		monitor.WithInterval(m.Interval),
		monitor.WithCycleTimeout(m.CycleTimeout),
		monitor.WithDetectOptions(dopts),
		monitor.WithThresholds(thresholds(m)),
		monitor.WithMetrics(a.metrics),
		monitor.WithStats(a.stats),
		monitor.WithObserver(func(monitor.CycleResult) { a.cycles.Add(1) }),
	}
	if a.sink != nil {
		opts = append(opts, monitor.WithSink(a.sink))
	}
	mon, err := monitor.New(a.providers.Capture, a.providers.OCR, a.generator, a.providers.Speaker, opts...)
	if err != nil {
		return err
	}
	a.monitor = mon
	return nil
}

func thresholds(m config.MonitorConfig) game.Thresholds {
	return game.Thresholds{ShotDeltaYards: m.ShotDeltaYards, WindSignificanceMph: m.WindThresholdMph}
}

// Stats returns the session statistics.
func (a *App) Stats() *monitor.Stats { return a.stats }

// Handler returns the status endpoints: /healthz, /readyz, /statusz and,
// with telemetry, /metrics.
func (a *App) Handler() http.Handler {
	checks := []health.Checker{{
		Name: "monitor",
		Check: func(context.Context) error {
			if a.cycles.Load() == 0 {
				return errors.New("no cycle completed yet")
			}
			return nil
		},
	}}
	if hr, ok := a.providers.LLM.(healthReporter); ok {
		checks = append(checks, health.Checker{
			Name: "llm",
			Check: func(context.Context) error {
				if !hr.Healthy() {
					return errors.New("all llm providers unavailable")
				}
				return nil
			},
		})
	}
	if hr, ok := a.providers.OCR.(healthReporter); ok {
		checks = append(checks, health.Checker{
			Name: "ocr",
			Check: func(context.Context) error {
				if !hr.Healthy() {
					return errors.New("all recognizers unavailable")
				}
				return nil
			},
		})
	}

	mux := http.NewServeMux()
	health.New(
		health.WithCheckers(checks...),
		health.WithStatus(func() any { return a.stats.Snapshot() }),
	).Register(mux)
	if a.telemetry != nil {
		mux.Handle("GET /metrics", a.telemetry.MetricsHandler())
	}
	return observe.Middleware(a.metrics)(mux)
}

// Run starts the monitor loop and its auxiliary services and blocks until
// ctx is cancelled or the image source runs out of frames. A clean stop
// returns nil.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return a.monitor.Run(gctx)
	})

	if a.listener != nil || a.cfg.Server.ListenAddr != "" {
		g.Go(func() error { return a.serve(gctx) })
	}

	if a.configPath != "" {
		w, err := config.NewWatcher(a.configPath, a.applyConfig)
		if err != nil {
			slog.Warn("config hot reload disabled", "path", a.configPath, "err", err)
		} else {
			g.Go(func() error {
				<-gctx.Done()
				w.Stop()
				return nil
			})
		}
	}

	slog.Info("caddy running", "interval", a.monitor.Interval(), "change_threshold", a.monitor.Threshold())
	return g.Wait()
}

func (a *App) serve(ctx context.Context) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	l := a.listener
	if l == nil {
		var err error
		l, err = net.Listen("tcp", a.cfg.Server.ListenAddr)
		if err != nil {
			return fmt.Errorf("app: listen %q: %w", a.cfg.Server.ListenAddr, err)
		}
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(l) }()
	slog.Info("status server listening", "addr", l.Addr().String())

	select {
	case err := <-errc:
		return fmt.Errorf("app: status server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("app: status server shutdown: %w", err)
	}
	return nil
}

// applyConfig is the watcher callback. Only live tunables are applied;
// other changes are logged.
func (a *App) applyConfig(old, cur *config.Config) {
	d := config.Diff(old, cur)
	if d.LogLevelChanged && a.level != nil {
		a.level.Set(SlogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.TuningChanged {
		a.monitor.Tune(monitor.Tuning{
			Interval:        cur.Monitor.Interval,
			ChangeThreshold: cur.Monitor.ChangeThreshold,
			Thresholds:      thresholds(cur.Monitor),
		})
	}
	if d.PersonalityChanged || d.RateChanged {
		a.switchPersonality(cur)
	}
	if len(d.RestartRequired) > 0 {
		slog.Warn("config changes need a restart to take effect", "sections", d.RestartRequired)
	}
}

func (a *App) switchPersonality(cur *config.Config) {
	personas := a.personas
	if cur.Commentary.PersonalitiesFile != "" {
		loaded, err := commentary.LoadPersonas(cur.Commentary.PersonalitiesFile)
		if err != nil {
			slog.Warn("keeping previous personalities", "err", err)
		} else {
			personas = loaded
		}
	}
	a.personas = personas

	p, ok := personas.Lookup(cur.Commentary.Personality)
	if !ok {
		slog.Warn("unknown personality, using the default prompt", "personality", cur.Commentary.Personality)
	}
	if a.llmGen != nil {
		a.llmGen.SetPersona(p)
	}
	a.applyRate(p, cur.Speaker.Rate)
	slog.Info("personality switched", "personality", p.Name)
}

// Shutdown prints the session report and runs the closers. If ctx expires
// before all closers finish, the remaining ones are skipped.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		if err := a.stats.Snapshot().WriteReport(a.report); err != nil {
			slog.Warn("writing session report failed", "err", err)
		}

		for i, closer := range a.closers {
			if err := ctx.Err(); err != nil {
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = err
				return
			}
			if err := closer(ctx); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// SlogLevel maps a config log level to slog.
func SlogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
