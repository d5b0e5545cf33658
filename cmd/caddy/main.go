// Command caddy watches a golf simulator screen and announces what
// happens in the round with the voice of a chosen caddy personality.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jasonnardone/voice-caddy/internal/app"
	"github.com/jasonnardone/voice-caddy/internal/config"
	"github.com/jasonnardone/voice-caddy/internal/observe"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	ExitSuccess = 0
	ExitError   = 1
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	apiKey     string
	verbose    bool
}

// newRootCmd creates the root command and its subcommands.
func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "caddy",
		Short: "AI voice caddy for golf simulators",
		Long: `caddy watches the golf simulator screen, reads the hole, par, distance
and wind from it, and announces every change with a caddy personality.`,
		Version:       version,
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().StringVar(&f.configPath, "config", "caddy.yaml", "path to the YAML configuration file")
	cmd.PersistentFlags().StringVar(&f.apiKey, "api-key", os.Getenv("CADDY_API_KEY"), "LLM API key (or env: CADDY_API_KEY)")
	cmd.PersistentFlags().BoolVar(&f.verbose, "verbose", false, "enable debug logging")

	cmd.AddCommand(
		newRunCmd(f),
		newDemoCmd(f),
		newPersonalitiesCmd(f),
		newCheckCmd(f),
	)
	return cmd
}

// loadConfig reads f.configPath. A missing file yields the defaults unless
// --config was given explicitly. The returned path is empty when no file
// was read.
func loadConfig(cmd *cobra.Command, f *rootFlags) (*config.Config, string, error) {
	cfg, err := config.Load(f.configPath)
	switch {
	case err == nil:
		return cfg, f.configPath, nil
	case errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
		return cfg, "", nil
	case errors.Is(err, os.ErrNotExist):
		return nil, "", fmt.Errorf("config file %q not found; copy configs/example.yaml to get started", f.configPath)
	default:
		return nil, "", err
	}
}

// newLogger installs a text logger on stderr whose level can change while
// running.
func newLogger(level config.LogLevel, verbose bool) *slog.LevelVar {
	lv := new(slog.LevelVar)
	lv.Set(app.SlogLevel(level))
	if verbose {
		lv.Set(slog.LevelDebug)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv})))
	return lv
}

// runFlags override config values for one run.
type runFlags struct {
	personality string
	plain       bool
	interval    time.Duration
	threshold   float64
	debug       bool
	listen      string
}

func newRunCmd(root *rootFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Monitor the simulator screen and announce changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMonitor(cmd, root, f)
		},
	}
	cmd.Flags().StringVarP(&f.personality, "personality", "p", "", "caddy personality (see 'caddy personalities')")
	cmd.Flags().BoolVar(&f.plain, "plain", false, "speak the situation without an LLM")
	cmd.Flags().DurationVar(&f.interval, "interval", 0, "delay between screenshots (e.g. 1s)")
	cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "percentage of changed pixels that counts as a new screen")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "save changed frames and diff images")
	cmd.Flags().StringVar(&f.listen, "listen", "", "serve /healthz, /readyz, /statusz and /metrics on this address")
	return cmd
}

// applyRunFlags copies explicitly set flags into cfg.
func applyRunFlags(cfg *config.Config, root *rootFlags, f *runFlags) {
	if f.personality != "" {
		cfg.Commentary.Personality = f.personality
	}
	if f.plain {
		cfg.Commentary.Mode = config.ModePlain
	}
	if f.interval > 0 {
		cfg.Monitor.Interval = f.interval
	}
	if f.threshold > 0 {
		cfg.Monitor.ChangeThreshold = f.threshold
	}
	if f.debug {
		cfg.Debug.Enabled = true
	}
	if f.listen != "" {
		cfg.Server.ListenAddr = f.listen
	}
	if root.apiKey != "" {
		cfg.Providers.LLM.APIKey = root.apiKey
	}
}

func runMonitor(cmd *cobra.Command, root *rootFlags, f *runFlags) error {
	cfg, path, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}
	applyRunFlags(cfg, root, f)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := newLogger(cfg.Server.LogLevel, root.verbose)
	slog.Info("caddy starting",
		"version", version,
		"config", path,
		"mode", cfg.Commentary.Mode,
		"personality", cfg.Commentary.Personality,
	)

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)
	providers, err := buildProviders(cfg, reg)
	if err != nil {
		return fmt.Errorf("build providers: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	opts := []app.Option{app.WithTelemetry(tel), app.WithLogLevel(level)}
	if path != "" {
		opts = append(opts, app.WithConfigPath(path))
	}

	printStartupSummary(cmd.OutOrStdout(), cfg)

	application, err := app.New(ctx, cfg, providers, opts...)
	if err != nil {
		return fmt.Errorf("initialise application: %w", err)
	}

	slog.Info("caddy ready, press Ctrl+C to stop")
	runErr := application.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("run error", "err", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	slog.Info("stopping")
	if err := application.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	slog.Info("goodbye")
	return nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "╔═══════════════════════════════════════╗")
	fmt.Fprintln(w, "║        Voice caddy: startup summary   ║")
	fmt.Fprintln(w, "╠═══════════════════════════════════════╣")
	printRow(w, "Capture", cfg.Capture.Name, "")
	printRow(w, "OCR", cfg.OCR.Name, "")
	if cfg.Commentary.Mode == config.ModeAI {
		printRow(w, "LLM", cfg.Providers.LLM.Name, cfg.Providers.LLM.Model)
	} else {
		printRow(w, "LLM", "", "")
	}
	printRow(w, "Speaker", cfg.Speaker.Name, "")
	printRow(w, "Personality", cfg.Commentary.Personality, "")
	printRow(w, "Interval", cfg.Monitor.Interval.String(), "")
	printRow(w, "Threshold", fmt.Sprintf("%.1f%%", cfg.Monitor.ChangeThreshold), "")
	if cfg.Server.ListenAddr != "" {
		printRow(w, "Listen addr", cfg.Server.ListenAddr, "")
	}
	if cfg.Debug.Enabled {
		printRow(w, "Debug frames", cfg.Debug.Dir, "")
	}
	fmt.Fprintln(w, "╚═══════════════════════════════════════╝")
}

func printRow(w io.Writer, kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if r := []rune(value); len(r) > 19 {
		value = string(r[:16]) + "…"
	}
	fmt.Fprintf(w, "║  %-12s    : %-19s ║\n", kind, value)
}
