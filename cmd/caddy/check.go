package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/jasonnardone/voice-caddy/internal/config"
	capcmd "github.com/jasonnardone/voice-caddy/pkg/provider/capture/command"
	"github.com/jasonnardone/voice-caddy/pkg/provider/llm"
	"github.com/jasonnardone/voice-caddy/pkg/provider/ocr/tesseract"
	spkcmd "github.com/jasonnardone/voice-caddy/pkg/provider/speaker/command"
)

// checkResult is one line of the environment report.
type checkResult struct {
	Name   string
	Detail string
	Err    error
}

func newCheckCmd(root *rootFlags) *cobra.Command {
	var skipLLM bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check configuration and external dependencies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			cfg, _, err := loadConfig(cmd, root)
			if err != nil {
				printChecks(cmd.OutOrStdout(), []checkResult{{Name: "config", Err: err}})
				return errors.New("configuration is invalid")
			}
			if root.apiKey != "" {
				cfg.Providers.LLM.APIKey = root.apiKey
			}
			newLogger(cfg.Server.LogLevel, root.verbose)

			reg := config.NewRegistry()
			registerBuiltinProviders(reg)
			results := runChecks(ctx, cfg, reg, skipLLM)
			printChecks(cmd.OutOrStdout(), results)
			for _, r := range results {
				if r.Err != nil {
					return errors.New("some checks failed")
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipLLM, "skip-llm", false, "do not send a test request to the LLM")
	return cmd
}

func runChecks(ctx context.Context, cfg *config.Config, reg *config.Registry, skipLLM bool) []checkResult {
	results := []checkResult{{Name: "config", Detail: "valid"}}

	switch cfg.Capture.Name {
	case "command":
		command := cfg.Capture.Command
		if command == "" {
			command = defaultCaptureCommand()
		}
		results = append(results, checkProgram("capture", command, func(c string) (string, error) {
			s, err := capcmd.New(c)
			if err != nil {
				return "", err
			}
			return s.Program(), nil
		}))
	default:
		results = append(results, checkResult{Name: "capture", Detail: cfg.Capture.Name})
	}

	switch cfg.OCR.Name {
	case "tesseract":
		var opts []tesseract.Option
		if cfg.OCR.Command != "" {
			opts = append(opts, tesseract.WithBinary(cfg.OCR.Command))
		}
		v, err := tesseract.New(opts...).Version(ctx)
		results = append(results, checkResult{Name: "ocr", Detail: v, Err: err})
	default:
		results = append(results, checkResult{Name: "ocr", Detail: cfg.OCR.Name})
	}

	if cfg.Speaker.Name == "command" {
		results = append(results, checkProgram("speaker", cfg.Speaker.Command, func(c string) (string, error) {
			s, err := spkcmd.New(c)
			if err != nil {
				return "", err
			}
			return s.Program(), nil
		}))
	} else {
		results = append(results, checkResult{Name: "speaker", Detail: cfg.Speaker.Name})
	}

	if cfg.Commentary.Mode != config.ModeAI {
		return append(results, checkResult{Name: "llm", Detail: "plain commentary, not needed"})
	}
	key := checkResult{Name: "api key", Detail: "set"}
	if cfg.Providers.LLM.APIKey == "" {
		key.Detail = "not in config; the provider may read it from its environment variable"
	}
	results = append(results, key)

	if skipLLM {
		return append(results, checkResult{Name: "llm", Detail: "skipped"})
	}
	p, err := buildLLM(cfg.Providers, reg)
	if err != nil {
		return append(results, checkResult{Name: "llm", Err: err})
	}
	return append(results, checkLLM(ctx, p))
}

// checkProgram resolves the program of command on PATH.
func checkProgram(name, command string, program func(string) (string, error)) checkResult {
	if command == "" {
		return checkResult{Name: name, Err: errors.New("no command configured")}
	}
	prog, err := program(command)
	if err != nil {
		return checkResult{Name: name, Err: err}
	}
	path, err := exec.LookPath(prog)
	if err != nil {
		return checkResult{Name: name, Err: fmt.Errorf("%s not found: %w", prog, err)}
	}
	return checkResult{Name: name, Detail: path}
}

// checkLLM sends a minimal completion request.
func checkLLM(ctx context.Context, p llm.Provider) checkResult {
	info := p.Info()
	resp, err := p.Complete(ctx, llm.CompletionRequest{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: "Reply with the single word OK."}},
		MaxTokens: 5,
	})
	if err != nil {
		return checkResult{Name: "llm", Detail: info.Model, Err: err}
	}
	return checkResult{Name: "llm", Detail: fmt.Sprintf("%s replied %q", info.Model, resp.Content)}
}

func printChecks(w io.Writer, results []checkResult) {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "✗ %-8s %v\n", r.Name, r.Err)
			continue
		}
		fmt.Fprintf(w, "✓ %-8s %s\n", r.Name, r.Detail)
	}
}
