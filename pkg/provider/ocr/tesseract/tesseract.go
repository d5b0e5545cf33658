// Package tesseract recognises screen text with the tesseract command line
// tool. Frames are piped in as PNG and the recognised text is read from
// stdout, so no temporary files are written.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strconv"
	"strings"

	"github.com/jasonnardone/voice-caddy/pkg/provider/internal/cmdrun"
	"github.com/jasonnardone/voice-caddy/pkg/provider/ocr"
)

// Recognizer implements ocr.Recognizer with the tesseract binary.
type Recognizer struct {
	bin  string
	lang string
	psm  int
	run  cmdrun.Runner
}

var _ ocr.Recognizer = (*Recognizer)(nil)

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithBinary sets the tesseract executable path.
func WithBinary(path string) Option {
	return func(r *Recognizer) { r.bin = path }
}

// WithLanguage sets the tesseract language pack, e.g. "eng".
func WithLanguage(lang string) Option {
	return func(r *Recognizer) { r.lang = lang }
}

// WithPageSegMode sets the --psm value. 11 (sparse text) suits HUD
// overlays scattered across the screen.
func WithPageSegMode(psm int) Option {
	return func(r *Recognizer) { r.psm = psm }
}

// WithRunner replaces the process runner.
func WithRunner(run cmdrun.Runner) Option {
	return func(r *Recognizer) { r.run = run }
}

// New returns a Recognizer. Defaults: "tesseract", "eng", psm 11.
func New(opts ...Option) *Recognizer {
	r := &Recognizer{bin: "tesseract", lang: "eng", psm: 11, run: cmdrun.Exec}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Recognize implements ocr.Recognizer.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ocr.CheckImage(img); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("tesseract: encode frame: %w", err)
	}
	args := []string{"stdin", "stdout", "-l", r.lang, "--psm", strconv.Itoa(r.psm)}
	out, err := r.run(ctx, r.bin, args, buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("tesseract: recognize: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Version runs tesseract --version and returns the first line.
func (r *Recognizer) Version(ctx context.Context) (string, error) {
	out, err := r.run(ctx, r.bin, []string{"--version"}, nil)
	if err != nil {
		return "", fmt.Errorf("tesseract: version: %w", err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return line, nil
}
