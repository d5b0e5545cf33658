// Package scripted renders synthetic simulator screens from HUD text. A
// Screen is both a capture.Source and an ocr.Recognizer: it "recognizes"
// the text it last rendered, so the whole pipeline can run without a
// simulator or an OCR engine.
package scripted

import (
	"context"
	"image"
	"image/color"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/jasonnardone/voice-caddy/pkg/provider/capture"
	"github.com/jasonnardone/voice-caddy/pkg/provider/ocr"
)

// Frame describes one rendered screen. Scene selects the course backdrop;
// a new scene models the camera moving to a new shot or hole.
type Frame struct {
	Scene int
	Lines []string
}

// Screen implements capture.Source and ocr.Recognizer.
type Screen struct {
	mu      sync.Mutex
	width   int
	height  int
	scale   int
	current Frame
	shown   Frame
}

var (
	_ capture.Source = (*Screen)(nil)
	_ ocr.Recognizer = (*Screen)(nil)
)

// Option configures a Screen.
type Option func(*Screen)

// WithSize sets the output frame size. Default 400x300.
func WithSize(w, h int) Option {
	return func(s *Screen) { s.width, s.height = w, h }
}

// WithScale sets the HUD text magnification. Default 3.
func WithScale(n int) Option {
	return func(s *Screen) { s.scale = max(n, 1) }
}

// New returns an empty Screen.
func New(opts ...Option) *Screen {
	s := &Screen{width: 400, height: 300, scale: 3}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Show sets the frame returned by the next Capture.
func (s *Screen) Show(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Frame{Scene: f.Scene, Lines: append([]string(nil), f.Lines...)}
}

// Capture implements capture.Source.
func (s *Screen) Capture(_ context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = s.current
	return Render(s.current, s.width, s.height, s.scale), nil
}

// Recognize implements ocr.Recognizer. It returns the HUD lines of the most
// recently captured frame, one per line.
func (s *Screen) Recognize(_ context.Context, img image.Image) (string, error) {
	if err := ocr.CheckImage(img); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.shown.Lines, "\n"), nil
}

// Render draws f as a w×h greyscale image: a sky band, a ground band whose
// shade depends on the scene, and a HUD panel holding the text lines.
func Render(f Frame, w, h, scale int) *image.Gray {
	scale = max(scale, 1)
	sw, sh := max(w/scale, 1), max(h/scale, 1)
	small := image.NewGray(image.Rect(0, 0, sw, sh))

	horizon := sh / 3
	ground := color.Gray{Y: uint8(60 + (f.Scene*37)%120)}
	draw.Draw(small, image.Rect(0, 0, sw, horizon), image.NewUniform(color.Gray{Y: 190}), image.Point{}, draw.Src)
	draw.Draw(small, image.Rect(0, horizon, sw, sh), image.NewUniform(ground), image.Point{}, draw.Src)

	const lineHeight = 15
	if len(f.Lines) > 0 {
		panel := image.Rect(2, 2, sw-2, min(2+len(f.Lines)*lineHeight+4, sh-2))
		draw.Draw(small, panel, image.NewUniform(color.Gray{Y: 20}), image.Point{}, draw.Src)
	}
	d := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.Gray{Y: 255}),
		Face: basicfont.Face7x13,
	}
	for i, line := range f.Lines {
		d.Dot = fixed.P(5, 2+(i+1)*lineHeight-2)
		d.DrawString(line)
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(out, out.Bounds(), small, small.Bounds(), draw.Src, nil)
	return out
}
