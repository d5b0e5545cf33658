// Package capture defines the Source interface for acquiring screen frames
// from the golf simulator.
//
// A Source returns one full frame per call. Implementations range from a
// screenshot helper program to a directory of recorded frames; callers
// treat every error as "skip this cycle".
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// ErrNoFrames is returned by sources that have run out of frames.
var ErrNoFrames = errors.New("capture: no frames available")

// Source acquires screen frames.
//
// Implementations must be safe for sequential use from one goroutine; the
// monitor loop never calls Capture concurrently.
type Source interface {
	// Capture returns the current screen image.
	Capture(ctx context.Context) (image.Image, error)
}

// Region restricts a Source to a sub-rectangle of each frame, for setups
// where the HUD occupies a known part of the screen.
type Region struct {
	src  Source
	rect image.Rectangle
}

var _ Source = (*Region)(nil)

// NewRegion wraps src so that only rect is returned. An empty rect is an
// error.
func NewRegion(src Source, rect image.Rectangle) (*Region, error) {
	if rect.Empty() {
		return nil, fmt.Errorf("capture: region %v is empty", rect)
	}
	return &Region{src: src, rect: rect}, nil
}

// Capture implements Source. Frames that do not overlap the region are an
// error.
func (r *Region) Capture(ctx context.Context) (image.Image, error) {
	img, err := r.src.Capture(ctx)
	if err != nil {
		return nil, err
	}
	rect := r.rect.Add(img.Bounds().Min).Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("capture: region %v outside frame %v", r.rect, img.Bounds())
	}
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out, nil
}
