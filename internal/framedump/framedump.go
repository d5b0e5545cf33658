// Package framedump saves the frames that triggered processing, together
// with a mask of the changed pixels, for tuning the change threshold after
// a session.
package framedump

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/google/uuid"
)

// Frame is one changed screen.
type Frame struct {
	ID        string
	At        time.Time
	Magnitude float64
	Image     image.Image
	// Diff marks changed pixels white. It may be nil (first frame,
	// fail-open decisions).
	Diff *image.Gray
}

// NewFrame stamps a frame with a fresh ID.
func NewFrame(img image.Image, diff *image.Gray, magnitude float64, at time.Time) Frame {
	return Frame{ID: uuid.NewString(), At: at, Magnitude: magnitude, Image: img, Diff: diff}
}

// Sink stores frames.
type Sink interface {
	Save(ctx context.Context, f Frame) error
}

// baseName is shared by all sinks: change_<timestamp>_<id prefix>.
func baseName(f Frame) string {
	id := f.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s_%s", f.At.Format("20060102_150405"), id)
}

// encode returns the PNG files to write for f, keyed by name.
func encode(f Frame) (map[string][]byte, error) {
	if f.Image == nil {
		return nil, errors.New("framedump: frame has no image")
	}
	out := make(map[string][]byte, 2)
	base := baseName(f)
	var buf bytes.Buffer
	if err := png.Encode(&buf, f.Image); err != nil {
		return nil, fmt.Errorf("framedump: encode frame: %w", err)
	}
	out["change_"+base+".png"] = bytes.Clone(buf.Bytes())
	if f.Diff != nil {
		buf.Reset()
		if err := png.Encode(&buf, f.Diff); err != nil {
			return nil, fmt.Errorf("framedump: encode diff: %w", err)
		}
		out["diff_"+base+".png"] = bytes.Clone(buf.Bytes())
	}
	return out, nil
}

// Multi saves every frame to all sinks and joins their errors.
type Multi []Sink

// Save implements Sink.
func (m Multi) Save(ctx context.Context, f Frame) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
