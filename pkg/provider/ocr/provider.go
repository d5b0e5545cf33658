// Package ocr defines the Recognizer interface that turns a screen capture
// into text.
//
// Recognised text is treated as untrusted: it may be empty, partial or
// noisy. Validation happens downstream in the parser, never here.
package ocr

import (
	"context"
	"errors"
	"image"
)

// ErrEmptyImage is returned when a recognizer is handed a nil or zero-size
// image.
var ErrEmptyImage = errors.New("ocr: empty image")

// Recognizer extracts text from an image.
//
// Implementations must be safe for concurrent use and must return promptly
// once ctx is cancelled.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// CheckImage returns ErrEmptyImage if img has no pixels.
func CheckImage(img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return ErrEmptyImage
	}
	return nil
}
