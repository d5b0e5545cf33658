package resilience

import (
	"context"
	"image"

	"github.com/jasonnardone/voice-caddy/pkg/provider/ocr"
)

// OCRFallback is an [ocr.Recognizer] that fails over across several
// recognizers, for example a local tesseract binary backed by a remote OCR
// service.
type OCRFallback struct {
	group *FallbackGroup[ocr.Recognizer]
}

var _ ocr.Recognizer = (*OCRFallback)(nil)

// NewOCRFallback creates an OCRFallback with primary as the preferred
// recognizer.
func NewOCRFallback(primary ocr.Recognizer, primaryName string, cfg FallbackConfig) *OCRFallback {
	return &OCRFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers another recognizer.
func (f *OCRFallback) AddFallback(name string, r ocr.Recognizer) {
	f.group.AddFallback(name, r)
}

// Recognize runs the first healthy recognizer. An empty image is rejected
// up front so it cannot trip any breaker.
func (f *OCRFallback) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ocr.CheckImage(img); err != nil {
		return "", err
	}
	return ExecuteWithResult(f.group, func(r ocr.Recognizer) (string, error) {
		return r.Recognize(ctx, img)
	})
}

// Healthy reports whether any recognizer accepts calls.
func (f *OCRFallback) Healthy() bool { return f.group.Healthy() }
