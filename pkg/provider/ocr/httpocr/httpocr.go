// Package httpocr recognises text by uploading frames to an HTTP OCR
// service as a multipart form. The service answers either with JSON
// containing a "text" field or with plain text.
package httpocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/jasonnardone/voice-caddy/pkg/provider/ocr"
)

// Recognizer implements ocr.Recognizer against an HTTP endpoint.
type Recognizer struct {
	url        string
	apiKey     string
	field      string
	language   string
	httpClient *http.Client
}

var _ ocr.Recognizer = (*Recognizer)(nil)

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithAPIKey sends a bearer token with each request.
func WithAPIKey(key string) Option {
	return func(r *Recognizer) { r.apiKey = key }
}

// WithFieldName sets the multipart field carrying the image. Default "file".
func WithFieldName(name string) Option {
	return func(r *Recognizer) { r.field = name }
}

// WithLanguage adds a "language" form field.
func WithLanguage(lang string) Option {
	return func(r *Recognizer) { r.language = lang }
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Recognizer) { r.httpClient.Timeout = d }
}

// New returns a Recognizer posting to url.
func New(url string, opts ...Option) (*Recognizer, error) {
	if url == "" {
		return nil, fmt.Errorf("httpocr: url must not be empty")
	}
	r := &Recognizer{url: url, field: "file", httpClient: &http.Client{Timeout: 15 * time.Second}}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Recognize implements ocr.Recognizer.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ocr.CheckImage(img); err != nil {
		return "", err
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(r.field, "frame.png")
	if err != nil {
		return "", fmt.Errorf("httpocr: create form file: %w", err)
	}
	if err := png.Encode(fw, img); err != nil {
		return "", fmt.Errorf("httpocr: encode frame: %w", err)
	}
	if r.language != "" {
		if err := mw.WriteField("language", r.language); err != nil {
			return "", fmt.Errorf("httpocr: write language: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("httpocr: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, &body)
	if err != nil {
		return "", fmt.Errorf("httpocr: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("httpocr: POST: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("httpocr: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("httpocr: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mt == "application/json" {
		var out struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return "", fmt.Errorf("httpocr: decode response: %w", err)
		}
		return strings.TrimSpace(out.Text), nil
	}
	return strings.TrimSpace(string(data)), nil
}
