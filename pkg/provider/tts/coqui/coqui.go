// Package coqui provides a TTS provider for a locally hosted Coqui TTS
// server, for announcers that should work without a cloud account.
//
// Two server flavours are supported:
//
//   - APIModeStandard (default): the stock Coqui TTS server. Synthesis is
//     GET /api/tts, voices come from GET /details.
//   - APIModeXTTS: the XTTS v2 API server. Synthesis is POST /tts_to_audio/,
//     voices come from GET /studio_speakers.
//
// Both are batch APIs: one HTTP call per commentary line. The WAV reply is
// unwrapped and optionally resampled before being handed out as a single
// PCM chunk sequence.
package coqui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/jasonnardone/voice-caddy/pkg/provider/tts"
)

var _ tts.Provider = (*Provider)(nil)

const (
	defaultLanguage = "en"
	defaultTimeout  = 30 * time.Second
	pcmChunkSize    = 4096
)

// APIMode selects the server flavour.
type APIMode string

const (
	APIModeStandard APIMode = "standard"
	APIModeXTTS     APIMode = "xtts"
)

// Option configures a Provider.
type Option func(*Provider)

// WithLanguage sets the language code sent with each request.
func WithLanguage(lang string) Option {
	return func(p *Provider) { p.language = lang }
}

// WithTimeout sets the HTTP timeout for a single synthesis call.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.httpClient.Timeout = d }
}

// WithAPIMode selects the server flavour.
func WithAPIMode(mode APIMode) Option {
	return func(p *Provider) { p.apiMode = mode }
}

// WithOutputSampleRate resamples mono output to rate. Zero keeps the
// server's native rate, which then must be known up front for Format.
func WithOutputSampleRate(rate int) Option {
	return func(p *Provider) { p.outputRate = rate }
}

// Provider implements tts.Provider against a Coqui server.
type Provider struct {
	serverURL  string
	language   string
	apiMode    APIMode
	outputRate int
	httpClient *http.Client
}

// New creates a Provider for the server at serverURL.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("coqui: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:  strings.TrimRight(serverURL, "/"),
		language:   defaultLanguage,
		apiMode:    APIModeStandard,
		outputRate: 22050,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(ctx context.Context, text string, voice tts.Voice) (<-chan []byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("coqui: empty text")
	}
	req, err := p.newSynthRequest(ctx, text, voice)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coqui: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coqui: %s %s returned status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("coqui: read WAV: %w", err)
	}
	info, err := tts.ParseWAV(wav)
	if err != nil {
		return nil, fmt.Errorf("coqui: %w", err)
	}
	pcm := wav[info.DataOffset:]
	if p.outputRate > 0 && info.Channels == 1 {
		pcm = tts.ResampleMono16(pcm, info.SampleRate, p.outputRate)
	}

	audio := make(chan []byte, len(pcm)/pcmChunkSize+1)
	for chunk := range slices.Chunk(pcm, pcmChunkSize) {
		audio <- chunk
	}
	close(audio)
	return audio, nil
}

func (p *Provider) newSynthRequest(ctx context.Context, text string, voice tts.Voice) (*http.Request, error) {
	if p.apiMode == APIModeXTTS {
		body, err := json.Marshal(struct {
			Text       string `json:"text"`
			SpeakerWav string `json:"speaker_wav"`
			Language   string `json:"language"`
		}{text, voice.ID, p.language})
		if err != nil {
			return nil, fmt.Errorf("coqui: marshal request: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+"/tts_to_audio/", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("coqui: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "audio/wav")
		return req, nil
	}

	q := url.Values{}
	q.Set("text", text)
	if voice.ID != "" {
		q.Set("speaker_id", voice.ID)
	}
	if p.language != "" {
		q.Set("language_id", p.language)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serverURL+"/api/tts?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("coqui: create request: %w", err)
	}
	req.Header.Set("Accept", "audio/wav")
	return req, nil
}

// ListVoices implements tts.Provider.
func (p *Provider) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	path := "/details"
	if p.apiMode == APIModeXTTS {
		path = "/studio_speakers"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serverURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("coqui: create list-voices request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coqui: GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coqui: GET %s returned status %d", path, resp.StatusCode)
	}

	var names []string
	if p.apiMode == APIModeXTTS {
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return nil, fmt.Errorf("coqui: decode studio speakers: %w", err)
		}
		for name := range raw {
			names = append(names, name)
		}
	} else {
		var details struct {
			ModelName string   `json:"model_name"`
			Speakers  []string `json:"speakers"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
			return nil, fmt.Errorf("coqui: decode details: %w", err)
		}
		names = details.Speakers
		if len(names) == 0 {
			names = []string{cmpOr(details.ModelName, "default")}
		}
	}
	slices.Sort(names)

	voices := make([]tts.Voice, 0, len(names))
	for _, n := range names {
		voices = append(voices, tts.Voice{ID: n, Name: n, Provider: "coqui"})
	}
	return voices, nil
}

// Format implements tts.Provider.
func (p *Provider) Format() tts.Format {
	return tts.Format{SampleRate: p.outputRate, Channels: 1}
}

func cmpOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
