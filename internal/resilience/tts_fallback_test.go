package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/jasonnardone/voice-caddy/pkg/provider/tts"
	ttsmock "github.com/jasonnardone/voice-caddy/pkg/provider/tts/mock"
)

func TestTTSFallback_Failover(t *testing.T) {
	t.Parallel()
	primary := &ttsmock.Provider{SynthesizeErr: errors.New("quota exceeded")}
	secondary := &ttsmock.Provider{AudioChunks: [][]byte{{1, 2}, {3, 4}}}
	fb := NewTTSFallback(primary, "elevenlabs", FallbackConfig{})
	fb.AddFallback("coqui", secondary)

	audio, err := fb.Synthesize(context.Background(), "Nice putt", tts.Voice{ID: "v"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	pcm, _ := tts.Collect(context.Background(), audio)
	if len(pcm) != 4 {
		t.Errorf("got %d bytes, want 4", len(pcm))
	}
	if len(primary.Calls()) != 1 || len(secondary.Calls()) != 1 {
		t.Errorf("calls primary=%d secondary=%d", len(primary.Calls()), len(secondary.Calls()))
	}
}

func TestTTSFallback_ListVoicesAndFormat(t *testing.T) {
	t.Parallel()
	primary := &ttsmock.Provider{
		Voices:      []tts.Voice{{ID: "a"}},
		AudioFormat: tts.Format{SampleRate: 22050, Channels: 1},
	}
	fb := NewTTSFallback(primary, "p", FallbackConfig{})
	voices, err := fb.ListVoices(context.Background())
	if err != nil || len(voices) != 1 {
		t.Errorf("ListVoices = %v, %v", voices, err)
	}
	if fb.Format().SampleRate != 22050 {
		t.Errorf("Format = %+v", fb.Format())
	}
}
