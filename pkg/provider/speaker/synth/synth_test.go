package synth

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/jasonnardone/voice-caddy/pkg/provider/tts"
	ttsmock "github.com/jasonnardone/voice-caddy/pkg/provider/tts/mock"
)

func TestSpeak_PipesPCM(t *testing.T) {
	t.Parallel()
	p := &ttsmock.Provider{
		AudioChunks: [][]byte{{1, 2}, {3, 4}},
		AudioFormat: tts.Format{SampleRate: 22050, Channels: 1},
	}
	var (
		gotName  string
		gotArgs  []string
		gotStdin []byte
	)
	s, err := New(p, tts.Voice{ID: "jim"}, WithRunner(func(_ context.Context, name string, args []string, stdin []byte) ([]byte, error) {
		gotName, gotArgs, gotStdin = name, args, stdin
		return nil, nil
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.SetRate(200)
	if err := s.Speak(context.Background(), "Birdie chance!"); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	if gotName != "aplay" {
		t.Errorf("player = %q", gotName)
	}
	wantArgs := []string{"-q", "-t", "raw", "-f", "S16_LE", "-r", "22050", "-c", "1"}
	if !slices.Equal(gotArgs, wantArgs) {
		t.Errorf("args = %v, want %v", gotArgs, wantArgs)
	}
	if !bytes.Equal(gotStdin, []byte{1, 2, 3, 4}) {
		t.Errorf("stdin = %v", gotStdin)
	}
	calls := p.Calls()
	if len(calls) != 1 || calls[0].Text != "Birdie chance!" || calls[0].Voice.ID != "jim" {
		t.Fatalf("synth calls = %+v", calls)
	}
	if calls[0].Voice.SpeedFactor != 1.25 {
		t.Errorf("SpeedFactor = %v, want 1.25", calls[0].Voice.SpeedFactor)
	}
}

func TestSpeak_WAV(t *testing.T) {
	t.Parallel()
	p := &ttsmock.Provider{AudioChunks: [][]byte{{0, 0, 1, 0}}}
	var stdin []byte
	s, _ := New(p, tts.Voice{}, WithWAV(true), WithPlayer("ffplay -nodisp -autoexit -"),
		WithRunner(func(_ context.Context, _ string, _ []string, in []byte) ([]byte, error) {
			stdin = in
			return nil, nil
		}))
	if err := s.Speak(context.Background(), "x"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	info, err := tts.ParseWAV(stdin)
	if err != nil {
		t.Fatalf("ParseWAV: %v", err)
	}
	if info.SampleRate != 16000 {
		t.Errorf("SampleRate = %d", info.SampleRate)
	}
}

func TestSpeak_Errors(t *testing.T) {
	t.Parallel()
	boom := errors.New("quota exceeded")
	s, _ := New(&ttsmock.Provider{SynthesizeErr: boom}, tts.Voice{})
	if err := s.Speak(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}

	silent, _ := New(&ttsmock.Provider{}, tts.Voice{}, WithRunner(func(context.Context, string, []string, []byte) ([]byte, error) {
		t.Error("player should not run without audio")
		return nil, nil
	}))
	if err := silent.Speak(context.Background(), "x"); err == nil {
		t.Error("expected error for empty audio")
	}

	if _, err := New(nil, tts.Voice{}); err == nil {
		t.Error("expected error for nil provider")
	}
}
