package tts_test

import (
	"context"
	"testing"
	"time"

	"github.com/jasonnardone/voice-caddy/pkg/provider/tts"
)

func TestEncodeParseWAV(t *testing.T) {
	t.Parallel()
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	wav := tts.EncodeWAV(pcm, tts.Format{SampleRate: 16000, Channels: 1})

	info, err := tts.ParseWAV(wav)
	if err != nil {
		t.Fatalf("ParseWAV: %v", err)
	}
	if info.SampleRate != 16000 || info.Channels != 1 {
		t.Errorf("format = %d Hz x %d, want 16000 x 1", info.SampleRate, info.Channels)
	}
	if info.DataOffset != 44 {
		t.Errorf("DataOffset = %d, want 44", info.DataOffset)
	}
	if got := wav[info.DataOffset:]; string(got) != string(pcm) {
		t.Errorf("payload = %v, want %v", got, pcm)
	}
}

func TestParseWAV_Invalid(t *testing.T) {
	t.Parallel()
	for _, in := range [][]byte{nil, []byte("RIFF"), []byte("RIFF\x00\x00\x00\x00WAVX"), []byte("RIFF\x04\x00\x00\x00WAVE")} {
		if _, err := tts.ParseWAV(in); err == nil {
			t.Errorf("ParseWAV(%q) succeeded", in)
		}
	}
}

func TestResampleMono16(t *testing.T) {
	t.Parallel()
	pcm := make([]byte, 2*100)
	if got := tts.ResampleMono16(pcm, 22050, 22050); len(got) != len(pcm) {
		t.Errorf("same rate changed length to %d", len(got))
	}
	if got := tts.ResampleMono16(pcm, 16000, 8000); len(got) != 100 {
		t.Errorf("downsampled length = %d, want 100", len(got))
	}
	if got := tts.ResampleMono16(pcm, 8000, 16000); len(got) != 400 {
		t.Errorf("upsampled length = %d, want 400", len(got))
	}
}

func TestCollect(t *testing.T) {
	t.Parallel()
	ch := make(chan []byte, 2)
	ch <- []byte{1, 2}
	ch <- []byte{3}
	close(ch)
	got, err := tts.Collect(context.Background(), ch)
	if err != nil || string(got) != "\x01\x02\x03" {
		t.Errorf("Collect = %v, %v", got, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := tts.Collect(ctx, make(chan []byte)); err == nil {
		t.Error("expected context error from never-closing channel")
	}
}
