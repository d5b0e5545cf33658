package console

import (
	"bytes"
	"context"
	"testing"
)

func TestSpeak(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	s := New(&buf)
	if err := s.Speak(context.Background(), "Right down the middle!"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if got := buf.String(); got != "🔊 Right down the middle!\n" {
		t.Errorf("output = %q", got)
	}
}
