package discord

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
)

type fakeSender struct {
	mu      sync.Mutex
	err     error
	channel string
	content []string
}

func (f *fakeSender) ChannelMessageSendTTS(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.channel = channelID
	f.content = append(f.content, content)
	return &discordgo.Message{ID: "m1", ChannelID: channelID, Content: content, TTS: true}, nil
}

func TestSpeak(t *testing.T) {
	t.Parallel()
	f := &fakeSender{}
	s, err := NewWithSender(f, "chan-1")
	if err != nil {
		t.Fatalf("NewWithSender: %v", err)
	}
	if err := s.Speak(context.Background(), "Eagle on the 7th!"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if f.channel != "chan-1" || len(f.content) != 1 || f.content[0] != "Eagle on the 7th!" {
		t.Errorf("sent %q to %q", f.content, f.channel)
	}

	long := strings.Repeat("a", maxMessageLen+50)
	if err := s.Speak(context.Background(), long); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if got := len(f.content[1]); got != maxMessageLen {
		t.Errorf("long message length = %d, want %d", got, maxMessageLen)
	}
}

func TestSpeak_Error(t *testing.T) {
	t.Parallel()
	boom := errors.New("HTTP 403 Forbidden")
	s, _ := NewWithSender(&fakeSender{err: boom}, "c")
	if err := s.Speak(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	if _, err := New("", "c"); err == nil {
		t.Error("expected error for empty token")
	}
	if _, err := NewWithSender(&fakeSender{}, ""); err == nil {
		t.Error("expected error for empty channel")
	}
}
