// Package discord announces commentary as text-to-speech messages in a
// Discord channel, so everyone watching the round hears the caddy through
// their own client.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/jasonnardone/voice-caddy/pkg/provider/speaker"
)

// maxMessageLen is Discord's message length limit.
const maxMessageLen = 2000

// Sender is the subset of *discordgo.Session used by Speaker.
type Sender interface {
	ChannelMessageSendTTS(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Speaker posts each line as a TTS message.
type Speaker struct {
	sender    Sender
	channelID string
}

var _ speaker.Speaker = (*Speaker)(nil)

// New creates a REST-only bot session for token. No gateway connection is
// opened; sending messages does not need one.
func New(token, channelID string) (*Speaker, error) {
	if token == "" {
		return nil, errors.New("discord: token must not be empty")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	return NewWithSender(session, channelID)
}

// NewWithSender wraps an existing session or a test double.
func NewWithSender(s Sender, channelID string) (*Speaker, error) {
	if channelID == "" {
		return nil, errors.New("discord: channel ID must not be empty")
	}
	return &Speaker{sender: s, channelID: channelID}, nil
}

// Speak implements speaker.Speaker.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	if r := []rune(text); len(r) > maxMessageLen {
		text = string(r[:maxMessageLen])
	}
	msg, err := s.sender.ChannelMessageSendTTS(s.channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: send tts message: %w", err)
	}
	slog.Debug("discord: posted commentary", "channel", s.channelID, "message_id", msg.ID)
	return nil
}
