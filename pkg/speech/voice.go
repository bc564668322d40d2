package speech

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/auralens/auralens/pkg/tts"
)

// Player plays a synthesized audio buffer, blocking until done.
type Player interface {
	Play(ctx context.Context, result *tts.AudioResult) error
}

// SynthVoice speaks through a TTS provider and an audio player.
type SynthVoice struct {
	provider tts.Provider
	player   Player
}

// NewSynthVoice creates a voice from a provider and a player.
func NewSynthVoice(provider tts.Provider, player Player) *SynthVoice {
	return &SynthVoice{provider: provider, player: player}
}

// Speak synthesizes and plays text.
func (v *SynthVoice) Speak(ctx context.Context, text string) error {
	result, err := v.provider.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("speech: synthesize: %w", err)
	}
	if err := v.player.Play(ctx, result); err != nil {
		return fmt.Errorf("speech: play: %w", err)
	}
	return nil
}

// LogVoice writes utterances to the log instead of speaking them.
// Used with -mute and in environments without audio output.
type LogVoice struct {
	logger *slog.Logger
}

// NewLogVoice creates a logging voice.
func NewLogVoice() *LogVoice {
	return &LogVoice{logger: slog.Default().With("component", "speech.log")}
}

// Speak logs the text.
func (v *LogVoice) Speak(ctx context.Context, text string) error {
	v.logger.Info("speaking", "text", text)
	return nil
}

// Compile-time interface checks.
var (
	_ Voice = (*SynthVoice)(nil)
	_ Voice = (*LogVoice)(nil)
)
