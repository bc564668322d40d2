// Package audio plays synthesized announcements on the local machine.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"sync"

	"github.com/auralens/auralens/pkg/tts"
)

// ErrNoPlayer is returned when no supported playback binary is installed.
var ErrNoPlayer = errors.New("audio: no playback binary found (need ffplay, aplay or mpg123)")

// ExecPlayer pipes audio into an external playback binary. It prefers
// ffplay, which handles both PCM and MP3, and falls back to aplay or
// mpg123 depending on the encoding.
type ExecPlayer struct {
	mu sync.Mutex
}

// NewExecPlayer creates a player for the local machine.
func NewExecPlayer() *ExecPlayer {
	return &ExecPlayer{}
}

// Play blocks until the audio finished playing or ctx is cancelled.
// The lock serializes playback so overlapping calls cannot mix output.
func (p *ExecPlayer) Play(ctx context.Context, result *tts.AudioResult) error {
	if result == nil || len(result.Audio) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	cmd, err := p.command(ctx, result.Format)
	if err != nil {
		return err
	}

	cmd.Stdin = bytes.NewReader(result.Audio)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("audio: playback failed: %w", err)
	}
	return nil
}

// command picks a playback binary for the given format.
func (p *ExecPlayer) command(ctx context.Context, format tts.AudioFormat) (*exec.Cmd, error) {
	rate := strconv.Itoa(format.SampleRate)
	channels := strconv.Itoa(max(format.Channels, 1))

	if _, err := exec.LookPath("ffplay"); err == nil {
		args := []string{"-autoexit", "-nodisp", "-loglevel", "quiet"}
		if format.Encoding != tts.EncodingMP3 {
			args = append(args, "-f", "s16le", "-ar", rate, "-ch_layout", "mono")
		}
		args = append(args, "-i", "-")
		return exec.CommandContext(ctx, "ffplay", args...), nil
	}

	if format.Encoding == tts.EncodingMP3 {
		if _, err := exec.LookPath("mpg123"); err == nil {
			return exec.CommandContext(ctx, "mpg123", "-q", "-"), nil
		}
		return nil, ErrNoPlayer
	}

	if _, err := exec.LookPath("aplay"); err == nil {
		return exec.CommandContext(ctx, "aplay", "-q",
			"-f", "S16_LE", "-r", rate, "-c", channels, "-"), nil
	}

	return nil, ErrNoPlayer
}
