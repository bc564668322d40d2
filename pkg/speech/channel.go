// Package speech serializes spoken announcements.
//
// The channel guarantees at most one audible utterance at a time and
// suppresses immediate repeats. There is no queue: an announcement that
// arrives while another is speaking is dropped, because by the time the
// current utterance finishes the scene may have changed.
package speech

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/auralens/auralens/internal/clock"
)

// Voice turns text into audible speech. Speak blocks until the utterance
// has finished playing or failed.
type Voice interface {
	Speak(ctx context.Context, text string) error
}

// Config holds speech channel settings.
type Config struct {
	// Grace is how long after an utterance completes the same text stays
	// suppressed.
	Grace time.Duration

	// Timeout bounds a single utterance, synthesis and playback included.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults for announcements.
func DefaultConfig() Config {
	return Config{
		Grace:   5 * time.Second,
		Timeout: 30 * time.Second,
	}
}

// Channel is the single path announcements take to the user's ears.
type Channel struct {
	voice  Voice
	cfg    Config
	clock  clock.Clock
	logger *slog.Logger

	mu         sync.Mutex
	speaking   bool
	lastSpoken string
	graceTimer clock.Timer
}

// New creates a speech channel over the given voice.
func New(voice Voice, cfg Config) *Channel {
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultConfig().Grace
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Channel{
		voice:  voice,
		cfg:    cfg,
		clock:  clock.System(),
		logger: slog.Default().With("component", "speech"),
	}
}

// Announce speaks text unless an utterance is already audible or text
// matches the previous utterance. Dropped calls have no effect; accepted
// calls return immediately and speak in the background.
func (c *Channel) Announce(text string) {
	if text == "" {
		return
	}

	c.mu.Lock()
	if c.speaking || text == c.lastSpoken {
		c.mu.Unlock()
		c.logger.Debug("announcement dropped", "text", text)
		return
	}

	c.speaking = true
	c.lastSpoken = text
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
	c.mu.Unlock()

	go c.speak(text)
}

// speak runs the utterance and always clears the speaking flag, so a
// failed voice never blocks future announcements.
func (c *Channel) speak(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	err := c.voice.Speak(ctx, text)
	if err != nil {
		c.logger.Warn("utterance failed", "text", text, "error", err)
	}

	c.mu.Lock()
	c.speaking = false
	c.graceTimer = c.clock.AfterFunc(c.cfg.Grace, c.clearLastSpoken)
	c.mu.Unlock()
}

// clearLastSpoken forgets the duplicate-suppression memo once the grace
// window passes, so identical text can be repeated later.
func (c *Channel) clearLastSpoken() {
	c.mu.Lock()
	c.lastSpoken = ""
	c.graceTimer = nil
	c.mu.Unlock()
}

// Speaking reports whether an utterance is currently audible.
func (c *Channel) Speaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speaking
}

// LastSpoken returns the text still held for duplicate suppression.
func (c *Channel) LastSpoken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSpoken
}
