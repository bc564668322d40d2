package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/auralens/auralens/internal/clock"
)

// testVoice records utterances and can block or fail on demand.
type testVoice struct {
	mu     sync.Mutex
	spoken []string
	block  chan struct{}
	err    error
}

func (v *testVoice) Speak(ctx context.Context, text string) error {
	v.mu.Lock()
	v.spoken = append(v.spoken, text)
	block := v.block
	err := v.err
	v.mu.Unlock()

	if block != nil {
		<-block
	}
	return err
}

func (v *testVoice) Spoken() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, len(v.spoken))
	copy(out, v.spoken)
	return out
}

// waitFor polls cond until true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestChannel_Announces(t *testing.T) {
	voice := &testVoice{}
	ch := New(voice, DefaultConfig())

	ch.Announce("I can see a person.")

	waitFor(t, func() bool { return !ch.Speaking() && len(voice.Spoken()) == 1 })
	if got := voice.Spoken()[0]; got != "I can see a person." {
		t.Errorf("spoken: got %q", got)
	}
}

func TestChannel_DropsWhileSpeaking(t *testing.T) {
	release := make(chan struct{})
	voice := &testVoice{block: release}
	ch := New(voice, DefaultConfig())

	ch.Announce("first")
	waitFor(t, func() bool { return ch.Speaking() })

	// Arrives while the first utterance is audible: dropped, not queued.
	ch.Announce("second")

	close(release)
	waitFor(t, func() bool { return !ch.Speaking() })

	spoken := voice.Spoken()
	if len(spoken) != 1 || spoken[0] != "first" {
		t.Errorf("expected only the first utterance, got %v", spoken)
	}
}

func TestChannel_SuppressesDuplicateText(t *testing.T) {
	fake := clock.NewFake()
	voice := &testVoice{}
	ch := New(voice, DefaultConfig())
	ch.clock = fake

	ch.Announce("hello")
	waitFor(t, func() bool { return !ch.Speaking() })

	// Same text within the grace window: no effect.
	ch.Announce("hello")
	if got := len(voice.Spoken()); got != 1 {
		t.Fatalf("duplicate was spoken: %d utterances", got)
	}

	// After the grace window the memo is cleared and repeats are allowed.
	fake.Advance(DefaultConfig().Grace)
	waitFor(t, func() bool { return ch.LastSpoken() == "" })

	ch.Announce("hello")
	waitFor(t, func() bool { return len(voice.Spoken()) == 2 })
}

func TestChannel_FailureClearsSpeakingFlag(t *testing.T) {
	voice := &testVoice{err: errors.New("speaker unplugged")}
	ch := New(voice, DefaultConfig())

	ch.Announce("doomed")
	waitFor(t, func() bool { return !ch.Speaking() && len(voice.Spoken()) == 1 })

	// The channel recovered; a different text speaks normally.
	voice.mu.Lock()
	voice.err = nil
	voice.mu.Unlock()

	ch.Announce("recovered")
	waitFor(t, func() bool { return len(voice.Spoken()) == 2 })
}

func TestChannel_EmptyTextIgnored(t *testing.T) {
	voice := &testVoice{}
	ch := New(voice, DefaultConfig())

	ch.Announce("")
	time.Sleep(10 * time.Millisecond)

	if len(voice.Spoken()) != 0 {
		t.Error("empty announcement was spoken")
	}
	if ch.Speaking() {
		t.Error("channel stuck speaking after empty announcement")
	}
}
