package tts

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		withVox bool
		wantErr error
	}{
		{
			name:    "missing API key",
			opts:    nil,
			wantErr: ErrNoAPIKey,
		},
		{
			name:    "API key only",
			opts:    []Option{WithAPIKey("key")},
			wantErr: nil,
		},
		{
			name:    "voice required but missing",
			opts:    []Option{WithAPIKey("key")},
			withVox: true,
			wantErr: ErrNoVoiceID,
		},
		{
			name:    "complete",
			opts:    []Option{WithAPIKey("key"), WithVoice("voice")},
			withVox: true,
			wantErr: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Apply(tc.opts...)

			var err error
			if tc.withVox {
				err = cfg.ValidateWithVoice()
			} else {
				err = cfg.Validate()
			}

			if !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestChain_FallsBack(t *testing.T) {
	failing := WithError(errors.New("boom"))
	working := NewMock()

	chain, err := NewChain(failing, working)
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}

	result, err := chain.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if result.CharCount != 5 {
		t.Errorf("char count: got %d, want 5", result.CharCount)
	}

	if failing.CallCount("Synthesize") != 1 {
		t.Error("first provider was not tried")
	}
	if working.CallCount("Synthesize") != 1 {
		t.Error("fallback provider was not tried")
	}
}

func TestChain_AllFail(t *testing.T) {
	chain, err := NewChain(WithError(errors.New("a")), WithError(errors.New("b")))
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}

	_, err = chain.Synthesize(context.Background(), "hello")
	var chainErr *ChainError
	if !errors.As(err, &chainErr) {
		t.Fatalf("expected ChainError, got %v", err)
	}
	if len(chainErr.Errors) != 2 {
		t.Errorf("expected 2 recorded errors, got %d", len(chainErr.Errors))
	}
}

func TestChain_RequiresProvider(t *testing.T) {
	if _, err := NewChain(); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestAPIError_Retryable(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{status: 429, retryable: true},
		{status: 500, retryable: true},
		{status: 503, retryable: true},
		{status: 401, retryable: false},
		{status: 404, retryable: false},
	}

	for _, tc := range tests {
		err := &APIError{StatusCode: tc.status, Provider: "test"}
		if got := err.IsRetryable(); got != tc.retryable {
			t.Errorf("status %d: retryable got %v, want %v", tc.status, got, tc.retryable)
		}
	}
}

func TestMock_SilentAudioPacing(t *testing.T) {
	m := NewMock()

	result, err := m.Synthesize(context.Background(), "hi")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if len(result.Audio) != 2*960 {
		t.Errorf("audio bytes: got %d, want %d", len(result.Audio), 2*960)
	}
	if result.Duration != 40*time.Millisecond {
		t.Errorf("duration: got %v, want 40ms", result.Duration)
	}
}

func TestEstimatePCMDuration(t *testing.T) {
	// One second of 24kHz PCM16.
	if got := EstimatePCMDuration(48000, 24000); got != time.Second {
		t.Errorf("got %v, want 1s", got)
	}
	if got := EstimatePCMDuration(100, 0); got != 0 {
		t.Errorf("zero sample rate: got %v, want 0", got)
	}
}
