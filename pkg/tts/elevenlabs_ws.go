package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const elevenLabsWSBaseURL = "wss://api.elevenlabs.io/v1/text-to-speech"

// ElevenLabsWS implements Provider over the ElevenLabs stream-input
// websocket. Each Synthesize call opens a connection, streams the text,
// and assembles the audio chunks into one result. For short announcement
// sentences this reaches first audio noticeably faster than the HTTP API.
type ElevenLabsWS struct {
	config *Config
	logger *slog.Logger
	dialer *websocket.Dialer
}

// NewElevenLabsWS creates a websocket-based ElevenLabs TTS provider.
func NewElevenLabsWS(opts ...Option) (*ElevenLabsWS, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.ValidateWithVoice(); err != nil {
		return nil, err
	}

	return &ElevenLabsWS{
		config: cfg,
		logger: cfg.Logger.With("component", "tts.elevenlabs_ws"),
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}, nil
}

// Synthesize converts text to audio over a dedicated websocket stream.
func (e *ElevenLabsWS) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	conn, err := e.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	} else {
		conn.SetReadDeadline(time.Now().Add(e.config.Timeout))
		conn.SetWriteDeadline(time.Now().Add(e.config.Timeout))
	}

	// Begin-of-stream carries the voice settings; the empty-text message
	// closes the stream.
	bos := map[string]interface{}{
		"text": " ",
		"voice_settings": map[string]interface{}{
			"stability":        e.config.VoiceSettings.Stability,
			"similarity_boost": e.config.VoiceSettings.SimilarityBoost,
		},
	}
	if err := conn.WriteJSON(bos); err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("write BOS: %w", err))
	}

	chunk := map[string]interface{}{
		"text":                   text + " ",
		"try_trigger_generation": true,
	}
	if err := conn.WriteJSON(chunk); err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("write text: %w", err))
	}

	if err := conn.WriteJSON(map[string]interface{}{"text": ""}); err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("write EOS: %w", err))
	}

	audio, err := e.collect(conn)
	if err != nil {
		return nil, err
	}

	latency := time.Since(start).Milliseconds()
	e.logger.Debug("synthesized audio over websocket",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    AudioFormat{Encoding: e.config.OutputFormat, SampleRate: SampleRateFromEncoding(e.config.OutputFormat), Channels: 1, BitDepth: 16},
		CharCount: len(text),
		LatencyMs: latency,
		Duration:  EstimatePCMDuration(len(audio), SampleRateFromEncoding(e.config.OutputFormat)),
	}, nil
}

// collect reads audio chunks until the server marks the stream final.
func (e *ElevenLabsWS) collect(conn *websocket.Conn) ([]byte, error) {
	var audio []byte

	for {
		var msg struct {
			Audio   string  `json:"audio"`
			IsFinal bool    `json:"isFinal"`
			Error   string  `json:"error"`
			Message *string `json:"message"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return nil, WrapError(providerElevenLabs, fmt.Errorf("read chunk: %w", err))
		}

		if msg.Error != "" {
			return nil, WrapError(providerElevenLabs, fmt.Errorf("stream error: %s", msg.Error))
		}

		if msg.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(msg.Audio)
			if err != nil {
				return nil, WrapError(providerElevenLabs, fmt.Errorf("decode chunk: %w", err))
			}
			audio = append(audio, chunk...)
		}

		if msg.IsFinal {
			return audio, nil
		}
	}
}

// dial opens the stream-input websocket.
func (e *ElevenLabsWS) dial(ctx context.Context) (*websocket.Conn, error) {
	base := e.config.BaseURL
	if base == "" {
		base = elevenLabsWSBaseURL
	}
	url := fmt.Sprintf("%s/%s/stream-input?model_id=%s&output_format=%s",
		base, e.config.VoiceID, e.config.ModelID, e.config.OutputFormat)

	headers := http.Header{}
	headers.Set("xi-api-key", e.config.APIKey)

	conn, resp, err := e.dialer.DialContext(ctx, url, headers)
	if err != nil {
		if resp != nil {
			return nil, WrapError(providerElevenLabs,
				fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err))
		}
		return nil, WrapError(providerElevenLabs, fmt.Errorf("websocket dial failed: %w", err))
	}
	return conn, nil
}

// Health verifies the API key against the HTTP endpoint; the websocket
// endpoint has no cheap probe.
func (e *ElevenLabsWS) Health(ctx context.Context) error {
	httpProvider, err := NewElevenLabs(
		WithAPIKey(e.config.APIKey),
		WithVoice(e.config.VoiceID),
		WithLogger(e.logger),
	)
	if err != nil {
		return err
	}
	defer httpProvider.Close()
	return httpProvider.Health(ctx)
}

// Close is a no-op; connections are per-call.
func (e *ElevenLabsWS) Close() error {
	return nil
}

// Verify ElevenLabsWS implements Provider at compile time.
var _ Provider = (*ElevenLabsWS)(nil)
