// Package tts provides a unified interface for text-to-speech providers.
//
// Providers turn short announcement sentences into audio buffers. All
// implementations satisfy the Provider interface so the speech layer can
// switch backends, or chain them for fallback, without changing callers.
//
// Example usage:
//
//	provider, _ := tts.NewElevenLabs(
//	    tts.WithAPIKey(os.Getenv("ELEVENLABS_API_KEY")),
//	    tts.WithVoice(os.Getenv("ELEVENLABS_VOICE_ID")),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "I can see a person.")
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult is a complete synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data in the specified format.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// Duration is the estimated playback duration.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the synthesis round trip in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	Encoding   Encoding
	SampleRate int // Hz
	Channels   int // 1 mono, 2 stereo
	BitDepth   int // bits per sample for PCM
}

// Encoding represents audio encoding types. Values match the ElevenLabs
// output format options.
type Encoding string

const (
	EncodingPCM16 Encoding = "pcm_16000"
	EncodingPCM22 Encoding = "pcm_22050"
	EncodingPCM24 Encoding = "pcm_24000"
	EncodingPCM44 Encoding = "pcm_44100"
	EncodingMP3   Encoding = "mp3_44100_128"
)

// SampleRateFromEncoding extracts the sample rate from an encoding type.
func SampleRateFromEncoding(enc Encoding) int {
	switch enc {
	case EncodingPCM16:
		return 16000
	case EncodingPCM22:
		return 22050
	case EncodingPCM24:
		return 24000
	case EncodingPCM44, EncodingMP3:
		return 44100
	default:
		return 24000
	}
}

// VoiceSettings controls voice characteristics for providers that support
// them.
type VoiceSettings struct {
	// Stability controls voice consistency (0.0-1.0). Lower is more
	// expressive, higher more consistent.
	Stability float64

	// SimilarityBoost controls closeness to the reference voice (0.0-1.0).
	SimilarityBoost float64

	// SpeakerBoost enhances speaker clarity in noisy environments.
	SpeakerBoost bool
}

// DefaultVoiceSettings returns sensible defaults for announcements.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.6,
		SimilarityBoost: 0.75,
		SpeakerBoost:    true,
	}
}

// EstimatePCMDuration estimates playback duration of PCM16 audio.
func EstimatePCMDuration(byteLen int, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := byteLen / 2
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}
