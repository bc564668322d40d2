// Command speak is a text-to-speech smoke test. It synthesizes one
// sentence through ElevenLabs and plays it, or writes the audio to a
// file.
//
// Usage:
//
//	ELEVENLABS_API_KEY=sk_... go run ./cmd/speak/ -text "I can see a person."
//	ELEVENLABS_API_KEY=sk_... go run ./cmd/speak/ -stream -out hello.pcm
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/auralens/auralens/internal/config"
	"github.com/auralens/auralens/pkg/audio"
	"github.com/auralens/auralens/pkg/tts"
)

func main() {
	godotenv.Load()

	text := flag.String("text", "I can see a person.", "Text to synthesize")
	voice := flag.String("voice", config.ElevenLabsVoice(), "Voice ID (or set ELEVENLABS_VOICE_ID)")
	stream := flag.Bool("stream", false, "Use the websocket streaming endpoint")
	out := flag.String("out", "", "Write audio to this file instead of playing it")
	timeout := flag.Duration("timeout", 30*time.Second, "Synthesis timeout")
	flag.Parse()

	apiKey := config.ElevenLabsKey()
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "ELEVENLABS_API_KEY environment variable required")
		os.Exit(1)
	}

	opts := []tts.Option{
		tts.WithAPIKey(apiKey),
		tts.WithTimeout(*timeout),
	}
	if *voice != "" {
		opts = append(opts, tts.WithVoice(*voice))
	}

	var (
		provider tts.Provider
		err      error
	)
	if *stream {
		provider, err = tts.NewElevenLabsWS(opts...)
	} else {
		provider, err = tts.NewElevenLabs(opts...)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "provider: %v\n", err)
		os.Exit(1)
	}
	defer provider.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	result, err := provider.Synthesize(ctx, *text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "synthesize: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("synthesized %d bytes (%s, ~%s) in %s\n",
		len(result.Audio), result.Format.Encoding,
		result.Duration.Round(10*time.Millisecond),
		time.Since(start).Round(time.Millisecond))

	if *out != "" {
		if err := os.WriteFile(*out, result.Audio, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *out)
		return
	}

	if err := audio.NewExecPlayer().Play(ctx, result); err != nil {
		fmt.Fprintf(os.Stderr, "play: %v\n", err)
		os.Exit(1)
	}
}
