// Auralens speaks what the camera sees: periodic object detection with
// deduplicated, throttled spoken announcements and a live dashboard.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/auralens/auralens/internal/config"
	"github.com/auralens/auralens/internal/log"
	"github.com/auralens/auralens/pkg/app"
)

func main() {
	cfg := parseFlags()

	level := "info"
	if cfg.Debug {
		level = "debug"
	}
	log.Init(level)

	a, err := app.New(cfg)
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if err := a.Init(); err != nil {
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer a.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
		os.Exit(1)
	}
}

// parseFlags merges .env, environment variables and command line flags,
// flags winning.
func parseFlags() app.Config {
	// Best effort; a missing .env is fine.
	godotenv.Load()

	model := flag.String("model", config.ModelPath(), "Path to the YOLO ONNX model")
	device := flag.Int("camera", config.CameraDevice(), "Camera device index")
	threshold := flag.Float64("threshold", 0.5, "Confidence threshold for announcements")
	mode := flag.String("mode", app.ModeDwell, "Announcement pacing: dwell or quick")
	interval := flag.Duration("interval", 0, "Sampling interval override (0 keeps the mode default)")
	port := flag.String("port", config.DashboardPort(), "Dashboard HTTP port")
	mute := flag.Bool("mute", false, "Log announcements instead of speaking them")
	autostart := flag.Bool("autostart", false, "Start detecting immediately")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.Parse()

	return app.Config{
		ModelPath:       *model,
		CameraDevice:    *device,
		Mode:            *mode,
		Threshold:       *threshold,
		SampleInterval:  *interval,
		Port:            *port,
		Autostart:       *autostart,
		Mute:            *mute,
		ElevenLabsKey:   config.ElevenLabsKey(),
		ElevenLabsVoice: config.ElevenLabsVoice(),
		Debug:           *debug,
	}
}
