// Package app wires the camera, detector, speech channel, scanner and
// dashboard into one runnable announcer.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/auralens/auralens/internal/log"
	"github.com/auralens/auralens/pkg/audio"
	"github.com/auralens/auralens/pkg/camera"
	"github.com/auralens/auralens/pkg/describe"
	"github.com/auralens/auralens/pkg/detect"
	"github.com/auralens/auralens/pkg/scan"
	"github.com/auralens/auralens/pkg/speech"
	"github.com/auralens/auralens/pkg/tts"
	"github.com/auralens/auralens/pkg/web"
)

// Announcement pacing modes.
const (
	ModeDwell = "dwell" // long holds, everyday use
	ModeQuick = "quick" // short holds, demos and testing
)

// Config carries everything the announcer needs to start.
type Config struct {
	ModelPath    string
	CameraDevice int

	Mode           string
	Threshold      float64
	SampleInterval time.Duration // 0 keeps the mode's default

	Port      string
	Autostart bool

	Mute            bool
	ElevenLabsKey   string
	ElevenLabsVoice string

	Debug bool
}

// App owns the announcer's components and their lifecycle.
type App struct {
	cfg Config

	camera   *camera.Webcam
	detector detect.Detector
	provider tts.Provider
	channel  *speech.Channel
	scanner  *scan.Scanner
	server   *web.Server
}

// New validates the configuration.
func New(cfg Config) (*App, error) {
	switch cfg.Mode {
	case ModeDwell, ModeQuick:
	default:
		return nil, fmt.Errorf("app: unknown mode %q", cfg.Mode)
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("app: threshold %.2f outside [0,1]", cfg.Threshold)
	}
	return &App{cfg: cfg}, nil
}

// Init builds every component. A missing detection model is not fatal:
// the app still serves the dashboard and reports the problem when a
// session is started.
func (a *App) Init() error {
	a.camera = camera.NewWebcam(camera.WebcamConfig{
		Device:  a.cfg.CameraDevice,
		Width:   1280,
		Height:  720,
		Quality: 85,
	})

	yoloCfg := detect.DefaultYOLOConfig()
	yoloCfg.ModelPath = a.cfg.ModelPath
	if yolo, err := detect.NewYOLO(yoloCfg); err != nil {
		log.Warn("detection model unavailable", "path", a.cfg.ModelPath, "error", err)
	} else {
		a.detector = yolo
	}

	voice, err := a.buildVoice()
	if err != nil {
		return fmt.Errorf("app: voice: %w", err)
	}
	a.channel = speech.New(voice, speech.DefaultConfig())

	scanCfg := scan.DefaultConfig()
	if a.cfg.Mode == ModeQuick {
		scanCfg = scan.QuickConfig()
	}
	if a.cfg.Threshold > 0 {
		scanCfg.ConfidenceThreshold = a.cfg.Threshold
	}
	if a.cfg.SampleInterval > 0 {
		scanCfg.SampleInterval = a.cfg.SampleInterval
	}

	a.scanner = scan.New(scanCfg, a.camera, a.detector, a.channel, describe.New())

	a.server = web.NewServer(a.cfg.Port)
	a.server.OnStart = a.scanner.Start
	a.server.OnStop = a.scanner.Stop
	a.server.OnCaptureFrame = a.captureJPEG
	a.scanner.SetNotifier(a.server)
	a.scanner.SetCycleHook(a.publishCycle)

	return nil
}

// buildVoice picks the speech backend. Without an API key (or with -mute)
// announcements go to the log instead of the speakers.
func (a *App) buildVoice() (speech.Voice, error) {
	if a.cfg.Mute || a.cfg.ElevenLabsKey == "" {
		if !a.cfg.Mute {
			log.Warn("no text-to-speech API key, announcements will be logged only")
		}
		return speech.NewLogVoice(), nil
	}

	opts := []tts.Option{
		tts.WithAPIKey(a.cfg.ElevenLabsKey),
	}
	if a.cfg.ElevenLabsVoice != "" {
		opts = append(opts, tts.WithVoice(a.cfg.ElevenLabsVoice))
	}

	streaming, err := tts.NewElevenLabsWS(opts...)
	if err != nil {
		return nil, err
	}
	fallback, err := tts.NewElevenLabs(opts...)
	if err != nil {
		return nil, err
	}
	chain, err := tts.NewChain(streaming, fallback)
	if err != nil {
		return nil, err
	}
	a.provider = chain

	return speech.NewSynthVoice(chain, audio.NewExecPlayer()), nil
}

// Run serves the dashboard until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.server.StartAsync()

	if a.cfg.Autostart {
		if err := a.scanner.Start(); err != nil {
			if errors.Is(err, scan.ErrNoDetector) {
				log.Warn("autostart skipped, detector unavailable")
			} else {
				return fmt.Errorf("app: autostart: %w", err)
			}
		}
	}

	<-ctx.Done()
	return nil
}

// Shutdown releases every component in reverse dependency order.
func (a *App) Shutdown() {
	if a.scanner != nil {
		a.scanner.Stop()
	}
	if a.server != nil {
		if err := a.server.Shutdown(); err != nil {
			log.Warn("dashboard shutdown", "error", err)
		}
	}
	if a.camera != nil {
		if err := a.camera.Release(); err != nil {
			log.Warn("camera release", "error", err)
		}
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Warn("detector close", "error", err)
		}
	}
	if a.provider != nil {
		if err := a.provider.Close(); err != nil {
			log.Warn("speech provider close", "error", err)
		}
	}
}

// captureJPEG serves the dashboard's frame endpoint.
func (a *App) captureJPEG() ([]byte, error) {
	if !a.camera.Active() {
		return nil, camera.ErrNotAcquired
	}
	frame, err := a.camera.Capture()
	if err != nil {
		return nil, err
	}
	return frame.JPEG, nil
}

// publishCycle pushes each cycle's results to the dashboard and keeps
// the status view fresh.
func (a *App) publishCycle(sessionID string, visible []detect.Detection, announced []string) {
	a.server.PublishDetections(sessionID, visible, announced)

	a.server.UpdateState(func(s *web.State) {
		s.Scanner = a.scanner.State().String()
		s.SessionID = sessionID
		s.CameraActive = a.camera.Active()
		s.Speaking = a.channel.Speaking()
		s.LastAnnouncement = a.channel.LastSpoken()
		s.AnnouncedLabels = a.scanner.AnnouncedLabels()
	})
}
