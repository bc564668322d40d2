// Package web provides the real-time dashboard for the scene announcer.
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/auralens/auralens/internal/log"
	"github.com/auralens/auralens/pkg/detect"
	"github.com/auralens/auralens/pkg/hub"
)

// State is the dashboard's view of the announcer.
type State struct {
	Scanner          string   `json:"scanner"` // idle, sampling, holding
	SessionID        string   `json:"session_id"`
	CameraActive     bool     `json:"camera_active"`
	Speaking         bool     `json:"speaking"`
	LastAnnouncement string   `json:"last_announcement"`
	AnnouncedLabels  []string `json:"announced_labels"`
}

// LogEntry is one log line shown on the dashboard.
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, speech, error
	Message string `json:"message"`
}

// DetectionView is one detection as rendered by the dashboard.
type DetectionView struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// DetectionEvent is broadcast on every completed detection cycle.
type DetectionEvent struct {
	Time       string          `json:"time"`
	SessionID  string          `json:"session_id"`
	Detections []DetectionView `json:"detections"`
	Announced  []string        `json:"announced"`
}

const maxLogEntries = 500

// Server is the dashboard HTTP and websocket server.
type Server struct {
	app  *fiber.App
	port string

	state   State
	stateMu sync.RWMutex

	logs   []LogEntry
	logsMu sync.RWMutex

	statusHub     *hub.Hub
	logHub        *hub.Hub
	detectionsHub *hub.Hub

	// OnStart begins a detection session. Wired by the caller.
	OnStart func() error

	// OnStop ends the current detection session.
	OnStop func()

	// OnCaptureFrame returns the latest camera frame as JPEG.
	OnCaptureFrame func() ([]byte, error)
}

// NewServer creates the dashboard server listening on port.
func NewServer(port string) *Server {
	s := &Server{
		port:          port,
		logs:          make([]LogEntry, 0, maxLogEntries),
		statusHub:     hub.New("status"),
		logHub:        hub.New("logs"),
		detectionsHub: hub.New("detections"),
	}
	s.state.Scanner = "idle"

	app := fiber.New(fiber.Config{
		AppName:               "Auralens Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development.
	app.Use(cors.New())

	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleLogs)
	api.Get("/frame", s.handleFrame)
	api.Post("/start", s.handleStart)
	api.Post("/stop", s.handleStop)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/detections", websocket.New(s.handleDetectionsWS))

	s.app = app
	return s
}

// Start runs the hubs and listens. Blocks until shutdown.
func (s *Server) Start() error {
	log.Info("dashboard listening", "addr", "http://localhost:"+s.port)

	go s.statusHub.Run()
	go s.logHub.Run()
	go s.detectionsHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync runs the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("dashboard server stopped", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// UpdateState applies update under the lock and broadcasts the new state
// to every status subscriber.
func (s *Server) UpdateState(update func(*State)) {
	s.stateMu.Lock()
	update(&s.state)
	state := s.state
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(state)
}

// AddLog records a log entry and broadcasts it to log subscribers.
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogEntries {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// Notify surfaces scanner status on the dashboard. It satisfies the
// scanner's notifier contract.
func (s *Server) Notify(kind, message string) {
	s.AddLog(kind, message)
}

// PublishDetections broadcasts the outcome of one detection cycle and
// refreshes the state the status endpoint serves.
func (s *Server) PublishDetections(sessionID string, dets []detect.Detection, announced []string) {
	views := make([]DetectionView, 0, len(dets))
	for _, d := range dets {
		views = append(views, DetectionView{
			Label:      d.Label,
			Confidence: d.Confidence,
		})
	}

	event := DetectionEvent{
		Time:       time.Now().Format("15:04:05"),
		SessionID:  sessionID,
		Detections: views,
		Announced:  announced,
	}
	s.detectionsHub.BroadcastJSON(event)
}

// ClientCount returns how many websocket clients are connected overall.
func (s *Server) ClientCount() int {
	return s.statusHub.ClientCount() + s.logHub.ClientCount() + s.detectionsHub.ClientCount()
}
