package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/auralens/auralens/pkg/hub"
)

// handleStatus returns the announcer's current state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return c.JSON(s.state)
}

// handleLogs returns buffered log entries.
func (s *Server) handleLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleFrame returns the latest camera frame as JPEG.
func (s *Server) handleFrame(c *fiber.Ctx) error {
	if s.OnCaptureFrame == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "camera not configured",
		})
	}

	jpeg, err := s.OnCaptureFrame()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set("Content-Type", "image/jpeg")
	return c.Send(jpeg)
}

// handleStart begins a detection session.
func (s *Server) handleStart(c *fiber.Ctx) error {
	if s.OnStart == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "announcer not configured",
		})
	}

	if err := s.OnStart(); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "started"})
}

// handleStop ends the current detection session.
func (s *Server) handleStop(c *fiber.Ctx) error {
	if s.OnStop == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "announcer not configured",
		})
	}

	s.OnStop()
	return c.JSON(fiber.Map{"status": "stopped"})
}

// handleStatusWS streams state updates. The current state is sent on
// connect so the dashboard renders immediately.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	s.stateMu.RLock()
	state := s.state
	s.stateMu.RUnlock()
	c.WriteJSON(state)

	hub.Serve(s.statusHub, c)
}

// handleLogsWS streams log entries, replaying the buffer on connect.
func (s *Server) handleLogsWS(c *websocket.Conn) {
	s.logsMu.RLock()
	entries := make([]LogEntry, len(s.logs))
	copy(entries, s.logs)
	s.logsMu.RUnlock()

	for _, entry := range entries {
		if err := c.WriteJSON(entry); err != nil {
			c.Close()
			return
		}
	}

	hub.Serve(s.logHub, c)
}

// handleDetectionsWS streams per-cycle detection events.
func (s *Server) handleDetectionsWS(c *websocket.Conn) {
	hub.Serve(s.detectionsHub, c)
}
