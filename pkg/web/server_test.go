package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStatusEndpoint(t *testing.T) {
	s := NewServer("0")

	req := httptest.NewRequest("GET", "/api/status", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status code: got %d, want 200", resp.StatusCode)
	}

	var state State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Scanner != "idle" {
		t.Errorf("initial scanner state: got %q, want idle", state.Scanner)
	}
}

func TestStartStopEndpoints(t *testing.T) {
	s := NewServer("0")

	started, stopped := 0, 0
	s.OnStart = func() error { started++; return nil }
	s.OnStop = func() { stopped++ }

	resp, err := s.app.Test(httptest.NewRequest("POST", "/api/start", nil))
	if err != nil {
		t.Fatalf("start request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 || started != 1 {
		t.Errorf("start: code %d, calls %d", resp.StatusCode, started)
	}

	resp, err = s.app.Test(httptest.NewRequest("POST", "/api/stop", nil))
	if err != nil {
		t.Fatalf("stop request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 || stopped != 1 {
		t.Errorf("stop: code %d, calls %d", resp.StatusCode, stopped)
	}
}

func TestStartConflict(t *testing.T) {
	s := NewServer("0")
	s.OnStart = func() error { return errors.New("already running") }

	resp, err := s.app.Test(httptest.NewRequest("POST", "/api/start", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 409 {
		t.Errorf("status code: got %d, want 409", resp.StatusCode)
	}
}

func TestStartUnconfigured(t *testing.T) {
	s := NewServer("0")

	resp, err := s.app.Test(httptest.NewRequest("POST", "/api/start", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 503 {
		t.Errorf("status code: got %d, want 503", resp.StatusCode)
	}
}

func TestFrameEndpoint(t *testing.T) {
	s := NewServer("0")
	s.OnCaptureFrame = func() ([]byte, error) {
		return []byte{0xff, 0xd8, 0xff}, nil
	}

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/frame", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status code: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type: got %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 3 {
		t.Errorf("body length: got %d, want 3", len(body))
	}
}

func TestLogsBufferAndEndpoint(t *testing.T) {
	s := NewServer("0")

	s.Notify("info", "object detection started")
	s.Notify("error", "camera frame unavailable, retrying")

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/logs", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var entries []LogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries: got %d, want 2", len(entries))
	}
	if entries[0].Type != "info" || !strings.Contains(entries[0].Message, "started") {
		t.Errorf("first entry: %+v", entries[0])
	}
	if entries[1].Type != "error" {
		t.Errorf("second entry: %+v", entries[1])
	}
}

func TestLogBufferBounded(t *testing.T) {
	s := NewServer("0")

	for i := 0; i < maxLogEntries+25; i++ {
		s.AddLog("info", "entry")
	}

	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	if len(s.logs) != maxLogEntries {
		t.Errorf("log buffer: got %d entries, want %d", len(s.logs), maxLogEntries)
	}
}
