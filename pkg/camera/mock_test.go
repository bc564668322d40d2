package camera

import (
	"errors"
	"testing"
)

func TestMock_CaptureBeforeAcquire(t *testing.T) {
	m := NewMock()

	if m.Active() {
		t.Error("mock should start released")
	}
	if _, err := m.Capture(); !errors.Is(err, ErrNotAcquired) {
		t.Errorf("expected ErrNotAcquired, got %v", err)
	}
}

func TestMock_Lifecycle(t *testing.T) {
	m := NewMock()

	if err := m.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !m.Active() {
		t.Error("Active should be true after Acquire")
	}

	frame, err := m.Capture()
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if len(frame.JPEG) == 0 {
		t.Error("default frame should carry a JPEG payload")
	}
	if m.Captures() != 1 {
		t.Errorf("Captures: got %d, want 1", m.Captures())
	}

	if err := m.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if m.Active() {
		t.Error("Active should be false after Release")
	}
	if _, err := m.Capture(); !errors.Is(err, ErrNotAcquired) {
		t.Errorf("capture after release: expected ErrNotAcquired, got %v", err)
	}
}

func TestMock_AcquireFailure(t *testing.T) {
	m := NewMock()
	m.AcquireFunc = func() error { return ErrPermissionDenied }

	if err := m.Acquire(); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if m.Active() {
		t.Error("failed Acquire must not mark the device active")
	}
}
