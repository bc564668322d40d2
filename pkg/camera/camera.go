// Package camera provides frame acquisition from a local capture device.
package camera

import (
	"errors"
	"image"
)

// Sentinel errors for acquisition failures.
var (
	// ErrPermissionDenied means the device exists but cannot be opened by
	// this process.
	ErrPermissionDenied = errors.New("camera: permission denied")

	// ErrDeviceUnavailable means no usable capture device was found.
	ErrDeviceUnavailable = errors.New("camera: device unavailable")

	// ErrNotAcquired is returned by Capture before Acquire succeeds.
	ErrNotAcquired = errors.New("camera: not acquired")
)

// Frame is a captured camera frame in both accepted encodings: the decoded
// pixel surface and the compressed fallback. Image may be nil if decoding
// failed; JPEG is always set on a successful capture.
type Frame struct {
	Image image.Image
	JPEG  []byte
}

// Source is the interface for camera backends.
type Source interface {
	// Acquire opens the device. Fails with ErrPermissionDenied or
	// ErrDeviceUnavailable.
	Acquire() error

	// Capture grabs the current frame.
	Capture() (Frame, error)

	// Active reports whether the device is open.
	Active() bool

	// Release closes the device. Safe to call when not acquired.
	Release() error
}
