// Package config provides environment-based configuration helpers for
// auralens commands.
package config

import (
	"os"
	"strconv"
)

// Defaults used when the corresponding environment variable is unset.
const (
	DefaultModelPath     = "models/yolov8n.onnx"
	DefaultCameraDevice  = 0
	DefaultDashboardPort = "8088"
)

// ModelPath returns the detector model path from AURALENS_MODEL.
func ModelPath() string {
	if p := os.Getenv("AURALENS_MODEL"); p != "" {
		return p
	}
	return DefaultModelPath
}

// CameraDevice returns the capture device index from AURALENS_CAMERA.
func CameraDevice() int {
	if v := os.Getenv("AURALENS_CAMERA"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return DefaultCameraDevice
}

// DashboardPort returns the dashboard port from AURALENS_PORT.
func DashboardPort() string {
	if p := os.Getenv("AURALENS_PORT"); p != "" {
		return p
	}
	return DefaultDashboardPort
}

// ElevenLabsKey returns the ElevenLabs API key, empty if unset.
func ElevenLabsKey() string {
	return os.Getenv("ELEVENLABS_API_KEY")
}

// ElevenLabsVoice returns the ElevenLabs voice ID, empty if unset.
func ElevenLabsVoice() string {
	return os.Getenv("ELEVENLABS_VOICE_ID")
}
