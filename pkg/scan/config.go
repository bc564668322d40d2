// Package scan drives the detect, announce, hold, resume cycle over a
// camera source.
package scan

import "time"

// Config holds all tunable parameters for the detection scanner.
type Config struct {
	// Timing
	SampleInterval time.Duration // how often to capture and detect
	DwellInterval  time.Duration // hold after announcing something new
	QuietHold      time.Duration // hold when everything visible was already announced
	CoolDown       time.Duration // how long an announced label stays suppressed

	// Filtering
	ConfidenceThreshold float64 // ignore detections below this score
	MaxLabels           int     // announce at most this many labels per cycle
}

// DefaultConfig returns the dwell-oriented configuration: after an
// announcement the user gets a long pause to explore the scene.
func DefaultConfig() Config {
	return Config{
		SampleInterval:      2 * time.Second,
		DwellInterval:       180 * time.Second,
		QuietHold:           10 * time.Second,
		CoolDown:            180 * time.Second,
		ConfidenceThreshold: 0.5,
		MaxLabels:           3,
	}
}

// QuickConfig returns a configuration that resumes and forgets quickly,
// for users who keep the camera moving.
func QuickConfig() Config {
	cfg := DefaultConfig()
	cfg.DwellInterval = 10 * time.Second
	cfg.CoolDown = 10 * time.Second
	return cfg
}
