// Package detect provides object detection over camera frames.
package detect

import (
	"image"
	"sort"
)

// Detection is a single labeled region found in a frame. Coordinates are
// pixels in the source frame.
type Detection struct {
	Label      string
	Confidence float64
	Box        image.Rectangle
}

// Area returns the box area in pixels.
func (d Detection) Area() int {
	return d.Box.Dx() * d.Box.Dy()
}

// Detector is the interface for object detection backends.
//
// Detect operates on a decoded pixel surface; DetectJPEG accepts the
// compressed fallback encoding for callers that could not produce a
// surface. Implementations do not retry; that is the caller's job.
type Detector interface {
	Detect(img image.Image) ([]Detection, error)

	DetectJPEG(jpeg []byte) ([]Detection, error)

	// Close releases resources.
	Close() error
}

// AboveConfidence returns the detections scoring at or above threshold,
// preserving order.
func AboveConfidence(dets []Detection, threshold float64) []Detection {
	var out []Detection
	for _, d := range dets {
		if d.Confidence >= threshold {
			out = append(out, d)
		}
	}
	return out
}

// TopByConfidence returns at most n detections ordered by descending
// confidence. The input slice is not modified.
func TopByConfidence(dets []Detection, n int) []Detection {
	if n <= 0 || len(dets) == 0 {
		return nil
	}

	sorted := make([]Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Labels returns the distinct labels of dets in first-seen order.
func Labels(dets []Detection) []string {
	seen := make(map[string]bool, len(dets))
	var labels []string
	for _, d := range dets {
		if !seen[d.Label] {
			seen[d.Label] = true
			labels = append(labels, d.Label)
		}
	}
	return labels
}
