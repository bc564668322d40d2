package detect

import (
	"image"
	"sync"
)

// Mock implements Detector for testing. Behavior is customized via the
// function fields; calls are recorded for verification.
type Mock struct {
	// DetectFunc is called when Detect is invoked. If nil, returns no
	// detections.
	DetectFunc func(img image.Image) ([]Detection, error)

	// DetectJPEGFunc is called when DetectJPEG is invoked. If nil, falls
	// back to DetectFunc with a nil image.
	DetectJPEGFunc func(jpeg []byte) ([]Detection, error)

	mu          sync.Mutex
	detectCalls int
	jpegCalls   int
}

// NewMock creates a mock detector that finds nothing.
func NewMock() *Mock {
	return &Mock{}
}

// Detect calls DetectFunc and records the call.
func (m *Mock) Detect(img image.Image) ([]Detection, error) {
	m.mu.Lock()
	m.detectCalls++
	m.mu.Unlock()

	if m.DetectFunc != nil {
		return m.DetectFunc(img)
	}
	return nil, nil
}

// DetectJPEG calls DetectJPEGFunc and records the call.
func (m *Mock) DetectJPEG(jpeg []byte) ([]Detection, error) {
	m.mu.Lock()
	m.jpegCalls++
	m.mu.Unlock()

	if m.DetectJPEGFunc != nil {
		return m.DetectJPEGFunc(jpeg)
	}
	if m.DetectFunc != nil {
		return m.DetectFunc(nil)
	}
	return nil, nil
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}

// DetectCalls returns how many times Detect was invoked.
func (m *Mock) DetectCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detectCalls
}

// JPEGCalls returns how many times DetectJPEG was invoked.
func (m *Mock) JPEGCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jpegCalls
}

// Verify Mock implements Detector at compile time.
var _ Detector = (*Mock)(nil)
