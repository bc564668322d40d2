package camera

import "sync"

// Mock implements Source for testing. Behavior is customized via the
// function fields.
type Mock struct {
	// AcquireFunc is called by Acquire. If nil, Acquire succeeds.
	AcquireFunc func() error

	// CaptureFunc is called by Capture. If nil, returns an empty frame
	// with a placeholder JPEG.
	CaptureFunc func() (Frame, error)

	mu       sync.Mutex
	acquired bool
	captures int
}

// NewMock creates a mock camera that always succeeds.
func NewMock() *Mock {
	return &Mock{}
}

// Acquire marks the mock as acquired.
func (m *Mock) Acquire() error {
	if m.AcquireFunc != nil {
		if err := m.AcquireFunc(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.acquired = true
	m.mu.Unlock()
	return nil
}

// Capture returns the configured frame.
func (m *Mock) Capture() (Frame, error) {
	m.mu.Lock()
	if !m.acquired {
		m.mu.Unlock()
		return Frame{}, ErrNotAcquired
	}
	m.captures++
	m.mu.Unlock()

	if m.CaptureFunc != nil {
		return m.CaptureFunc()
	}
	return Frame{JPEG: []byte("mock-frame")}, nil
}

// Active reports whether Acquire has been called.
func (m *Mock) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired
}

// Release marks the mock as released.
func (m *Mock) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquired = false
	return nil
}

// Captures returns how many frames were captured.
func (m *Mock) Captures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captures
}

// Verify Mock implements Source at compile time.
var _ Source = (*Mock)(nil)
