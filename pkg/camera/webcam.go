package camera

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"gocv.io/x/gocv"
)

// WebcamConfig holds webcam capture settings.
type WebcamConfig struct {
	Device  int // capture device index
	Width   int // requested frame width, 0 for driver default
	Height  int // requested frame height, 0 for driver default
	Quality int // JPEG quality for the fallback encoding
}

// DefaultWebcamConfig returns settings suitable for detection input.
func DefaultWebcamConfig() WebcamConfig {
	return WebcamConfig{
		Device:  0,
		Width:   1280,
		Height:  720,
		Quality: 85,
	}
}

// Webcam captures frames from a local video device via OpenCV.
type Webcam struct {
	config WebcamConfig

	mu  sync.Mutex
	cap *gocv.VideoCapture
}

// NewWebcam creates an unopened webcam source.
func NewWebcam(cfg WebcamConfig) *Webcam {
	return &Webcam{config: cfg}
}

// Acquire opens the capture device.
func (w *Webcam) Acquire() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cap != nil {
		return nil
	}

	if err := checkDeviceNode(w.config.Device); err != nil {
		return err
	}

	cap, err := gocv.OpenVideoCapture(w.config.Device)
	if err != nil {
		return fmt.Errorf("%w: device %d: %v", ErrDeviceUnavailable, w.config.Device, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return fmt.Errorf("%w: device %d did not open", ErrDeviceUnavailable, w.config.Device)
	}

	if w.config.Width > 0 {
		cap.Set(gocv.VideoCaptureFrameWidth, float64(w.config.Width))
	}
	if w.config.Height > 0 {
		cap.Set(gocv.VideoCaptureFrameHeight, float64(w.config.Height))
	}

	w.cap = cap
	return nil
}

// Capture grabs one frame in both encodings.
func (w *Webcam) Capture() (Frame, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cap == nil {
		return Frame{}, ErrNotAcquired
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := w.cap.Read(&mat); !ok || mat.Empty() {
		return Frame{}, fmt.Errorf("camera: read frame from device %d failed", w.config.Device)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat,
		[]int{gocv.IMWriteJpegQuality, w.config.Quality})
	if err != nil {
		return Frame{}, fmt.Errorf("camera: encode frame: %w", err)
	}
	defer buf.Close()

	jpeg := make([]byte, buf.Len())
	copy(jpeg, buf.GetBytes())

	frame := Frame{JPEG: jpeg}

	// Best effort; the JPEG encoding stands in when decoding fails.
	if img, err := mat.ToImage(); err == nil {
		frame.Image = img
	}

	return frame, nil
}

// Active reports whether the device is open.
func (w *Webcam) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cap != nil
}

// Release closes the device.
func (w *Webcam) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cap == nil {
		return nil
	}
	err := w.cap.Close()
	w.cap = nil
	return err
}

// checkDeviceNode distinguishes missing devices from permission problems
// before handing the index to OpenCV, which reports both the same way.
func checkDeviceNode(device int) error {
	if runtime.GOOS != "linux" {
		return nil
	}

	path := fmt.Sprintf("/dev/video%d", device)
	f, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrDeviceUnavailable, path)
		}
		return fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, path, err)
	}
	f.Close()
	return nil
}

// Verify Webcam implements Source at compile time.
var _ Source = (*Webcam)(nil)
