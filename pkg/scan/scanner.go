package scan

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/auralens/auralens/internal/clock"
	"github.com/auralens/auralens/pkg/camera"
	"github.com/auralens/auralens/pkg/describe"
	"github.com/auralens/auralens/pkg/detect"
)

// Sentinel errors returned by Start.
var (
	// ErrAlreadyRunning is returned when Start is called twice.
	ErrAlreadyRunning = errors.New("scan: already running")

	// ErrNoDetector is returned when no detector was provided.
	ErrNoDetector = errors.New("scan: detector unavailable")
)

// State is the scanner's position in the detect/announce cycle.
type State int

const (
	// Idle: no sampling timer is running.
	Idle State = iota

	// Sampling: periodic capture is active.
	Sampling

	// Holding: a detection was just announced (or the scene held nothing
	// new); sampling is suspended until the resume timer fires.
	Holding
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sampling:
		return "sampling"
	case Holding:
		return "holding"
	default:
		return "unknown"
	}
}

// Announcer receives composed sentences for speaking. Implementations must
// not block; the speech channel satisfies this.
type Announcer interface {
	Announce(text string)
}

// Notifier receives transient user-facing status messages. Kind is "info"
// or "error". Fire and forget; the scanner never reads a result.
type Notifier interface {
	Notify(kind, message string)
}

// CycleFunc observes one completed detection cycle: every detection above
// the confidence threshold plus whichever labels were announced.
type CycleFunc func(sessionID string, visible []detect.Detection, announced []string)

// Spoken phrases for lifecycle transitions.
const (
	startedText  = "Object detection started."
	stoppedText  = "Object detection stopped."
	resumingText = "Resuming detection."
)

// Scanner owns the detect, filter, announce, hold, resume cycle.
//
// All timers go through the injected clock, and a cycle runs entirely on
// the goroutine its tick fired on, with the scanner lock held: the next
// tick is only scheduled after the previous cycle finished, so at most
// one capture/detect call is ever in flight.
type Scanner struct {
	cfg       Config
	camera    camera.Source
	detector  detect.Detector
	announcer Announcer
	describe  *describe.Table

	notifier Notifier
	onCycle  CycleFunc
	clk      clock.Clock
	logger   *slog.Logger

	mu          sync.Mutex
	state       State
	sessionID   string
	seen        *SeenTracker
	sampleTimer clock.Timer
	resumeTimer clock.Timer
	lastSeen    []detect.Detection
}

// New creates a scanner over the given collaborators.
func New(cfg Config, cam camera.Source, det detect.Detector, announcer Announcer, table *describe.Table) *Scanner {
	clk := clock.System()
	return &Scanner{
		cfg:       cfg,
		camera:    cam,
		detector:  det,
		announcer: announcer,
		describe:  table,
		clk:       clk,
		logger:    slog.Default().With("component", "scan"),
		seen:      NewSeenTracker(clk),
	}
}

// SetNotifier attaches a status surface. Call before Start.
func (s *Scanner) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetCycleHook attaches a callback invoked after every detection cycle
// that produced a frame. Call before Start. The hook runs on its own
// goroutine with copies of the cycle's results.
func (s *Scanner) SetCycleHook(fn CycleFunc) {
	s.onCycle = fn
}

// setClock swaps the clock for tests. Call before Start.
func (s *Scanner) setClock(clk clock.Clock) {
	s.clk = clk
	s.seen = NewSeenTracker(clk)
}

// Start moves the scanner from Idle to Sampling. The camera is acquired
// first if it is not already active; acquisition and missing-capability
// failures are surfaced as status and returned, never ignored.
func (s *Scanner) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return ErrAlreadyRunning
	}
	if s.detector == nil {
		s.notify("error", "object detection model is not loaded")
		return ErrNoDetector
	}

	if !s.camera.Active() {
		if err := s.camera.Acquire(); err != nil {
			s.notify("error", "camera unavailable: "+err.Error())
			return fmt.Errorf("scan: acquire camera: %w", err)
		}
		s.notify("info", "camera started")
	}

	s.sessionID = uuid.NewString()
	s.state = Sampling
	s.logger.Info("detection started",
		"session", s.sessionID,
		"interval", s.cfg.SampleInterval,
		"threshold", s.cfg.ConfidenceThreshold,
	)

	s.announcer.Announce(startedText)
	s.notify("info", "object detection started")
	s.scheduleTickLocked()
	return nil
}

// Stop cancels the sampling timer, the resume timer and every pending
// label expiry, then returns to Idle. No callback scheduled before Stop
// has any effect afterwards. Stopping an idle scanner is a no-op.
func (s *Scanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Idle {
		return
	}

	s.cancelTimersLocked()
	s.seen.Clear()
	s.lastSeen = nil
	s.state = Idle

	s.logger.Info("detection stopped", "session", s.sessionID)
	s.announcer.Announce(stoppedText)
	s.notify("info", "object detection stopped")
}

// State returns the current coordinator state.
func (s *Scanner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SessionID returns the identifier minted by the last Start.
func (s *Scanner) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// LastDetections returns the filtered detections from the most recent
// successful cycle.
func (s *Scanner) LastDetections() []detect.Detection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]detect.Detection, len(s.lastSeen))
	copy(out, s.lastSeen)
	return out
}

// AnnouncedLabels returns the labels currently under cool-down.
func (s *Scanner) AnnouncedLabels() []string {
	return s.seen.Labels()
}

// tick runs one detection cycle and reschedules itself while Sampling.
func (s *Scanner) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Sampling {
		return
	}
	s.sampleTimer = nil

	s.runCycleLocked()

	if s.state == Sampling {
		s.scheduleTickLocked()
	}
}

// runCycleLocked is one capture→detect→filter→announce pass. Every
// failure is caught here and the scanner stays alive to retry next tick.
func (s *Scanner) runCycleLocked() {
	frame, err := s.camera.Capture()
	if err != nil {
		s.logger.Warn("frame capture failed", "error", err)
		s.notify("error", "camera frame unavailable, retrying")
		return
	}

	dets, err := s.detectFrame(frame)
	if err != nil {
		s.logger.Warn("detection cycle failed", "error", err)
		s.notify("error", "detection failed, retrying")
		return
	}

	visible := detect.AboveConfidence(dets, s.cfg.ConfidenceThreshold)
	s.lastSeen = visible

	if len(visible) == 0 {
		// Scene is empty: forget everything so objects re-announce when
		// they come back.
		if s.seen.Len() > 0 {
			s.seen.Clear()
			s.logger.Debug("scene empty, announcement memory cleared")
		}
		s.publishCycleLocked(nil)
		return
	}

	newLabels := s.pickNewLabelsLocked(visible)
	if len(newLabels) == 0 {
		// Everything visible was already announced. Hold briefly without
		// speaking so the user is not spammed with ticks.
		s.publishCycleLocked(nil)
		s.holdLocked(s.cfg.QuietHold, false)
		return
	}

	sentence := s.describe.Compose(newLabels)
	s.announcer.Announce(sentence)
	for _, label := range newLabels {
		s.seen.Add(label, s.cfg.CoolDown)
	}

	s.logger.Info("announced objects",
		"labels", newLabels,
		"session", s.sessionID,
	)
	s.notify("info", "announced: "+strings.Join(newLabels, ", "))

	s.publishCycleLocked(newLabels)
	s.holdLocked(s.cfg.DwellInterval, true)
}

// publishCycleLocked hands the cycle's results to the hook on a fresh
// goroutine so a slow observer never stalls sampling.
func (s *Scanner) publishCycleLocked(announced []string) {
	if s.onCycle == nil {
		return
	}

	visible := make([]detect.Detection, len(s.lastSeen))
	copy(visible, s.lastSeen)
	labels := make([]string, len(announced))
	copy(labels, announced)

	go s.onCycle(s.sessionID, visible, labels)
}

// detectFrame runs the detector on the pixel surface, falling back once to
// the compressed encoding before giving up on this cycle.
func (s *Scanner) detectFrame(frame camera.Frame) ([]detect.Detection, error) {
	if frame.Image == nil {
		return s.detector.DetectJPEG(frame.JPEG)
	}

	dets, err := s.detector.Detect(frame.Image)
	if err == nil {
		return dets, nil
	}

	if len(frame.JPEG) > 0 {
		s.logger.Debug("retrying cycle with fallback encoding", "error", err)
		return s.detector.DetectJPEG(frame.JPEG)
	}
	return nil, err
}

// pickNewLabelsLocked returns the labels worth announcing this cycle:
// highest confidence first, skipping anything under cool-down, capped at
// MaxLabels. Only announced labels enter the tracker, so a label beyond
// the cap is still eligible next cycle.
func (s *Scanner) pickNewLabelsLocked(visible []detect.Detection) []string {
	ranked := detect.TopByConfidence(visible, len(visible))

	var labels []string
	picked := make(map[string]bool)
	for _, d := range ranked {
		if picked[d.Label] || s.seen.Has(d.Label) {
			continue
		}
		picked[d.Label] = true
		labels = append(labels, d.Label)
		if len(labels) == s.cfg.MaxLabels {
			break
		}
	}
	return labels
}

// holdLocked suspends sampling for d. When the resume timer fires the
// scanner returns to Sampling, optionally announcing the resumption.
func (s *Scanner) holdLocked(d time.Duration, announceResume bool) {
	s.state = Holding
	s.resumeTimer = s.clk.AfterFunc(d, func() {
		s.resume(announceResume)
	})
}

// resume transitions Holding back to Sampling.
func (s *Scanner) resume(announce bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Holding {
		return
	}
	s.resumeTimer = nil
	s.state = Sampling

	if announce {
		s.announcer.Announce(resumingText)
	}
	s.logger.Debug("sampling resumed", "session", s.sessionID)
	s.scheduleTickLocked()
}

// scheduleTickLocked arms the next sampling tick.
func (s *Scanner) scheduleTickLocked() {
	s.sampleTimer = s.clk.AfterFunc(s.cfg.SampleInterval, s.tick)
}

// cancelTimersLocked stops the sampling and resume timers.
func (s *Scanner) cancelTimersLocked() {
	if s.sampleTimer != nil {
		s.sampleTimer.Stop()
		s.sampleTimer = nil
	}
	if s.resumeTimer != nil {
		s.resumeTimer.Stop()
		s.resumeTimer = nil
	}
}

// notify forwards a status message when a surface is attached.
func (s *Scanner) notify(kind, message string) {
	if s.notifier != nil {
		s.notifier.Notify(kind, message)
	}
}
