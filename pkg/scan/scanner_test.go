package scan

import (
	"errors"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/auralens/auralens/internal/clock"
	"github.com/auralens/auralens/pkg/camera"
	"github.com/auralens/auralens/pkg/describe"
	"github.com/auralens/auralens/pkg/detect"
)

// recordingAnnouncer collects every accepted announcement.
type recordingAnnouncer struct {
	mu    sync.Mutex
	texts []string
}

func (a *recordingAnnouncer) Announce(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.texts = append(a.texts, text)
}

func (a *recordingAnnouncer) Texts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.texts))
	copy(out, a.texts)
	return out
}

func (a *recordingAnnouncer) Containing(substr string) int {
	count := 0
	for _, t := range a.Texts() {
		if strings.Contains(t, substr) {
			count++
		}
	}
	return count
}

// recordingNotifier collects status messages.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(kind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, kind+": "+message)
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}

// testConfig uses short intervals so tests read naturally.
func testConfig() Config {
	return Config{
		SampleInterval:      time.Second,
		DwellInterval:       30 * time.Second,
		QuietHold:           5 * time.Second,
		CoolDown:            60 * time.Second,
		ConfidenceThreshold: 0.5,
		MaxLabels:           3,
	}
}

type fixture struct {
	scanner   *Scanner
	fake      *clock.Fake
	announcer *recordingAnnouncer
	notifier  *recordingNotifier
	camera    *camera.Mock
	detector  *detect.Mock
}

func newFixture(cfg Config) *fixture {
	fake := clock.NewFake()
	announcer := &recordingAnnouncer{}
	notifier := &recordingNotifier{}
	cam := camera.NewMock()
	cam.CaptureFunc = func() (camera.Frame, error) {
		return camera.Frame{
			Image: image.NewRGBA(image.Rect(0, 0, 4, 4)),
			JPEG:  []byte("fallback-jpeg"),
		}, nil
	}
	det := detect.NewMock()

	s := New(cfg, cam, det, announcer, describe.New())
	s.setClock(fake)
	s.SetNotifier(notifier)

	return &fixture{
		scanner:   s,
		fake:      fake,
		announcer: announcer,
		notifier:  notifier,
		camera:    cam,
		detector:  det,
	}
}

func TestScanner_StartAcquiresAndAnnounces(t *testing.T) {
	f := newFixture(testConfig())

	if err := f.scanner.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if got := f.scanner.State(); got != Sampling {
		t.Errorf("state: got %v, want Sampling", got)
	}
	if !f.camera.Active() {
		t.Error("camera was not acquired")
	}
	if f.scanner.SessionID() == "" {
		t.Error("no session ID minted")
	}
	if f.announcer.Containing("started") != 1 {
		t.Errorf("start announcement missing: %v", f.announcer.Texts())
	}

	// First tick fires one cycle.
	f.fake.Advance(time.Second)
	if f.detector.DetectCalls() != 1 {
		t.Errorf("detect calls: got %d, want 1", f.detector.DetectCalls())
	}
}

func TestScanner_StartTwice(t *testing.T) {
	f := newFixture(testConfig())

	if err := f.scanner.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.scanner.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestScanner_CameraAcquireFailure(t *testing.T) {
	f := newFixture(testConfig())
	f.camera.AcquireFunc = func() error {
		return camera.ErrDeviceUnavailable
	}

	err := f.scanner.Start()
	if !errors.Is(err, camera.ErrDeviceUnavailable) {
		t.Fatalf("expected wrapped ErrDeviceUnavailable, got %v", err)
	}
	if got := f.scanner.State(); got != Idle {
		t.Errorf("state after failed start: got %v, want Idle", got)
	}

	found := false
	for _, m := range f.notifier.Messages() {
		if strings.HasPrefix(m, "error:") && strings.Contains(m, "camera") {
			found = true
		}
	}
	if !found {
		t.Errorf("camera failure not surfaced as status: %v", f.notifier.Messages())
	}
}

func TestScanner_ThresholdAndHolding(t *testing.T) {
	f := newFixture(testConfig())
	f.detector.DetectFunc = func(img image.Image) ([]detect.Detection, error) {
		return []detect.Detection{
			{Label: "person", Confidence: 0.9},
			{Label: "chair", Confidence: 0.3},
		}, nil
	}

	if err := f.scanner.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.fake.Advance(time.Second)

	if f.announcer.Containing("person") != 1 {
		t.Errorf("expected exactly one announcement with person: %v", f.announcer.Texts())
	}
	if f.announcer.Containing("chair") != 0 {
		t.Errorf("below-threshold label was announced: %v", f.announcer.Texts())
	}
	if got := f.scanner.State(); got != Holding {
		t.Errorf("state: got %v, want Holding", got)
	}

	labels := f.scanner.AnnouncedLabels()
	if len(labels) != 1 || labels[0] != "person" {
		t.Errorf("tracker labels: got %v, want [person]", labels)
	}
}

func TestScanner_CoolDownSuppressesRepeat(t *testing.T) {
	cfg := testConfig()
	f := newFixture(cfg)
	f.detector.DetectFunc = func(img image.Image) ([]detect.Detection, error) {
		return []detect.Detection{{Label: "dog", Confidence: 0.8}}, nil
	}

	if err := f.scanner.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	// First cycle announces the dog and holds.
	f.fake.Advance(time.Second)
	if f.announcer.Containing("dog") != 1 {
		t.Fatalf("first cycle: %v", f.announcer.Texts())
	}

	// Through the dwell and into the next cycle: dog is still under
	// cool-down, so no second announcement.
	f.fake.Advance(cfg.DwellInterval)
	f.fake.Advance(time.Second)

	if f.announcer.Containing("dog") != 1 {
		t.Errorf("dog announced twice within cool-down: %v", f.announcer.Texts())
	}
	if f.announcer.Containing("Resuming") != 1 {
		t.Errorf("resume announcement missing: %v", f.announcer.Texts())
	}
}

func TestScanner_EmptySceneClearsMemory(t *testing.T) {
	cfg := testConfig()
	f := newFixture(cfg)

	empty := false
	f.detector.DetectFunc = func(img image.Image) ([]detect.Detection, error) {
		if empty {
			return nil, nil
		}
		return []detect.Detection{{Label: "cup", Confidence: 0.7}}, nil
	}

	if err := f.scanner.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.fake.Advance(time.Second)
	if f.announcer.Containing("cup") != 1 {
		t.Fatalf("first announcement missing: %v", f.announcer.Texts())
	}

	// Scene empties: the tracker clears on that cycle.
	empty = true
	f.fake.Advance(cfg.DwellInterval)
	f.fake.Advance(time.Second)
	if got := len(f.scanner.AnnouncedLabels()); got != 0 {
		t.Fatalf("tracker not cleared on empty scene: %v", f.scanner.AnnouncedLabels())
	}

	// The cup comes back and is announced again even though its original
	// cool-down has not elapsed.
	empty = false
	f.fake.Advance(time.Second)
	if f.announcer.Containing("cup") != 2 {
		t.Errorf("returning object not re-announced: %v", f.announcer.Texts())
	}
}

func TestScanner_QuietHoldWithoutSpeech(t *testing.T) {
	cfg := testConfig()
	f := newFixture(cfg)
	f.detector.DetectFunc = func(img image.Image) ([]detect.Detection, error) {
		return []detect.Detection{{Label: "tv", Confidence: 0.9}}, nil
	}

	if err := f.scanner.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.fake.Advance(time.Second)
	f.fake.Advance(cfg.DwellInterval)

	spoken := len(f.announcer.Texts())

	// Next cycle sees only the already-announced label: a short quiet
	// hold, no utterance, silent resume.
	f.fake.Advance(time.Second)
	if got := f.scanner.State(); got != Holding {
		t.Errorf("state: got %v, want Holding", got)
	}
	f.fake.Advance(cfg.QuietHold)
	if got := f.scanner.State(); got != Sampling {
		t.Errorf("state after quiet hold: got %v, want Sampling", got)
	}

	if len(f.announcer.Texts()) != spoken {
		t.Errorf("quiet hold spoke: %v", f.announcer.Texts())
	}
}

func TestScanner_FailureRetriesNextTick(t *testing.T) {
	f := newFixture(testConfig())

	failures := 1
	f.detector.DetectFunc = func(img image.Image) ([]detect.Detection, error) {
		if failures > 0 {
			failures--
			return nil, errors.New("inference backend gone")
		}
		return []detect.Detection{{Label: "person", Confidence: 0.9}}, nil
	}
	// Fallback encoding fails too on the failing tick.
	f.detector.DetectJPEGFunc = func(jpeg []byte) ([]detect.Detection, error) {
		return nil, errors.New("inference backend gone")
	}

	if err := f.scanner.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Failing cycle: state stays Sampling, nothing announced.
	f.fake.Advance(time.Second)
	if got := f.scanner.State(); got != Sampling {
		t.Errorf("state after failed cycle: got %v, want Sampling", got)
	}
	if f.announcer.Containing("person") != 0 {
		t.Errorf("announcement from failed cycle: %v", f.announcer.Texts())
	}

	// Next tick succeeds; no announcement was lost.
	f.fake.Advance(time.Second)
	if f.announcer.Containing("person") != 1 {
		t.Errorf("recovery cycle did not announce: %v", f.announcer.Texts())
	}
	if got := f.scanner.State(); got != Holding {
		t.Errorf("state after recovery: got %v, want Holding", got)
	}
}

func TestScanner_FallbackEncoding(t *testing.T) {
	f := newFixture(testConfig())
	f.detector.DetectFunc = func(img image.Image) ([]detect.Detection, error) {
		return nil, errors.New("surface rejected")
	}
	f.detector.DetectJPEGFunc = func(jpeg []byte) ([]detect.Detection, error) {
		return []detect.Detection{{Label: "person", Confidence: 0.9}}, nil
	}

	if err := f.scanner.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.fake.Advance(time.Second)

	if f.detector.JPEGCalls() != 1 {
		t.Errorf("fallback encoding attempts: got %d, want 1", f.detector.JPEGCalls())
	}
	if f.announcer.Containing("person") != 1 {
		t.Errorf("fallback cycle did not announce: %v", f.announcer.Texts())
	}
}

func TestScanner_TopNCap(t *testing.T) {
	f := newFixture(testConfig())
	f.detector.DetectFunc = func(img image.Image) ([]detect.Detection, error) {
		return []detect.Detection{
			{Label: "cup", Confidence: 0.6},
			{Label: "person", Confidence: 0.9},
			{Label: "chair", Confidence: 0.7},
			{Label: "dog", Confidence: 0.8},
		}, nil
	}

	if err := f.scanner.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.fake.Advance(time.Second)

	var sentence string
	for _, text := range f.announcer.Texts() {
		if strings.Contains(text, "person") {
			sentence = text
		}
	}
	if sentence == "" {
		t.Fatalf("no object announcement: %v", f.announcer.Texts())
	}

	for _, want := range []string{"person", "dog", "chair"} {
		if !strings.Contains(sentence, want) {
			t.Errorf("sentence missing %q: %q", want, sentence)
		}
	}
	if strings.Contains(sentence, "cup") {
		t.Errorf("sentence exceeded the announcement cap: %q", sentence)
	}

	// The capped label stays eligible for the next cycle.
	if got := f.scanner.AnnouncedLabels(); len(got) != 3 {
		t.Errorf("tracker labels: got %v, want 3 entries", got)
	}
}

func TestScanner_StopCancelsEverything(t *testing.T) {
	cfg := testConfig()
	f := newFixture(cfg)
	f.detector.DetectFunc = func(img image.Image) ([]detect.Detection, error) {
		return []detect.Detection{{Label: "person", Confidence: 0.9}}, nil
	}

	if err := f.scanner.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.fake.Advance(time.Second)
	if got := f.scanner.State(); got != Holding {
		t.Fatalf("state: got %v, want Holding", got)
	}

	f.scanner.Stop()
	if got := f.scanner.State(); got != Idle {
		t.Errorf("state after stop: got %v, want Idle", got)
	}
	if f.announcer.Containing("stopped") != 1 {
		t.Errorf("stop announcement missing: %v", f.announcer.Texts())
	}

	spoken := len(f.announcer.Texts())
	detects := f.detector.DetectCalls()

	// Long after stop, nothing fires: no ticks, no resume, no expiries.
	f.fake.Advance(10 * cfg.DwellInterval)

	if len(f.announcer.Texts()) != spoken {
		t.Errorf("announcements after stop: %v", f.announcer.Texts())
	}
	if f.detector.DetectCalls() != detects {
		t.Errorf("detection cycles after stop: got %d, want %d",
			f.detector.DetectCalls(), detects)
	}
	if got := len(f.scanner.AnnouncedLabels()); got != 0 {
		t.Errorf("tracker not cleared by stop: %v", f.scanner.AnnouncedLabels())
	}
}

func TestScanner_StopWhenIdleIsNoOp(t *testing.T) {
	f := newFixture(testConfig())

	f.scanner.Stop()

	if len(f.announcer.Texts()) != 0 {
		t.Errorf("idle stop announced: %v", f.announcer.Texts())
	}
	if got := f.scanner.State(); got != Idle {
		t.Errorf("state: got %v, want Idle", got)
	}
}

func TestScanner_CycleHookSeesResults(t *testing.T) {
	f := newFixture(testConfig())
	f.detector.DetectFunc = func(img image.Image) ([]detect.Detection, error) {
		return []detect.Detection{
			{Label: "person", Confidence: 0.9},
			{Label: "chair", Confidence: 0.3},
		}, nil
	}

	type cycle struct {
		session   string
		visible   []detect.Detection
		announced []string
	}
	events := make(chan cycle, 4)
	f.scanner.SetCycleHook(func(session string, visible []detect.Detection, announced []string) {
		events <- cycle{session, visible, announced}
	})

	if err := f.scanner.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.fake.Advance(time.Second)

	select {
	case got := <-events:
		if got.session != f.scanner.SessionID() {
			t.Errorf("session: got %q, want %q", got.session, f.scanner.SessionID())
		}
		if len(got.visible) != 1 || got.visible[0].Label != "person" {
			t.Errorf("visible: got %v, want person only", got.visible)
		}
		if len(got.announced) != 1 || got.announced[0] != "person" {
			t.Errorf("announced: got %v, want [person]", got.announced)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cycle hook never fired")
	}
}

func TestScanner_CameraCaptureFailureIsTransient(t *testing.T) {
	f := newFixture(testConfig())

	broken := true
	f.camera.CaptureFunc = func() (camera.Frame, error) {
		if broken {
			return camera.Frame{}, errors.New("device busy")
		}
		return camera.Frame{Image: image.NewRGBA(image.Rect(0, 0, 4, 4))}, nil
	}
	f.detector.DetectFunc = func(img image.Image) ([]detect.Detection, error) {
		return []detect.Detection{{Label: "person", Confidence: 0.9}}, nil
	}

	if err := f.scanner.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	f.fake.Advance(time.Second)
	if got := f.scanner.State(); got != Sampling {
		t.Errorf("state after capture failure: got %v, want Sampling", got)
	}

	broken = false
	f.fake.Advance(time.Second)
	if f.announcer.Containing("person") != 1 {
		t.Errorf("recovery after capture failure did not announce: %v", f.announcer.Texts())
	}
}
