package light

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/quietwire/onaird/internal/detect"
	"github.com/quietwire/onaird/internal/infrastructure/config"
)

type fakeInvoker struct {
	calls []string
	fail  bool
}

func (f *fakeInvoker) Invoke(_ context.Context, name string) error {
	f.calls = append(f.calls, name)
	if f.fail {
		return errors.New("automation wedged")
	}
	return nil
}

type fakeHistory struct {
	records []Transition
}

func (f *fakeHistory) RecordTransition(_ context.Context, t Transition) error {
	f.records = append(f.records, t)
	return nil
}

func (f *fakeHistory) RecentTransitions(context.Context, int) ([]Transition, error) {
	return f.records, nil
}

func (f *fakeHistory) PruneTransitions(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

type fakePublisher struct {
	published map[string][]byte
}

func (f *fakePublisher) PublishRetained(topic string, payload []byte) error {
	if f.published == nil {
		f.published = make(map[string][]byte)
	}
	f.published[topic] = payload
	return nil
}

type testRig struct {
	controller *Controller
	invoker    *fakeInvoker
	history    *fakeHistory
	publisher  *fakePublisher
	stateFile  *StateFile
	events     chan detect.Event
}

func newTestRig(t *testing.T, mode config.DetectionMode) *testRig {
	t.Helper()

	rig := &testRig{
		invoker:   &fakeInvoker{},
		history:   &fakeHistory{},
		publisher: &fakePublisher{},
		stateFile: NewStateFile(filepath.Join(t.TempDir(), "status")),
		events:    make(chan detect.Event, 8),
	}

	controller, err := NewController(ControllerConfig{
		Mode:        mode,
		ShortcutOn:  "Light On",
		ShortcutOff: "Light Off",
		Invoker:     rig.invoker,
		Events:      rig.events,
		StateFile:   rig.stateFile,
		History:     rig.history,
		Publisher:   rig.publisher,
	})
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	rig.controller = controller
	return rig
}

func event(source detect.Source, kind detect.Kind) detect.Event {
	return detect.Event{Source: source, Kind: kind, At: time.Now()}
}

func TestNewController_RequiresCollaborators(t *testing.T) {
	base := ControllerConfig{
		ShortcutOn:  "On",
		ShortcutOff: "Off",
		Invoker:     &fakeInvoker{},
		Events:      make(chan detect.Event),
		StateFile:   NewStateFile(filepath.Join(t.TempDir(), "s")),
		History:     &fakeHistory{},
	}

	missing := []func(c *ControllerConfig){
		func(c *ControllerConfig) { c.Invoker = nil },
		func(c *ControllerConfig) { c.Events = nil },
		func(c *ControllerConfig) { c.StateFile = nil },
		func(c *ControllerConfig) { c.History = nil },
		func(c *ControllerConfig) { c.ShortcutOn = "" },
	}
	for i, strip := range missing {
		cfg := base
		strip(&cfg)
		if _, err := NewController(cfg); err == nil {
			t.Errorf("case %d: expected error for missing collaborator", i)
		}
	}
}

func TestController_CameraOnTurnsLightOn(t *testing.T) {
	rig := newTestRig(t, config.ModeBoth)
	ctx := context.Background()

	rig.controller.handleEvent(ctx, event(detect.SourceCamera, detect.KindStarted))

	if len(rig.invoker.calls) != 1 || rig.invoker.calls[0] != "Light On" {
		t.Fatalf("invoker calls = %v, want [Light On]", rig.invoker.calls)
	}

	snap, err := rig.stateFile.Read()
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if !snap.CameraOn || snap.LightState != StateOn {
		t.Errorf("snapshot = %+v, want camera on, light on", snap)
	}

	if len(rig.history.records) != 1 {
		t.Fatalf("history records = %d, want 1", len(rig.history.records))
	}
	rec := rig.history.records[0]
	if rec.Trigger != "camera" || rec.LightState != StateOn || rec.SessionID == "" {
		t.Errorf("record = %+v", rec)
	}
}

func TestController_LightStaysOnWhileAnySourceActive(t *testing.T) {
	rig := newTestRig(t, config.ModeBoth)
	ctx := context.Background()

	rig.controller.handleEvent(ctx, event(detect.SourceCamera, detect.KindStarted))
	rig.controller.handleEvent(ctx, event(detect.SourceMic, detect.KindStarted))
	rig.controller.handleEvent(ctx, event(detect.SourceCamera, detect.KindStopped))

	// One on invocation; mic is still live so no off.
	if len(rig.invoker.calls) != 1 {
		t.Fatalf("invoker calls = %v, want single on", rig.invoker.calls)
	}

	rig.controller.handleEvent(ctx, event(detect.SourceMic, detect.KindStopped))
	if len(rig.invoker.calls) != 2 || rig.invoker.calls[1] != "Light Off" {
		t.Fatalf("invoker calls = %v, want off after last source stops", rig.invoker.calls)
	}
}

func TestController_DuplicateEventsDoNotReinvoke(t *testing.T) {
	rig := newTestRig(t, config.ModeBoth)
	ctx := context.Background()

	rig.controller.handleEvent(ctx, event(detect.SourceCamera, detect.KindStarted))
	rig.controller.handleEvent(ctx, event(detect.SourceCamera, detect.KindStarted))
	rig.controller.handleEvent(ctx, event(detect.SourceCamera, detect.KindStarted))

	if len(rig.invoker.calls) != 1 {
		t.Errorf("invoker calls = %v, want exactly one", rig.invoker.calls)
	}
}

func TestController_ModeCameraIgnoresMic(t *testing.T) {
	rig := newTestRig(t, config.ModeCamera)
	ctx := context.Background()

	rig.controller.handleEvent(ctx, event(detect.SourceMic, detect.KindStarted))

	if len(rig.invoker.calls) != 0 {
		t.Errorf("invoker calls = %v, want none in camera mode for mic event", rig.invoker.calls)
	}

	snap, _ := rig.stateFile.Read()
	if !snap.MicOn {
		t.Error("mic state should still be tracked in camera mode")
	}
	if snap.LightState != StateOff {
		t.Errorf("LightState = %v, want off", snap.LightState)
	}
}

func TestController_FailedInvocationRetriesOnNextEvent(t *testing.T) {
	rig := newTestRig(t, config.ModeBoth)
	ctx := context.Background()

	rig.invoker.fail = true
	rig.controller.handleEvent(ctx, event(detect.SourceCamera, detect.KindStarted))

	// Light state must not claim on after a failure.
	snap, _ := rig.stateFile.Read()
	if snap.LightState != StateOff {
		t.Errorf("LightState = %v after failed invocation, want off", snap.LightState)
	}
	if len(rig.history.records) != 0 {
		t.Errorf("failed invocation recorded a transition: %+v", rig.history.records)
	}

	// A duplicate event retries the invocation even though detection state
	// did not change.
	rig.invoker.fail = false
	rig.controller.handleEvent(ctx, event(detect.SourceCamera, detect.KindStarted))

	if len(rig.invoker.calls) != 2 {
		t.Fatalf("invoker calls = %v, want retry", rig.invoker.calls)
	}
	snap, _ = rig.stateFile.Read()
	if snap.LightState != StateOn {
		t.Errorf("LightState = %v after retry, want on", snap.LightState)
	}
}

// A failed on invocation followed by the source stopping leaves nothing to
// retry: the light was never confirmed on, so no off invocation and no
// history row.
func TestController_FailedOnThenStopInvokesNothing(t *testing.T) {
	rig := newTestRig(t, config.ModeBoth)
	ctx := context.Background()

	rig.invoker.fail = true
	rig.controller.handleEvent(ctx, event(detect.SourceCamera, detect.KindStarted))

	rig.invoker.fail = false
	rig.controller.handleEvent(ctx, event(detect.SourceCamera, detect.KindStopped))

	if len(rig.invoker.calls) != 1 || rig.invoker.calls[0] != "Light On" {
		t.Fatalf("invoker calls = %v, want only the failed on attempt", rig.invoker.calls)
	}
	if len(rig.history.records) != 0 {
		t.Errorf("history records = %+v, want none", rig.history.records)
	}
	snap, _ := rig.stateFile.Read()
	if snap.LightState != StateOff || snap.CameraOn {
		t.Errorf("snapshot = %+v, want camera off, light off", snap)
	}

	// The retry flag was cleared when the desired state collapsed back, so
	// a duplicate stop stays quiet too.
	rig.controller.handleEvent(ctx, event(detect.SourceCamera, detect.KindStopped))
	if len(rig.invoker.calls) != 1 {
		t.Errorf("invoker calls = %v, duplicate stop re-invoked", rig.invoker.calls)
	}
}

func TestController_SessionSpansOnToOff(t *testing.T) {
	rig := newTestRig(t, config.ModeBoth)
	ctx := context.Background()

	rig.controller.handleEvent(ctx, event(detect.SourceCamera, detect.KindStarted))
	onSession := rig.history.records[0].SessionID
	if onSession == "" {
		t.Fatal("on transition has no session id")
	}

	rig.controller.handleEvent(ctx, event(detect.SourceCamera, detect.KindStopped))
	offSession := rig.history.records[1].SessionID
	if offSession != "" {
		t.Errorf("off transition session id = %q, want empty", offSession)
	}

	// A new busy session gets a new id.
	rig.controller.handleEvent(ctx, event(detect.SourceCamera, detect.KindStarted))
	if next := rig.history.records[2].SessionID; next == onSession {
		t.Error("new session reused the previous session id")
	}
}

// A restart with a snapshot that is already satisfied must not re-invoke
// the actuator.
func TestController_StartupSatisfiedSnapshotNoInvocation(t *testing.T) {
	rig := newTestRig(t, config.ModeBoth)

	seed := Snapshot{CameraOn: true, LightState: StateOn, UpdatedAt: time.Now()}
	if err := rig.stateFile.Write(seed); err != nil {
		t.Fatalf("seeding snapshot: %v", err)
	}

	rig.controller.restoreSnapshot(context.Background())

	if len(rig.invoker.calls) != 0 {
		t.Errorf("invoker calls = %v, want none for satisfied snapshot", rig.invoker.calls)
	}
	snap, _ := rig.stateFile.Read()
	if !snap.CameraOn || snap.LightState != StateOn {
		t.Errorf("snapshot after restore = %+v, want camera on, light on", snap)
	}
}

// A snapshot that claims the light is on with no active source is drift
// from a crash mid-transition; startup reconciles it off.
func TestController_StartupReconcilesDriftedSnapshot(t *testing.T) {
	rig := newTestRig(t, config.ModeBoth)

	if err := rig.stateFile.Write(Snapshot{LightState: StateOn, UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("seeding snapshot: %v", err)
	}

	rig.controller.restoreSnapshot(context.Background())

	if len(rig.invoker.calls) != 1 || rig.invoker.calls[0] != "Light Off" {
		t.Fatalf("invoker calls = %v, want [Light Off]", rig.invoker.calls)
	}
	snap, _ := rig.stateFile.Read()
	if snap.LightState != StateOff {
		t.Errorf("LightState = %v after startup reconcile, want off", snap.LightState)
	}
	if rig.history.records[0].Trigger != TriggerStartup {
		t.Errorf("trigger = %q, want %q", rig.history.records[0].Trigger, TriggerStartup)
	}
}

func TestController_PublishesStateTopics(t *testing.T) {
	rig := newTestRig(t, config.ModeBoth)

	rig.controller.handleEvent(context.Background(), event(detect.SourceCamera, detect.KindStarted))

	if _, ok := rig.publisher.published["onair/state/camera"]; !ok {
		t.Error("camera state topic not published")
	}
	if _, ok := rig.publisher.published["onair/state/light"]; !ok {
		t.Error("light state topic not published")
	}
}

func TestController_RunStopsOnCancel(t *testing.T) {
	rig := newTestRig(t, config.ModeBoth)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = rig.controller.Run(ctx)
	}()

	rig.events <- event(detect.SourceCamera, detect.KindStarted)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}
