package detect

import (
	"testing"
	"time"
)

func newTestMonitor(t *testing.T, window time.Duration) (*Monitor, chan Event) {
	t.Helper()
	events := make(chan Event, 8)
	m, err := NewMonitor(MonitorConfig{
		Classifier:     NewMicClassifier(),
		Events:         events,
		DebounceWindow: window,
	})
	if err != nil {
		t.Fatalf("NewMonitor() error = %v", err)
	}
	return m, events
}

func TestNewMonitor_RequiresClassifierAndChannel(t *testing.T) {
	if _, err := NewMonitor(MonitorConfig{Events: make(chan Event)}); err == nil {
		t.Error("expected error without classifier")
	}
	if _, err := NewMonitor(MonitorConfig{Classifier: NewMicClassifier()}); err == nil {
		t.Error("expected error without events channel")
	}
}

func TestMonitor_HandleLine_EmitsStartAndStop(t *testing.T) {
	m, events := newTestMonitor(t, 0)

	m.handleLine("coreaudiod: zoom.us starting recording")
	m.handleLine("coreaudiod: zoom.us stopping recording")

	ev := <-events
	if ev.Kind != KindStarted || ev.Source != SourceMic {
		t.Errorf("first event = %+v, want mic started", ev)
	}
	ev = <-events
	if ev.Kind != KindStopped {
		t.Errorf("second event = %+v, want mic stopped", ev)
	}
}

func TestMonitor_HandleLine_IgnoresNoise(t *testing.T) {
	m, events := newTestMonitor(t, 0)

	m.handleLine("coreaudiod: assistantd starting recording")
	m.handleLine("unrelated log chatter")

	select {
	case ev := <-events:
		t.Errorf("unexpected event %+v for noise lines", ev)
	default:
	}
}

// A stop followed quickly by a start must not flicker the light: the
// pending stop is discarded and only the start is delivered.
func TestMonitor_HandleLine_StartSuppressesPendingStop(t *testing.T) {
	m, events := newTestMonitor(t, 80*time.Millisecond)

	m.handleLine("coreaudiod: zoom.us starting recording")
	<-events

	m.handleLine("coreaudiod: zoom.us stopping recording")
	m.handleLine("coreaudiod: zoom.us starting recording")

	ev := <-events
	if ev.Kind != KindStarted {
		t.Errorf("event after suppressed stop = %v, want started", ev.Kind)
	}

	// The discarded stop must never arrive.
	select {
	case ev := <-events:
		t.Errorf("suppressed stop was delivered: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestMonitor_HandleLine_StopFiresAfterWindow(t *testing.T) {
	m, events := newTestMonitor(t, 20*time.Millisecond)

	m.handleLine("coreaudiod: zoom.us stopping recording")

	select {
	case ev := <-events:
		if ev.Kind != KindStopped {
			t.Errorf("event = %v, want stopped", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("debounced stop never delivered")
	}
}
