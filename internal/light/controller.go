package light

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quietwire/onaird/internal/detect"
	"github.com/quietwire/onaird/internal/infrastructure/config"
	"github.com/quietwire/onaird/internal/infrastructure/mqtt"
)

// TriggerStartup marks transitions performed during startup reconciliation
// rather than in response to a detection event.
const TriggerStartup = "startup"

// Logger defines the logging interface for the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Invoker actuates the light. Satisfied by shortcut.Runner.
type Invoker interface {
	Invoke(ctx context.Context, name string) error
}

// Publisher publishes retained state messages. Satisfied by mqtt.Client.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
}

// Telemetry records transition metrics. Satisfied by influxdb.Client.
type Telemetry interface {
	WriteTransition(sessionID string, trigger string, lightOn bool)
	WriteSessionDuration(sessionID string, duration time.Duration)
}

// ControllerConfig wires the controller's collaborators.
type ControllerConfig struct {
	// Mode selects which sources drive the light.
	Mode config.DetectionMode

	// ShortcutOn and ShortcutOff name the actuator automations.
	ShortcutOn  string
	ShortcutOff string

	// Invoker runs the actuator automations.
	Invoker Invoker

	// Events delivers classified detection events. The controller is the
	// channel's only consumer.
	Events <-chan detect.Event

	// StateFile persists the status snapshot. Required.
	StateFile *StateFile

	// History records confirmed transitions. Required.
	History HistoryRepository

	// Publisher publishes state over MQTT. Optional.
	Publisher Publisher

	// Telemetry writes transition metrics. Optional.
	Telemetry Telemetry
}

// Controller reconciles the physical light with the detection state.
//
// All state is owned by the Run goroutine; nothing here needs a mutex.
type Controller struct {
	cfg    ControllerConfig
	topics mqtt.Topics
	logger Logger

	detection DetectionState
	light     State

	// outOfSync is set when an invocation fails. While the desired state
	// still differs from the confirmed state, the next event retries even
	// if detection has not changed since.
	outOfSync bool

	// sessionID identifies the current busy session (light on). Empty while
	// the light is off.
	sessionID    string
	sessionStart time.Time
}

// NewController creates a controller.
//
// Returns:
//   - *Controller: Controller ready to Run
//   - error: If a required collaborator is missing
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Invoker == nil {
		return nil, fmt.Errorf("light: invoker is required")
	}
	if cfg.Events == nil {
		return nil, fmt.Errorf("light: events channel is required")
	}
	if cfg.StateFile == nil {
		return nil, fmt.Errorf("light: state file is required")
	}
	if cfg.History == nil {
		return nil, fmt.Errorf("light: history repository is required")
	}
	if cfg.ShortcutOn == "" || cfg.ShortcutOff == "" {
		return nil, fmt.Errorf("light: both shortcut names are required")
	}

	return &Controller{
		cfg:    cfg,
		logger: noopLogger{},
		light:  StateOff,
	}, nil
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
}

// Run consumes events until the context is cancelled.
//
// On startup the previous snapshot is restored so a restart does not
// re-trigger the light on state that is already satisfied: if the snapshot
// says the light is on and a source is still active, nothing is invoked.
// Only a genuinely inconsistent snapshot causes a startup transition.
//
// Parameters:
//   - ctx: Cancelling the context stops the loop after the current event
//
// Returns:
//   - error: Always nil; invocation failures are retried, never fatal
func (c *Controller) Run(ctx context.Context) error {
	c.restoreSnapshot(ctx)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("light controller stopped", "light", c.light)
			return nil
		case ev := <-c.cfg.Events:
			c.handleEvent(ctx, ev)
		}
	}
}

// restoreSnapshot loads the persisted snapshot and reconciles any drift.
func (c *Controller) restoreSnapshot(ctx context.Context) {
	snap, err := c.cfg.StateFile.Read()
	if err != nil {
		// Missing snapshot is the common first-run case.
		c.persistSnapshot()
		return
	}

	c.detection = DetectionState{CameraOn: snap.CameraOn, MicOn: snap.MicOn}
	c.light = snap.LightState
	c.logger.Info("restored previous state",
		"camera", c.detection.CameraOn,
		"mic", c.detection.MicOn,
		"light", c.light,
	)
	c.reconcile(ctx, TriggerStartup)
}

// handleEvent applies one detection event and reconciles the light.
func (c *Controller) handleEvent(ctx context.Context, ev detect.Event) {
	on := ev.Kind == detect.KindStarted

	switch ev.Source {
	case detect.SourceCamera:
		if c.detection.CameraOn == on {
			c.reconcileIfOutOfSync(ctx, ev)
			return
		}
		c.detection.CameraOn = on
	case detect.SourceMic:
		if c.detection.MicOn == on {
			c.reconcileIfOutOfSync(ctx, ev)
			return
		}
		c.detection.MicOn = on
	default:
		c.logger.Warn("event from unknown source", "source", ev.Source)
		return
	}

	c.logger.Info("detection state changed",
		"source", ev.Source,
		"kind", ev.Kind.String(),
		"camera", c.detection.CameraOn,
		"mic", c.detection.MicOn,
	)

	c.publishSourceState(ev.Source, on)
	c.reconcile(ctx, string(ev.Source))
}

// reconcileIfOutOfSync retries a previously failed invocation on a
// duplicate event without changing detection state.
func (c *Controller) reconcileIfOutOfSync(ctx context.Context, ev detect.Event) {
	if c.outOfSync {
		c.reconcile(ctx, string(ev.Source))
	}
}

// reconcile drives the light to the state the detection state demands.
//
// At most one invocation happens per call, and calls only ever come from
// the Run goroutine.
func (c *Controller) reconcile(ctx context.Context, trigger string) {
	desired := Evaluate(c.cfg.Mode, c.detection)
	if desired == c.light {
		// A failed attempt whose desired state has since collapsed back to
		// the confirmed state no longer needs a retry.
		c.outOfSync = false
		c.persistSnapshot()
		return
	}

	name := c.cfg.ShortcutOn
	if desired == StateOff {
		name = c.cfg.ShortcutOff
	}

	if err := c.cfg.Invoker.Invoke(ctx, name); err != nil {
		c.outOfSync = true
		c.logger.Error("light invocation failed, will retry on next event",
			"shortcut", name,
			"desired", desired,
			"error", err,
		)
		c.persistSnapshot()
		return
	}

	c.outOfSync = false
	previous := c.light
	c.light = desired
	c.logger.Info("light transitioned",
		"from", previous,
		"to", desired,
		"trigger", trigger,
	)

	c.trackSession(desired)
	c.persistSnapshot()
	c.recordTransition(ctx, trigger)
	c.publishLightState()

	if c.cfg.Telemetry != nil {
		c.cfg.Telemetry.WriteTransition(c.sessionID, trigger, desired == StateOn)
	}
}

// trackSession opens a busy session when the light turns on and closes it,
// reporting the duration, when it turns off.
func (c *Controller) trackSession(state State) {
	switch state {
	case StateOn:
		if c.sessionID == "" {
			c.sessionID = uuid.NewString()
			c.sessionStart = time.Now()
		}
	case StateOff:
		if c.sessionID != "" {
			if c.cfg.Telemetry != nil {
				c.cfg.Telemetry.WriteSessionDuration(c.sessionID, time.Since(c.sessionStart))
			}
			c.sessionID = ""
		}
	}
}

// persistSnapshot rewrites the status snapshot file.
func (c *Controller) persistSnapshot() {
	snap := Snapshot{
		CameraOn:   c.detection.CameraOn,
		MicOn:      c.detection.MicOn,
		LightState: c.light,
		UpdatedAt:  time.Now(),
	}
	if err := c.cfg.StateFile.Write(snap); err != nil {
		c.logger.Error("failed to persist status snapshot", "error", err)
	}
}

// recordTransition appends the confirmed transition to the history database.
func (c *Controller) recordTransition(ctx context.Context, trigger string) {
	t := Transition{
		SessionID:  c.sessionID,
		Trigger:    trigger,
		CameraOn:   c.detection.CameraOn,
		MicOn:      c.detection.MicOn,
		LightState: c.light,
	}
	if err := c.cfg.History.RecordTransition(ctx, t); err != nil {
		c.logger.Error("failed to record transition", "error", err)
	}
}

// publishSourceState publishes one source's state to its retained topic.
func (c *Controller) publishSourceState(source detect.Source, on bool) {
	if c.cfg.Publisher == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"active":     on,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}

	topic := c.topics.SourceState(string(source))
	if err := c.cfg.Publisher.PublishRetained(topic, payload); err != nil {
		c.logger.Warn("failed to publish source state", "topic", topic, "error", err)
	}
}

// publishLightState publishes the confirmed light state to its retained topic.
func (c *Controller) publishLightState() {
	if c.cfg.Publisher == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"state":      string(c.light),
		"session_id": c.sessionID,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}

	topic := c.topics.LightState()
	if err := c.cfg.Publisher.PublishRetained(topic, payload); err != nil {
		c.logger.Warn("failed to publish light state", "topic", topic, "error", err)
	}
}
