package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/quietwire/onaird/internal/process"
)

// Logger defines the logging interface for monitors.
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

// MonitorConfig configures a single detection source monitor.
type MonitorConfig struct {
	// Classifier provides the stream predicate and line classification.
	Classifier Classifier

	// Events receives classified Started/Stopped events. The channel is
	// shared with the other monitor and consumed by the light controller.
	Events chan<- Event

	// LogBinary is the path to the system log utility.
	// Default: "/usr/bin/log"
	LogBinary string

	// DebounceWindow holds stop events for this long; a start arriving
	// inside the window discards the pending stop. Zero disables debouncing.
	DebounceWindow time.Duration

	// Restart policy for the underlying log stream subprocess.
	RestartInitialDelay time.Duration
	RestartMaxDelay     time.Duration
	MaxRestartAttempts  int
}

// Monitor runs one `log stream` subprocess and feeds classified events into
// the shared events channel.
//
// Stream failure is never fatal: the subprocess is restarted with capped
// exponential backoff while the rest of the daemon keeps running.
type Monitor struct {
	cfg    MonitorConfig
	proc   *process.Manager
	deb    *stopDebouncer
	logger Logger
}

// NewMonitor creates a monitor for one detection source.
func NewMonitor(cfg MonitorConfig) (*Monitor, error) {
	if cfg.Classifier == nil {
		return nil, fmt.Errorf("detect: classifier is required")
	}
	if cfg.Events == nil {
		return nil, fmt.Errorf("detect: events channel is required")
	}
	if cfg.LogBinary == "" {
		cfg.LogBinary = "/usr/bin/log"
	}

	return &Monitor{
		cfg:    cfg,
		deb:    newStopDebouncer(cfg.DebounceWindow),
		logger: noopLogger{},
	}, nil
}

// SetLogger sets the logger for the monitor.
func (m *Monitor) SetLogger(logger Logger) {
	m.logger = logger
}

// Source returns the detection source this monitor serves.
func (m *Monitor) Source() Source {
	return m.cfg.Classifier.Source()
}

// Start launches the log stream subprocess.
//
// Parameters:
//   - ctx: Cancelling the context terminates the subprocess and stops restarts
//
// Returns:
//   - error: If the subprocess fails to launch
func (m *Monitor) Start(ctx context.Context) error {
	source := string(m.Source())

	m.proc = process.NewManager(process.Config{
		Name:                source + "-stream",
		Binary:              m.cfg.LogBinary,
		Args:                m.cfg.Classifier.StreamArgs(),
		RestartOnFailure:    true,
		RestartInitialDelay: m.cfg.RestartInitialDelay,
		RestartMaxDelay:     m.cfg.RestartMaxDelay,
		MaxRestartAttempts:  m.cfg.MaxRestartAttempts,
		OnLine:              m.handleLine,
		OnStop: func(err error) {
			if err != nil {
				m.logger.Warn("log stream ended", "source", source, "error", err)
			}
		},
		OnRestart: func(attempt int, delay time.Duration) {
			m.logger.Info("restarting log stream",
				"source", source,
				"attempt", attempt,
				"delay", delay,
			)
		},
	})
	m.proc.SetLogger(m.logger)

	if err := m.proc.Start(ctx); err != nil {
		return fmt.Errorf("starting %s stream: %w", source, err)
	}

	m.logger.Info("log stream started", "source", source, "pid", m.proc.PID())
	return nil
}

// Stop terminates the subprocess and discards any pending debounced stop.
func (m *Monitor) Stop() error {
	m.deb.Flush()
	if m.proc == nil {
		return nil
	}
	return m.proc.Stop()
}

// Stats returns subprocess statistics for status reporting.
func (m *Monitor) Stats() process.Stats {
	if m.proc == nil {
		return process.Stats{Name: string(m.Source()) + "-stream", Status: process.StatusStopped}
	}
	return m.proc.Stats()
}

// handleLine classifies one stream line and emits the resulting event.
//
// Called from the subprocess read goroutine. Sends block if the controller
// is busy; that backpressure is deliberate, events must not be dropped.
func (m *Monitor) handleLine(line string) {
	kind := m.cfg.Classifier.Classify(line)
	source := m.Source()

	switch kind {
	case KindIgnore:
		return

	case KindStarted:
		if m.deb.NoteStarted() {
			m.logger.Debug("pending stop discarded by start", "source", source)
		}
		m.emit(Event{Source: source, Kind: KindStarted, At: time.Now()})

	case KindStopped:
		at := time.Now()
		m.deb.Stop(func() {
			m.emit(Event{Source: source, Kind: KindStopped, At: at})
		})
	}
}

// emit delivers an event to the shared channel.
func (m *Monitor) emit(ev Event) {
	m.logger.Debug("detection event", "source", ev.Source, "kind", ev.Kind.String())
	m.cfg.Events <- ev
}
