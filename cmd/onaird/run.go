package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/quietwire/onaird/internal/detect"
	"github.com/quietwire/onaird/internal/infrastructure/config"
	"github.com/quietwire/onaird/internal/infrastructure/database"
	"github.com/quietwire/onaird/internal/infrastructure/influxdb"
	"github.com/quietwire/onaird/internal/infrastructure/logging"
	"github.com/quietwire/onaird/internal/infrastructure/mqtt"
	"github.com/quietwire/onaird/internal/light"
	"github.com/quietwire/onaird/internal/shortcut"
)

// eventBuffer sizes the shared detection event channel. Bursts beyond this
// apply backpressure to the stream readers, which is harmless.
const eventBuffer = 16

// cmdMonitor runs the daemon until interrupted. This is the command the
// LaunchAgent invokes; --verbose forces debug text output to stdout for
// interactive runs.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Remaining command line arguments
//
// Returns:
//   - error: nil on clean shutdown, or error describing startup failure
func cmdMonitor(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("monitor", pflag.ContinueOnError)
	verbose := fs.Bool("verbose", false, "debug output to stdout")
	cfg, cfgPath, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	log := newLogger(cfg, *verbose)
	log.Info("starting onaird",
		"version", version,
		"commit", commit,
		"build_date", date,
		"config", cfgPath,
		"mode", cfg.Detection.Mode,
	)

	// Open database and run migrations
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Build the light controller
	events := make(chan detect.Event, eventBuffer)
	stateFile := light.NewStateFile(cfg.State.Path)
	history := light.NewSQLiteHistoryRepository(db.DB)

	// Prune old transition history so the database does not grow without
	// bound. A prune failure is not worth refusing to start over.
	if retention := cfg.HistoryRetention(); retention > 0 {
		pruned, pruneErr := history.PruneTransitions(ctx, retention)
		if pruneErr != nil {
			log.Warn("failed to prune transition history", "error", pruneErr)
		} else if pruned > 0 {
			log.Info("pruned old transitions",
				"deleted", pruned,
				"retention_days", cfg.Database.RetentionDays,
			)
		}
	}

	invoker := shortcut.NewRunner(shortcut.WithTimeout(cfg.ShortcutTimeout()))

	controllerCfg := light.ControllerConfig{
		Mode:        cfg.Detection.Mode,
		ShortcutOn:  cfg.Shortcuts.On,
		ShortcutOff: cfg.Shortcuts.Off,
		Invoker:     invoker,
		Events:      events,
		StateFile:   stateFile,
		History:     history,
	}
	if mqttClient != nil {
		controllerCfg.Publisher = mqttClient
	}
	if influxClient != nil {
		controllerCfg.Telemetry = influxClient
	}

	controller, err := light.NewController(controllerCfg)
	if err != nil {
		return fmt.Errorf("creating light controller: %w", err)
	}
	controller.SetLogger(log)

	// Start the detection monitors for the configured mode
	monitors, err := startMonitors(ctx, cfg, events, log)
	if err != nil {
		return err
	}
	defer func() {
		for _, m := range monitors {
			log.Info("stopping monitor", "source", m.Source())
			if stopErr := m.Stop(); stopErr != nil {
				log.Error("error stopping monitor", "source", m.Source(), "error", stopErr)
			}
		}
	}()

	// Verify infrastructure is healthy before declaring readiness
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Run the controller until shutdown. The controller owns all light
	// state; monitors feed it through the shared channel.
	controllerDone := make(chan struct{})
	go func() {
		defer close(controllerDone)
		_ = controller.Run(ctx)
	}()

	log.Info("initialisation complete, watching for activity")

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	<-controllerDone

	log.Info("onaird stopped")
	return nil
}

// startMonitors launches the log stream monitors the detection mode needs.
func startMonitors(ctx context.Context, cfg *config.Config, events chan detect.Event, log *logging.Logger) ([]*detect.Monitor, error) {
	var classifiers []detect.Classifier
	switch cfg.Detection.Mode {
	case config.ModeCamera:
		classifiers = []detect.Classifier{detect.NewCameraClassifier()}
	case config.ModeMic:
		classifiers = []detect.Classifier{detect.NewMicClassifier()}
	default:
		classifiers = []detect.Classifier{detect.NewCameraClassifier(), detect.NewMicClassifier()}
	}

	monitors := make([]*detect.Monitor, 0, len(classifiers))
	for _, classifier := range classifiers {
		// Only the microphone is debounced; camera transitions are clean.
		var window time.Duration
		if classifier.Source() == detect.SourceMic {
			window = cfg.MicDebounce()
		}

		monitor, err := detect.NewMonitor(detect.MonitorConfig{
			Classifier:          classifier,
			Events:              events,
			LogBinary:           cfg.LogStream.Binary,
			DebounceWindow:      window,
			RestartInitialDelay: cfg.LogStream.RestartInitialDelay,
			RestartMaxDelay:     cfg.LogStream.RestartMaxDelay,
			MaxRestartAttempts:  cfg.LogStream.MaxRestartAttempts,
		})
		if err != nil {
			return nil, fmt.Errorf("creating %s monitor: %w", classifier.Source(), err)
		}
		monitor.SetLogger(log)

		if err := monitor.Start(ctx); err != nil {
			// Stop anything already started before bailing out.
			for _, started := range monitors {
				_ = started.Stop()
			}
			return nil, fmt.Errorf("starting %s monitor: %w", classifier.Source(), err)
		}

		monitors = append(monitors, monitor)
	}

	return monitors, nil
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - db: Database connection (required)
//   - mqttClient: MQTT client (nil when disabled)
//   - influxClient: InfluxDB client (nil when disabled)
//
// Returns:
//   - error: Description of the first failing check, or nil
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.HealthCheck(checkCtx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(checkCtx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(checkCtx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
