package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DetectionMode selects which sources drive the light.
type DetectionMode string

// Supported detection modes.
const (
	// ModeCamera turns the light on only while the camera is in use.
	ModeCamera DetectionMode = "camera"

	// ModeMic turns the light on only while the microphone is recording.
	ModeMic DetectionMode = "mic"

	// ModeBoth turns the light on while either source is active.
	ModeBoth DetectionMode = "both"
)

// Config is the root configuration structure for onaird.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Shortcuts Shortcuts       `yaml:"shortcuts"`
	Detection DetectionConfig `yaml:"detection"`
	State     StateConfig     `yaml:"state"`
	Service   ServiceConfig   `yaml:"service"`
	LogStream LogStreamConfig `yaml:"logstream"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Shortcuts names the macOS Shortcuts that actuate the light.
type Shortcuts struct {
	// On is the Shortcut invoked to turn the light on.
	On string `yaml:"on"`

	// Off is the Shortcut invoked to turn the light off.
	Off string `yaml:"off"`

	// TimeoutSeconds bounds each `shortcuts run` invocation.
	// Default: 10
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// DetectionConfig controls source selection and debouncing.
type DetectionConfig struct {
	// Mode is one of "camera", "mic", or "both".
	Mode DetectionMode `yaml:"mode"`

	// MicDebounceMs is how long a microphone stop event is held before it
	// takes effect. A start event arriving inside the window cancels the
	// pending stop. Default: 300
	MicDebounceMs int `yaml:"mic_debounce_ms"`
}

// StateConfig locates the persisted status snapshot.
type StateConfig struct {
	// Path is the status snapshot file, rewritten on every transition.
	Path string `yaml:"path"`
}

// ServiceConfig contains launchd registration settings.
type ServiceConfig struct {
	// Label is the launchd job label.
	// Default: "io.quietwire.onaird"
	Label string `yaml:"label"`

	// LogPath receives the daemon's stdout.
	LogPath string `yaml:"log_path"`

	// ErrorLogPath receives the daemon's stderr.
	ErrorLogPath string `yaml:"error_log_path"`
}

// LogStreamConfig controls the `log stream` subprocesses and their restart policy.
type LogStreamConfig struct {
	// Binary is the path to the system log utility.
	// Default: "/usr/bin/log"
	Binary string `yaml:"binary"`

	// RestartInitialDelay is the first restart delay after a stream dies.
	// Default: 1s
	RestartInitialDelay time.Duration `yaml:"restart_initial_delay"`

	// RestartMaxDelay caps the exponential restart backoff.
	// Default: 60s
	RestartMaxDelay time.Duration `yaml:"restart_max_delay"`

	// MaxRestartAttempts limits restarts. 0 means unlimited, which is the
	// default: a dead stream should never take the daemon down.
	MaxRestartAttempts int `yaml:"max_restart_attempts"`
}

// DatabaseConfig contains SQLite transition-history settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// RetentionDays is how long transition history is kept; older rows are
	// pruned at startup. 0 keeps history forever. Default: 90
	RetentionDays int `yaml:"retention_days"`
}

// MQTTConfig contains MQTT broker connection settings.
// Publishing is optional; when disabled the daemon is fully local.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains optional telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ONAIRD_SECTION_KEY
// For example: ONAIRD_SHORTCUTS_ON, ONAIRD_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	dataDir := defaultDataDir()

	return &Config{
		Shortcuts: Shortcuts{
			TimeoutSeconds: 10,
		},
		Detection: DetectionConfig{
			Mode:          ModeBoth,
			MicDebounceMs: 300,
		},
		State: StateConfig{
			Path: filepath.Join(dataDir, "status"),
		},
		Service: ServiceConfig{
			Label:        "io.quietwire.onaird",
			LogPath:      filepath.Join(dataDir, "onaird.log"),
			ErrorLogPath: filepath.Join(dataDir, "onaird.err.log"),
		},
		LogStream: LogStreamConfig{
			Binary:              "/usr/bin/log",
			RestartInitialDelay: time.Second,
			RestartMaxDelay:     60 * time.Second,
		},
		Database: DatabaseConfig{
			Path:          filepath.Join(dataDir, "onaird.db"),
			WALMode:       true,
			BusyTimeout:   5,
			RetentionDays: 90,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "onaird",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// defaultDataDir returns the per-user data directory for onaird.
// Falls back to the current directory if the home directory is unknown.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, "Library", "Application Support", "onaird")
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ONAIRD_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Shortcuts
	if v := os.Getenv("ONAIRD_SHORTCUTS_ON"); v != "" {
		cfg.Shortcuts.On = v
	}
	if v := os.Getenv("ONAIRD_SHORTCUTS_OFF"); v != "" {
		cfg.Shortcuts.Off = v
	}

	// Detection
	if v := os.Getenv("ONAIRD_DETECTION_MODE"); v != "" {
		cfg.Detection.Mode = DetectionMode(v)
	}

	// Database
	if v := os.Getenv("ONAIRD_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("ONAIRD_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ONAIRD_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ONAIRD_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("ONAIRD_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("ONAIRD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Shortcut validation - both actions are required, the daemon is useless
	// without something to invoke.
	if c.Shortcuts.On == "" {
		errs = append(errs, "shortcuts.on is required")
	}
	if c.Shortcuts.Off == "" {
		errs = append(errs, "shortcuts.off is required")
	}
	if c.Shortcuts.TimeoutSeconds <= 0 {
		errs = append(errs, "shortcuts.timeout_seconds must be positive")
	}

	// Detection validation
	switch c.Detection.Mode {
	case ModeCamera, ModeMic, ModeBoth:
	default:
		errs = append(errs, fmt.Sprintf("detection.mode must be camera, mic, or both (got %q)", c.Detection.Mode))
	}
	if c.Detection.MicDebounceMs < 0 {
		errs = append(errs, "detection.mic_debounce_ms must not be negative")
	}

	// State validation
	if c.State.Path == "" {
		errs = append(errs, "state.path is required")
	}

	// Service validation
	if c.Service.Label == "" {
		errs = append(errs, "service.label is required")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.Database.RetentionDays < 0 {
		errs = append(errs, "database.retention_days must not be negative")
	}

	// MQTT validation
	if c.MQTT.Enabled {
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ShortcutTimeout returns the actuator invocation timeout as a Duration.
func (c *Config) ShortcutTimeout() time.Duration {
	return time.Duration(c.Shortcuts.TimeoutSeconds) * time.Second
}

// HistoryRetention returns how long transition history is kept. Zero
// disables pruning.
func (c *Config) HistoryRetention() time.Duration {
	return time.Duration(c.Database.RetentionDays) * 24 * time.Hour
}

// MicDebounce returns the microphone stop debounce window as a Duration.
func (c *Config) MicDebounce() time.Duration {
	return time.Duration(c.Detection.MicDebounceMs) * time.Millisecond
}
