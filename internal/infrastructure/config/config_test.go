package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
shortcuts:
  on: "Light On"
  off: "Light Off"
detection:
  mode: "camera"
  mic_debounce_ms: 500
database:
  path: "/tmp/test.db"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Shortcuts.On != "Light On" {
		t.Errorf("Shortcuts.On = %q, want %q", cfg.Shortcuts.On, "Light On")
	}
	if cfg.Detection.Mode != ModeCamera {
		t.Errorf("Detection.Mode = %q, want %q", cfg.Detection.Mode, ModeCamera)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
}

func TestLoad_Defaults(t *testing.T) {
	content := `
shortcuts:
  on: "On"
  off: "Off"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Detection.Mode != ModeBoth {
		t.Errorf("default mode = %q, want %q", cfg.Detection.Mode, ModeBoth)
	}
	if cfg.Shortcuts.TimeoutSeconds != 10 {
		t.Errorf("default timeout = %d, want 10", cfg.Shortcuts.TimeoutSeconds)
	}
	if cfg.Detection.MicDebounceMs != 300 {
		t.Errorf("default debounce = %d, want 300", cfg.Detection.MicDebounceMs)
	}
	if cfg.Service.Label != "io.quietwire.onaird" {
		t.Errorf("default label = %q", cfg.Service.Label)
	}
	if cfg.LogStream.Binary != "/usr/bin/log" {
		t.Errorf("default log binary = %q", cfg.LogStream.Binary)
	}
	if cfg.LogStream.RestartInitialDelay != time.Second {
		t.Errorf("default restart initial delay = %v", cfg.LogStream.RestartInitialDelay)
	}
	if cfg.Database.RetentionDays != 90 {
		t.Errorf("default retention days = %d, want 90", cfg.Database.RetentionDays)
	}
	if cfg.HistoryRetention() != 90*24*time.Hour {
		t.Errorf("HistoryRetention() = %v, want %v", cfg.HistoryRetention(), 90*24*time.Hour)
	}
}

func TestValidate_NegativeRetention(t *testing.T) {
	content := `
shortcuts:
  on: "On"
  off: "Off"
database:
  retention_days: -1
`
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Error("Load() expected validation error for negative retention, got nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_MissingShortcuts(t *testing.T) {
	content := `
detection:
  mode: both
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for missing shortcuts, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
shortcuts:
  on: "File On"
  off: "File Off"
`
	t.Setenv("ONAIRD_SHORTCUTS_ON", "Env On")
	t.Setenv("ONAIRD_DETECTION_MODE", "mic")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Shortcuts.On != "Env On" {
		t.Errorf("Shortcuts.On = %q, want env override %q", cfg.Shortcuts.On, "Env On")
	}
	if cfg.Shortcuts.Off != "File Off" {
		t.Errorf("Shortcuts.Off = %q, want file value %q", cfg.Shortcuts.Off, "File Off")
	}
	if cfg.Detection.Mode != ModeMic {
		t.Errorf("Detection.Mode = %q, want %q", cfg.Detection.Mode, ModeMic)
	}
}

func TestValidate_InvalidMode(t *testing.T) {
	cfg := defaultConfig()
	cfg.Shortcuts.On = "On"
	cfg.Shortcuts.Off = "Off"
	cfg.Detection.Mode = "webcam"

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for invalid mode, got nil")
	}
}

func TestValidate_MQTTEnabledNeedsHost(t *testing.T) {
	cfg := defaultConfig()
	cfg.Shortcuts.On = "On"
	cfg.Shortcuts.Off = "Off"
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker.Host = ""

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for enabled MQTT without host, got nil")
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := defaultConfig()
	if got := cfg.ShortcutTimeout(); got != 10*time.Second {
		t.Errorf("ShortcutTimeout() = %v, want 10s", got)
	}
	if got := cfg.MicDebounce(); got != 300*time.Millisecond {
		t.Errorf("MicDebounce() = %v, want 300ms", got)
	}
}
