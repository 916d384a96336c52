package influxdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quietwire/onaird/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestIsConnected_ZeroClient(t *testing.T) {
	c := &Client{}
	if c.IsConnected() {
		t.Error("zero client reports connected")
	}
}

// Writes on a disconnected client must be silent no-ops; the daemon never
// blocks on telemetry.
func TestWrites_NoOpWhenDisconnected(t *testing.T) {
	c := &Client{}
	c.WriteTransition("session", "camera", true)
	c.WriteSessionDuration("session", time.Minute)
}

func TestHealthCheck_Disconnected(t *testing.T) {
	c := &Client{}
	if err := c.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() on disconnected client returned nil")
	}
}
