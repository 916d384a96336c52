package mqtt

import (
	"strings"
	"testing"

	"github.com/quietwire/onaird/internal/infrastructure/config"
)

func testMQTTConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "localhost",
			Port:     1883,
			ClientID: "onaird-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     60,
		},
	}
}

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		got  string
		want string
	}{
		{topics.SourceState("camera"), "onair/state/camera"},
		{topics.SourceState("mic"), "onair/state/mic"},
		{topics.LightState(), "onair/state/light"},
		{topics.SystemStatus(), "onair/system/status"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("topic = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestBuildClientOptions_PlainTCP(t *testing.T) {
	opts := buildClientOptions(testMQTTConfig())

	if len(opts.Servers) != 1 {
		t.Fatalf("got %d servers, want 1", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://localhost:1883" {
		t.Errorf("broker URL = %q, want tcp://localhost:1883", got)
	}
	if opts.ClientID != "onaird-test" {
		t.Errorf("ClientID = %q, want onaird-test", opts.ClientID)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false, want true")
	}
	if !opts.CleanSession {
		t.Error("CleanSession = false, want true")
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testMQTTConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if got := opts.Servers[0].String(); got != "ssl://localhost:8883" {
		t.Errorf("broker URL = %q, want ssl://localhost:8883", got)
	}
	if opts.TLSConfig == nil {
		t.Fatal("TLSConfig not set for TLS broker")
	}
}

func TestBuildClientOptions_Credentials(t *testing.T) {
	cfg := testMQTTConfig()
	cfg.Auth.Username = "onaird"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if opts.Username != "onaird" || opts.Password != "secret" {
		t.Error("credentials not applied to client options")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testMQTTConfig())
	configureLWT(opts, "onaird-test")

	if !opts.WillEnabled {
		t.Fatal("will not enabled")
	}
	if opts.WillTopic != "onair/system/status" {
		t.Errorf("will topic = %q, want onair/system/status", opts.WillTopic)
	}
	if !opts.WillRetained {
		t.Error("will not retained")
	}
	payload := string(opts.WillPayload)
	if !strings.Contains(payload, `"status":"offline"`) {
		t.Errorf("will payload = %q, missing offline status", payload)
	}
	if !strings.Contains(payload, "unexpected_disconnect") {
		t.Errorf("will payload = %q, missing disconnect reason", payload)
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("onaird-test")
	if !strings.Contains(online, `"status":"online"`) || !strings.Contains(online, "onaird-test") {
		t.Errorf("online payload = %q", online)
	}

	offline := buildOfflinePayload("onaird-test")
	if !strings.Contains(offline, "graceful_shutdown") {
		t.Errorf("offline payload = %q", offline)
	}
}

func TestPublish_Validation(t *testing.T) {
	c := &Client{cfg: testMQTTConfig()}

	if err := c.Publish("", []byte("x"), 1, false); err != ErrInvalidTopic {
		t.Errorf("empty topic error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("onair/state/light", []byte("x"), 3, false); err != ErrInvalidQoS {
		t.Errorf("bad QoS error = %v, want ErrInvalidQoS", err)
	}
}
