package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteTransition records a confirmed light transition.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - sessionID: Busy-session identifier (empty when the light turns off)
//   - trigger: The source that caused the transition (camera, mic, startup)
//   - lightOn: The new confirmed light state
//
// Example:
//
//	client.WriteTransition("0b54…", "camera", true)
func (c *Client) WriteTransition(sessionID string, trigger string, lightOn bool) {
	if !c.IsConnected() {
		return
	}

	state := 0.0
	if lightOn {
		state = 1.0
	}

	point := write.NewPoint(
		"light_transition",
		map[string]string{
			"trigger": trigger,
		},
		map[string]interface{}{
			"state":      state,
			"session_id": sessionID,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSessionDuration records a completed busy session (light on to off).
//
// Parameters:
//   - sessionID: Busy-session identifier
//   - duration: How long the light was on
func (c *Client) WriteSessionDuration(sessionID string, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"busy_session",
		map[string]string{},
		map[string]interface{}{
			"duration_seconds": duration.Seconds(),
			"session_id":       sessionID,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
