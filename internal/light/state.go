package light

import "github.com/quietwire/onaird/internal/infrastructure/config"

// State is the light's on/off state.
type State string

// Light states.
const (
	StateOn  State = "on"
	StateOff State = "off"
)

// DetectionState tracks which sources are currently active.
type DetectionState struct {
	CameraOn bool
	MicOn    bool
}

// Evaluate derives the desired light state from the detection state under
// the given mode.
//
// The mapping is pure: the same inputs always produce the same output,
// which keeps reconciliation idempotent.
func Evaluate(mode config.DetectionMode, d DetectionState) State {
	var active bool
	switch mode {
	case config.ModeCamera:
		active = d.CameraOn
	case config.ModeMic:
		active = d.MicOn
	default:
		active = d.CameraOn || d.MicOn
	}

	if active {
		return StateOn
	}
	return StateOff
}
