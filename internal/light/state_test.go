package light

import (
	"testing"

	"github.com/quietwire/onaird/internal/infrastructure/config"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		mode config.DetectionMode
		d    DetectionState
		want State
	}{
		{"camera mode camera on", config.ModeCamera, DetectionState{CameraOn: true}, StateOn},
		{"camera mode mic on only", config.ModeCamera, DetectionState{MicOn: true}, StateOff},
		{"camera mode all off", config.ModeCamera, DetectionState{}, StateOff},
		{"mic mode mic on", config.ModeMic, DetectionState{MicOn: true}, StateOn},
		{"mic mode camera on only", config.ModeMic, DetectionState{CameraOn: true}, StateOff},
		{"both mode camera on", config.ModeBoth, DetectionState{CameraOn: true}, StateOn},
		{"both mode mic on", config.ModeBoth, DetectionState{MicOn: true}, StateOn},
		{"both mode both on", config.ModeBoth, DetectionState{CameraOn: true, MicOn: true}, StateOn},
		{"both mode all off", config.ModeBoth, DetectionState{}, StateOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.mode, tt.d); got != tt.want {
				t.Errorf("Evaluate(%v, %+v) = %v, want %v", tt.mode, tt.d, got, tt.want)
			}
		})
	}
}

// Evaluate must be pure so repeated reconciliation is idempotent.
func TestEvaluate_Idempotent(t *testing.T) {
	d := DetectionState{CameraOn: true}
	first := Evaluate(config.ModeBoth, d)
	for i := 0; i < 10; i++ {
		if got := Evaluate(config.ModeBoth, d); got != first {
			t.Fatalf("Evaluate() changed between calls: %v then %v", first, got)
		}
	}
}
