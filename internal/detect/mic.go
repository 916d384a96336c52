package detect

import "strings"

// Phrases coreaudiod logs when an input client starts or stops capturing.
const (
	micStartingPhrase = "starting recording"
	micStoppingPhrase = "stopping recording"
)

// defaultNoiseProcesses are system processes whose recording activity must
// never drive the light. Siri, dictation, and the system sound server all
// open the microphone briefly and log the same starting/stopping messages
// as real calls.
var defaultNoiseProcesses = []string{
	"assistantd",
	"corespeechd",
	"speechrecognitiond",
	"systemsoundserverd",
	"siri",
}

// MicClassifier classifies core audio daemon log lines.
//
// Lines mentioning a known system/assistant process are always noise,
// regardless of content. Remaining lines are matched on the
// starting/stopping recording phrases.
type MicClassifier struct {
	noiseProcesses []string
}

// NewMicClassifier creates a classifier for the microphone log stream.
func NewMicClassifier() *MicClassifier {
	return &MicClassifier{
		noiseProcesses: defaultNoiseProcesses,
	}
}

// Source identifies the microphone detection source.
func (*MicClassifier) Source() Source {
	return SourceMic
}

// StreamArgs returns the `log` arguments for the microphone stream.
func (*MicClassifier) StreamArgs() []string {
	return []string{
		"stream",
		"--predicate", `process == "coreaudiod" AND (eventMessage CONTAINS "` + micStartingPhrase + `" OR eventMessage CONTAINS "` + micStoppingPhrase + `")`,
	}
}

// Classify maps a microphone log line to an event kind.
func (c *MicClassifier) Classify(line string) Kind {
	lower := strings.ToLower(line)

	// System/assistant processes are filtered before phrase matching so
	// their recording messages can never be taken for meeting activity.
	for _, proc := range c.noiseProcesses {
		if strings.Contains(lower, proc) {
			return KindIgnore
		}
	}

	switch {
	case strings.Contains(lower, micStartingPhrase):
		return KindStarted
	case strings.Contains(lower, micStoppingPhrase):
		return KindStopped
	default:
		return KindIgnore
	}
}
