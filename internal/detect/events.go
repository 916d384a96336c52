package detect

import "time"

// Source identifies a detection source.
type Source string

// Detection sources.
const (
	SourceCamera Source = "camera"
	SourceMic    Source = "mic"
)

// Kind classifies a log line.
type Kind int

// Classification results.
const (
	// KindIgnore marks noise: headers, separator lines, and activity from
	// system processes that must not drive the light.
	KindIgnore Kind = iota

	// KindStarted marks the source becoming active.
	KindStarted

	// KindStopped marks the source becoming inactive.
	KindStopped
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindStarted:
		return "started"
	case KindStopped:
		return "stopped"
	default:
		return "ignore"
	}
}

// Event is a classified detection event delivered to the light controller.
type Event struct {
	// Source is the detection source that produced the event.
	Source Source

	// Kind is KindStarted or KindStopped; KindIgnore events are never delivered.
	Kind Kind

	// At is when the underlying log line was observed.
	At time.Time
}

// Classifier turns raw log lines from one source into events.
//
// Implementations must be safe for use from a single goroutine; the monitor
// never calls Classify concurrently.
type Classifier interface {
	// Source identifies which detection source this classifier serves.
	Source() Source

	// Classify maps a raw log line to an event kind.
	Classify(line string) Kind

	// StreamArgs returns the `log` arguments that produce this source's stream.
	StreamArgs() []string
}
