package detect

import "strings"

// cameraPublishersPhrase is emitted by the camera capture daemon whenever the
// set of processes publishing camera frames changes. An empty set means no
// process is using the camera.
const cameraPublishersPhrase = "Active camera publishers changed to"

// CameraClassifier classifies camera capture daemon log lines.
//
// The unified log reports every change to the camera publisher list; the set
// literal at the end of the message distinguishes "camera in use" from
// "camera released":
//
//	Active camera publishers changed to {}            -> stopped
//	Active camera publishers changed to {zoom.us.498} -> started
type CameraClassifier struct{}

// NewCameraClassifier creates a classifier for the camera log stream.
func NewCameraClassifier() *CameraClassifier {
	return &CameraClassifier{}
}

// Source identifies the camera detection source.
func (*CameraClassifier) Source() Source {
	return SourceCamera
}

// StreamArgs returns the `log` arguments for the camera stream.
func (*CameraClassifier) StreamArgs() []string {
	return []string{
		"stream",
		"--predicate", `subsystem == "com.apple.cameracapture" AND eventMessage CONTAINS "` + cameraPublishersPhrase + `"`,
	}
}

// Classify maps a camera log line to an event kind.
//
// Lines without the publisher phrase (stream headers, separators) are noise.
func (*CameraClassifier) Classify(line string) Kind {
	idx := strings.Index(line, cameraPublishersPhrase)
	if idx < 0 {
		return KindIgnore
	}

	rest := strings.TrimSpace(line[idx+len(cameraPublishersPhrase):])

	// Malformed remainder: treat as noise rather than guessing.
	if !strings.HasPrefix(rest, "{") {
		return KindIgnore
	}

	// An empty publisher set is printed as "{}" (occasionally "{ }").
	if emptySetLiteral(rest) {
		return KindStopped
	}
	return KindStarted
}

// emptySetLiteral reports whether s begins with an empty set literal.
func emptySetLiteral(s string) bool {
	end := strings.Index(s, "}")
	if end < 0 {
		return false
	}
	return strings.TrimSpace(s[1:end]) == ""
}
