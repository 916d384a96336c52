// Package detect classifies macOS unified-log output into camera and
// microphone activity events.
//
// Each detection source is an independent `log stream` subprocess whose
// stdout is scanned line by line. A source-specific Classifier turns each
// line into a Started, Stopped, or Ignore event; Started/Stopped events are
// delivered to a single events channel consumed by the light controller.
//
// Microphone stop events are debounced: some conferencing apps stop and
// immediately restart recording when switching audio devices mid-call, and
// without the hold-off the light would flicker. A stop is held for a short
// window and discarded if a start arrives within it; starts are always
// delivered immediately.
//
// If a stream subprocess dies, only that stream is restarted (with capped
// exponential backoff). The daemon itself keeps running.
package detect
