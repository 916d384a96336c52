// Package mqtt publishes onaird state to an MQTT broker.
//
// The daemon is publish-only: camera, microphone, and light state changes go
// out as retained messages so other home-automation subscribers always see
// the current on-air state, and a Last Will marks the daemon offline if it
// crashes. Nothing is subscribed to; the daemon takes no commands over MQTT.
//
// Topic hierarchy:
//
//	onair/state/camera   retained, {"active":true,...}
//	onair/state/mic      retained
//	onair/state/light    retained, includes the busy session id
//	onair/system/status  retained, online/offline (LWT)
//
// Publishing is best-effort. A broker outage never blocks or fails a light
// transition; failures are logged and the retained state catches up on
// reconnect.
package mqtt
