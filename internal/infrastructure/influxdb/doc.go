// Package influxdb provides optional telemetry for onaird.
//
// When enabled, every confirmed light transition and every completed busy
// session (light turning on until it turns off) is written as a point, giving a queryable
// record of how much time is spent on-air.
//
// Writes are batched and non-blocking; a telemetry outage never affects the
// light. Async write errors surface through the SetOnError callback.
package influxdb
