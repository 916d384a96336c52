// Package light owns the on-air light state machine.
//
// A single controller goroutine consumes classified detection events,
// derives the desired light state from the configured detection mode, and
// reconciles the physical light through the shortcut actuator. Running the
// reconcile loop on one goroutine guarantees at most one actuator
// invocation is ever in flight.
//
// Failed invocations never crash the daemon: the controller remembers that
// the light is out of sync and retries on the next event. Every confirmed
// transition is persisted to the status snapshot file, recorded in the
// transition history database, and optionally published over MQTT and
// written to InfluxDB.
package light
