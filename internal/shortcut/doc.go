// Package shortcut invokes macOS Shortcuts as the light actuator.
//
// The daemon never talks to light hardware directly: the user builds two
// Shortcuts (one turns the light on, one off) against whatever ecosystem the
// light lives in, and onaird shells out to `shortcuts run <name>`.
//
// Every invocation is bounded by a timeout so an unresponsive automation
// cannot hang the reconcile path. The Invoker interface exists so tests can
// substitute a fake actuator.
package shortcut
