// Package service manages the launchd registration for onaird.
//
// Install renders a LaunchAgent property list into the user's
// ~/Library/LaunchAgents directory and loads it with launchctl, so the
// daemon starts at login and is restarted if it exits. Uninstall reverses
// both steps and removes the status snapshot.
package service
