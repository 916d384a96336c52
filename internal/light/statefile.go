package light

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Snapshot is the persisted view of daemon state, written after every
// transition so external tools (and the status command) can read it without
// talking to the daemon.
type Snapshot struct {
	CameraOn   bool
	MicOn      bool
	LightState State
	UpdatedAt  time.Time
}

// StateFile persists snapshots as a flat key=value file.
//
// The format is deliberately trivial so shell scripts can source it:
//
//	CAMERA_ON=0
//	MIC_ON=1
//	LIGHT_STATE=on
//	UPDATED_AT=2026-03-15T12:00:00Z
type StateFile struct {
	path string
}

// NewStateFile creates a state file handle for the given path.
func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

// Path returns the snapshot file path.
func (s *StateFile) Path() string {
	return s.path
}

// Write atomically replaces the snapshot file.
//
// The snapshot is written to a temporary file in the same directory and
// renamed into place, so readers never observe a partial write.
//
// Parameters:
//   - snap: Snapshot to persist
//
// Returns:
//   - error: If the directory cannot be created or the write fails
func (s *StateFile) Write(snap Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CAMERA_ON=%s\n", boolFlag(snap.CameraOn))
	fmt.Fprintf(&b, "MIC_ON=%s\n", boolFlag(snap.MicOn))
	fmt.Fprintf(&b, "LIGHT_STATE=%s\n", snap.LightState)
	fmt.Fprintf(&b, "UPDATED_AT=%s\n", snap.UpdatedAt.UTC().Format(time.RFC3339))

	tmp, err := os.CreateTemp(dir, ".status-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing state file: %w", err)
	}

	return nil
}

// Read loads the snapshot from disk.
//
// Unknown keys are ignored so the format can grow. A missing file is
// reported via os.IsNotExist on the returned error.
//
// Returns:
//   - Snapshot: Parsed snapshot; zero values for absent keys
//   - error: If the file cannot be read or a known key has a bad value
func (s *StateFile) Read() (Snapshot, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()

	snap := Snapshot{LightState: StateOff}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		switch key {
		case "CAMERA_ON":
			snap.CameraOn = value == "1"
		case "MIC_ON":
			snap.MicOn = value == "1"
		case "LIGHT_STATE":
			switch State(value) {
			case StateOn, StateOff:
				snap.LightState = State(value)
			default:
				return Snapshot{}, fmt.Errorf("invalid LIGHT_STATE %q", value)
			}
		case "UPDATED_AT":
			ts, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return Snapshot{}, fmt.Errorf("parsing UPDATED_AT: %w", err)
			}
			snap.UpdatedAt = ts
		}
	}
	if err := scanner.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("reading state file: %w", err)
	}

	return snap, nil
}

// Remove deletes the snapshot file. Missing files are not an error.
func (s *StateFile) Remove() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing state file: %w", err)
	}
	return nil
}

// boolFlag renders a bool as "1" or "0" for the key=value format.
func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
