package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

// launchctlTimeout bounds each launchctl invocation.
const launchctlTimeout = 15 * time.Second

// ErrNotInstalled is returned when uninstalling a service that was never installed.
var ErrNotInstalled = errors.New("service: not installed")

// plistTemplate is the LaunchAgent property list. KeepAlive restarts the
// daemon if it crashes; RunAtLoad starts it at login.
const plistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{.Label}}</string>
	<key>ProgramArguments</key>
	<array>
		<string>{{.Program}}</string>
		<string>monitor</string>
		<string>--config</string>
		<string>{{.ConfigPath}}</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
	<key>StandardOutPath</key>
	<string>{{.LogPath}}</string>
	<key>StandardErrorPath</key>
	<string>{{.ErrorLogPath}}</string>
</dict>
</plist>
`

// Definition describes the LaunchAgent to install.
type Definition struct {
	// Label is the launchd job label, e.g. "io.quietwire.onaird".
	Label string

	// Program is the absolute path to the onaird binary.
	Program string

	// ConfigPath is the absolute path to the YAML configuration file.
	ConfigPath string

	// LogPath and ErrorLogPath receive the daemon's stdout and stderr.
	LogPath      string
	ErrorLogPath string
}

// Manager installs and removes the LaunchAgent.
type Manager struct {
	def Definition

	// agentsDir is where plists are written. Overridable for tests.
	agentsDir string

	// launchctl is the launchctl binary path. Overridable for tests.
	launchctl string
}

// NewManager creates a service manager for the given definition.
//
// Returns:
//   - *Manager: Manager ready for Install/Uninstall
//   - error: If the definition is incomplete or the home directory is unknown
func NewManager(def Definition) (*Manager, error) {
	if def.Label == "" {
		return nil, fmt.Errorf("service: label is required")
	}
	if def.Program == "" {
		return nil, fmt.Errorf("service: program path is required")
	}
	if def.ConfigPath == "" {
		return nil, fmt.Errorf("service: config path is required")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("service: resolving home directory: %w", err)
	}

	return &Manager{
		def:       def,
		agentsDir: filepath.Join(home, "Library", "LaunchAgents"),
		launchctl: "/bin/launchctl",
	}, nil
}

// PlistPath returns where the LaunchAgent plist lives.
func (m *Manager) PlistPath() string {
	return filepath.Join(m.agentsDir, m.def.Label+".plist")
}

// IsInstalled reports whether the plist exists on disk.
func (m *Manager) IsInstalled() bool {
	_, err := os.Stat(m.PlistPath())
	return err == nil
}

// Install writes the plist and loads it into launchd.
//
// Install is idempotent: an existing job is unloaded before the plist is
// rewritten, so repeated installs pick up definition changes.
//
// Parameters:
//   - ctx: Context for the launchctl invocations
//
// Returns:
//   - error: If rendering, writing, or loading fails
func (m *Manager) Install(ctx context.Context) error {
	if err := os.MkdirAll(m.agentsDir, 0o755); err != nil {
		return fmt.Errorf("creating LaunchAgents directory: %w", err)
	}

	// Reinstalls must unload first or launchd keeps the old definition.
	if m.IsInstalled() {
		if err := m.launchctlRun(ctx, "unload", m.PlistPath()); err != nil {
			return fmt.Errorf("unloading existing job: %w", err)
		}
	}

	plist, err := RenderPlist(m.def)
	if err != nil {
		return err
	}

	if err := os.WriteFile(m.PlistPath(), plist, 0o644); err != nil {
		return fmt.Errorf("writing plist: %w", err)
	}

	if err := m.launchctlRun(ctx, "load", m.PlistPath()); err != nil {
		return fmt.Errorf("loading job: %w", err)
	}

	return nil
}

// Uninstall unloads the job and removes the plist.
//
// Parameters:
//   - ctx: Context for the launchctl invocation
//
// Returns:
//   - error: ErrNotInstalled if no plist exists, otherwise the underlying failure
func (m *Manager) Uninstall(ctx context.Context) error {
	if !m.IsInstalled() {
		return ErrNotInstalled
	}

	if err := m.launchctlRun(ctx, "unload", m.PlistPath()); err != nil {
		return fmt.Errorf("unloading job: %w", err)
	}

	if err := os.Remove(m.PlistPath()); err != nil {
		return fmt.Errorf("removing plist: %w", err)
	}

	return nil
}

// launchctlRun executes one launchctl subcommand with a timeout.
func (m *Manager) launchctlRun(ctx context.Context, args ...string) error {
	runCtx, cancel := context.WithTimeout(ctx, launchctlTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, m.launchctl, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("launchctl %s: %w (output: %s)",
			strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}

// RenderPlist renders the LaunchAgent plist for a definition.
//
// Returns:
//   - []byte: The rendered property list
//   - error: If the template fails to execute
func RenderPlist(def Definition) ([]byte, error) {
	tmpl, err := template.New("plist").Parse(plistTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing plist template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, def); err != nil {
		return nil, fmt.Errorf("rendering plist: %w", err)
	}

	return buf.Bytes(), nil
}
