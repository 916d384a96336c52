package service

import (
	"context"
	"strings"
	"testing"
)

func testDefinition() Definition {
	return Definition{
		Label:        "io.quietwire.onaird",
		Program:      "/usr/local/bin/onaird",
		ConfigPath:   "/Users/dev/Library/Application Support/onaird/config.yaml",
		LogPath:      "/Users/dev/Library/Application Support/onaird/onaird.log",
		ErrorLogPath: "/Users/dev/Library/Application Support/onaird/onaird.err.log",
	}
}

func TestRenderPlist(t *testing.T) {
	plist, err := RenderPlist(testDefinition())
	if err != nil {
		t.Fatalf("RenderPlist() error = %v", err)
	}
	content := string(plist)

	wantFragments := []string{
		"<string>io.quietwire.onaird</string>",
		"<string>/usr/local/bin/onaird</string>",
		"<string>monitor</string>",
		"<string>--config</string>",
		"<string>/Users/dev/Library/Application Support/onaird/config.yaml</string>",
		"<key>RunAtLoad</key>",
		"<key>KeepAlive</key>",
		"<key>StandardOutPath</key>",
	}
	for _, want := range wantFragments {
		if !strings.Contains(content, want) {
			t.Errorf("plist missing %q:\n%s", want, content)
		}
	}
}

func TestNewManager_Validation(t *testing.T) {
	tests := []struct {
		name  string
		strip func(*Definition)
	}{
		{"missing label", func(d *Definition) { d.Label = "" }},
		{"missing program", func(d *Definition) { d.Program = "" }},
		{"missing config", func(d *Definition) { d.ConfigPath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := testDefinition()
			tt.strip(&def)
			if _, err := NewManager(def); err == nil {
				t.Error("NewManager() expected error, got nil")
			}
		})
	}
}

func TestManager_PlistPathUsesLabel(t *testing.T) {
	mgr, err := NewManager(testDefinition())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	if !strings.HasSuffix(mgr.PlistPath(), "LaunchAgents/io.quietwire.onaird.plist") {
		t.Errorf("PlistPath() = %q", mgr.PlistPath())
	}
}

func TestManager_UninstallNotInstalled(t *testing.T) {
	mgr, err := NewManager(testDefinition())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	mgr.agentsDir = t.TempDir()

	if err := mgr.Uninstall(context.Background()); err != ErrNotInstalled {
		t.Errorf("Uninstall() error = %v, want ErrNotInstalled", err)
	}
}
