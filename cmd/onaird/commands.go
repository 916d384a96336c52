package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/quietwire/onaird/internal/infrastructure/database"
	"github.com/quietwire/onaird/internal/light"
	"github.com/quietwire/onaird/internal/service"
	"github.com/quietwire/onaird/internal/shortcut"
)

// cmdInstall registers onaird as a LaunchAgent and starts it.
func cmdInstall(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("install", pflag.ContinueOnError)
	cfg, cfgPath, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	program, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	mgr, err := service.NewManager(service.Definition{
		Label:        cfg.Service.Label,
		Program:      program,
		ConfigPath:   cfgPath,
		LogPath:      cfg.Service.LogPath,
		ErrorLogPath: cfg.Service.ErrorLogPath,
	})
	if err != nil {
		return err
	}

	if err := mgr.Install(ctx); err != nil {
		return err
	}

	fmt.Printf("Installed %s\n", cfg.Service.Label)
	fmt.Printf("  plist:  %s\n", mgr.PlistPath())
	fmt.Printf("  logs:   %s\n", cfg.Service.LogPath)
	fmt.Println("The daemon starts now and at every login.")
	return nil
}

// cmdUninstall stops the daemon, removes the LaunchAgent and the status file.
func cmdUninstall(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("uninstall", pflag.ContinueOnError)
	cfg, cfgPath, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	mgr, err := service.NewManager(service.Definition{
		Label:        cfg.Service.Label,
		Program:      "onaird",
		ConfigPath:   cfgPath,
		LogPath:      cfg.Service.LogPath,
		ErrorLogPath: cfg.Service.ErrorLogPath,
	})
	if err != nil {
		return err
	}

	if err := mgr.Uninstall(ctx); err != nil {
		if errors.Is(err, service.ErrNotInstalled) {
			fmt.Println("Not installed, nothing to do.")
			return nil
		}
		return err
	}

	if err := light.NewStateFile(cfg.State.Path).Remove(); err != nil {
		return err
	}

	fmt.Printf("Uninstalled %s\n", cfg.Service.Label)
	return nil
}

// cmdTest invokes both Shortcuts once so the user can verify their setup.
//
// The light is turned on, held briefly, then turned off. Either failure is
// reported with the Shortcut name so the user knows which side to fix.
func cmdTest(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg, _, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	invoker := shortcut.NewRunner(shortcut.WithTimeout(cfg.ShortcutTimeout()))

	fmt.Printf("Running %q...\n", cfg.Shortcuts.On)
	if err := invoker.Invoke(ctx, cfg.Shortcuts.On); err != nil {
		return fmt.Errorf("on shortcut failed: %w", err)
	}
	fmt.Println("Light should be ON.")

	select {
	case <-time.After(2 * time.Second):
	case <-ctx.Done():
		return ctx.Err()
	}

	fmt.Printf("Running %q...\n", cfg.Shortcuts.Off)
	if err := invoker.Invoke(ctx, cfg.Shortcuts.Off); err != nil {
		return fmt.Errorf("off shortcut failed: %w", err)
	}
	fmt.Println("Light should be OFF. Both shortcuts work.")
	return nil
}

// cmdStatus prints the current snapshot and recent transitions.
func cmdStatus(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("status", pflag.ContinueOnError)
	limit := fs.Int("limit", 10, "number of recent transitions to show")
	cfg, _, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	snap, err := light.NewStateFile(cfg.State.Path).Read()
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No status recorded yet. Is the daemon running?")
			return nil
		}
		return fmt.Errorf("reading status: %w", err)
	}

	fmt.Printf("Camera: %s\n", onOff(snap.CameraOn))
	fmt.Printf("Mic:    %s\n", onOff(snap.MicOn))
	fmt.Printf("Light:  %s\n", snap.LightState)
	if !snap.UpdatedAt.IsZero() {
		fmt.Printf("As of:  %s\n", snap.UpdatedAt.Local().Format(time.RFC1123))
	}

	// Transition history is best effort; the snapshot above is the answer
	// people actually want.
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil
	}
	defer db.Close()

	history := light.NewSQLiteHistoryRepository(db.DB)
	transitions, err := history.RecentTransitions(ctx, *limit)
	if err != nil || len(transitions) == 0 {
		return nil
	}

	fmt.Println("\nRecent transitions:")
	for _, t := range transitions {
		fmt.Printf("  %s  light %-3s  trigger=%s\n",
			t.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			t.LightState,
			t.Trigger,
		)
	}
	return nil
}

// cmdForce turns the light on or off manually and updates the snapshot so
// status stays truthful.
func cmdForce(ctx context.Context, args []string, on bool) error {
	fs := pflag.NewFlagSet("force", pflag.ContinueOnError)
	cfg, _, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	name := cfg.Shortcuts.Off
	state := light.StateOff
	if on {
		name = cfg.Shortcuts.On
		state = light.StateOn
	}

	invoker := shortcut.NewRunner(shortcut.WithTimeout(cfg.ShortcutTimeout()))
	if err := invoker.Invoke(ctx, name); err != nil {
		return err
	}

	stateFile := light.NewStateFile(cfg.State.Path)
	snap, readErr := stateFile.Read()
	if readErr != nil {
		snap = light.Snapshot{}
	}
	snap.LightState = state
	snap.UpdatedAt = time.Now()
	if err := stateFile.Write(snap); err != nil {
		return err
	}

	fmt.Printf("Light forced %s.\n", state)
	fmt.Println("Note: a running daemon will reconcile on the next camera or mic event.")
	return nil
}

// cmdLogs prints recent daemon log output.
func cmdLogs(args []string) error {
	fs := pflag.NewFlagSet("logs", pflag.ContinueOnError)
	lines := fs.Int("lines", 50, "number of trailing lines to show")
	showErrors := fs.Bool("errors", false, "show the error log instead")
	cfg, _, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	path := cfg.Service.LogPath
	if *showErrors {
		path = cfg.Service.ErrorLogPath
	}

	if err := service.WriteTail(os.Stdout, path, *lines); err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("No log file at %s yet.\n", path)
			return nil
		}
		return err
	}
	return nil
}

// onOff renders a source flag for the status output.
func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
