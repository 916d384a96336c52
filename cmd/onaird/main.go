// onaird - On-Air Light Daemon
//
// onaird watches the macOS unified log for camera and microphone activity
// and drives a smart "on air" light through user-supplied Shortcuts. It is
// designed to run as a per-user LaunchAgent and to keep working through
// log stream hiccups, flaky automations, and daemon restarts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	_ "github.com/quietwire/onaird/migrations"

	"github.com/quietwire/onaird/internal/infrastructure/config"
	"github.com/quietwire/onaird/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := dispatch(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// dispatch routes to the requested subcommand.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command line arguments without the program name
//
// Returns:
//   - error: nil on success, or error describing failure
func dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printUsage()
		return nil
	}

	command := args[0]
	rest := args[1:]

	switch command {
	case "monitor":
		return cmdMonitor(ctx, rest)
	case "install":
		return cmdInstall(ctx, rest)
	case "uninstall":
		return cmdUninstall(ctx, rest)
	case "test":
		return cmdTest(ctx, rest)
	case "status":
		return cmdStatus(ctx, rest)
	case "on":
		return cmdForce(ctx, rest, true)
	case "off":
		return cmdForce(ctx, rest, false)
	case "logs":
		return cmdLogs(rest)
	case "version":
		fmt.Printf("onaird %s (commit %s, built %s)\n", version, commit, date)
		return nil
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// printUsage writes the command summary to stdout.
func printUsage() {
	fmt.Print(`onaird - drive an on-air light from camera and microphone activity

Usage:
  onaird <command> [flags]

Commands:
  install      Register onaird as a LaunchAgent and start it
  uninstall    Stop onaird, remove the LaunchAgent and status file
  monitor      Run the daemon (long-running; --verbose for event output)
  test         Invoke the on and off Shortcuts once to verify them
  status       Show current detection state and recent transitions
  on           Force the light on
  off          Force the light off
  logs         Show recent daemon log output
  version      Show version information
  help         Show this help

Flags:
  --config <path>   Configuration file (default: ` + "$ONAIRD_CONFIG" + ` or the
                    per-user data directory)
`)
}

// configFlag registers the shared --config flag on a flag set.
func configFlag(fs *pflag.FlagSet) *string {
	return fs.String("config", "", "path to the YAML configuration file")
}

// resolveConfigPath picks the configuration file path.
//
// Order: --config flag, ONAIRD_CONFIG environment variable, then the
// per-user data directory.
func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv("ONAIRD_CONFIG"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "configs/config.yaml"
	}
	return filepath.Join(home, "Library", "Application Support", "onaird", "config.yaml")
}

// loadConfig parses flags, loads and validates the configuration.
//
// Configuration problems are fatal here, at startup, and nowhere else:
// once the daemon is running, failures are survived and retried.
func loadConfig(fs *pflag.FlagSet, args []string) (*config.Config, string, error) {
	cfgPath := configFlag(fs)
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}

	path := resolveConfigPath(*cfgPath)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

// newLogger builds the configured logger, optionally forcing verbose
// stdout output for the monitor command.
func newLogger(cfg *config.Config, verbose bool) *logging.Logger {
	logCfg := cfg.Logging
	if verbose {
		logCfg.Level = "debug"
		logCfg.Format = "text"
		logCfg.Output = "stdout"
	}
	return logging.New(logCfg, version)
}
