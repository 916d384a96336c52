// Package process provides generic subprocess lifecycle management.
//
// This package is designed for long-running child processes whose stdout is
// the product - primarily the `log stream` subprocesses that feed onaird's
// detection pipeline. Each stdout line is delivered to an OnLine callback as
// it arrives.
//
// Features:
//   - Start/stop subprocess with graceful shutdown (SIGTERM, then SIGKILL)
//   - Automatic restart on failure with capped exponential backoff
//   - Line-by-line stdout delivery via callback
//   - Status reporting (PID, uptime, restart count)
//   - Context-based cancellation for clean shutdown
//
// Example usage:
//
//	mgr := process.NewManager(process.Config{
//	    Name:             "camera-stream",
//	    Binary:           "/usr/bin/log",
//	    Args:             []string{"stream", "--predicate", pred},
//	    RestartOnFailure: true,
//	    OnLine:           func(line string) { events <- classify(line) },
//	})
//
//	if err := mgr.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Stop()
package process
