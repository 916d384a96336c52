package shortcut

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// defaultTimeout bounds a single `shortcuts run` invocation.
// Shortcuts that flip a smart bulb finish in a second or two; anything
// longer means the automation is wedged.
const defaultTimeout = 10 * time.Second

// ErrInvocationFailed is returned when the shortcut exits non-zero or times out.
var ErrInvocationFailed = errors.New("shortcut: invocation failed")

// Invoker runs a named external automation.
//
// Implementations perform no local state changes; the side effect is
// entirely external (toggling physical hardware).
type Invoker interface {
	// Invoke runs the named automation, returning an error if it fails or
	// the context is cancelled.
	Invoke(ctx context.Context, name string) error
}

// Runner invokes Shortcuts via the `shortcuts` command line tool.
type Runner struct {
	// Binary is the path to the shortcuts tool.
	binary string

	// timeout bounds each invocation.
	timeout time.Duration
}

// Option customises a Runner.
type Option func(*Runner)

// WithBinary overrides the shortcuts tool path. Used by tests.
func WithBinary(path string) Option {
	return func(r *Runner) { r.binary = path }
}

// WithTimeout overrides the per-invocation timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRunner creates a Runner with the given options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		binary:  "/usr/bin/shortcuts",
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Invoke runs `shortcuts run <name>` with the configured timeout.
//
// Parameters:
//   - ctx: Parent context; cancellation aborts the invocation
//   - name: The Shortcut name as it appears in the Shortcuts app
//
// Returns:
//   - error: ErrInvocationFailed (wrapped) on non-zero exit or timeout
func (r *Runner) Invoke(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: shortcut name is empty", ErrInvocationFailed)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.binary, "run", name) //nolint:gosec // Binary path is fixed, name comes from validated config
	output, err := cmd.CombinedOutput()
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: %q timed out after %v", ErrInvocationFailed, name, r.timeout)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %q cancelled: %v", ErrInvocationFailed, name, ctx.Err())
		}
		return fmt.Errorf("%w: %q: %v (output: %s)", ErrInvocationFailed, name, err, strings.TrimSpace(string(output)))
	}

	return nil
}
