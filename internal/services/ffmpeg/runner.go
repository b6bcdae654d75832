package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"vpipe/internal/services"
)

// QuietEnv silences ffmpeg console output when set to a non-empty value,
// regardless of configuration. Useful in test environments.
const QuietEnv = "VPIPE_QUIET"

// Runner executes ffmpeg invocations with consistent base flags and error
// wrapping.
type Runner struct {
	binary  string
	quiet   bool
	timeout time.Duration
	run     func(ctx context.Context, name string, args ...string) error
}

// NewRunner constructs a Runner for the named ffmpeg binary. timeout bounds
// each invocation; zero disables the bound.
func NewRunner(binary string, quiet bool, timeout time.Duration) *Runner {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if os.Getenv(QuietEnv) != "" {
		quiet = true
	}
	r := &Runner{binary: binary, quiet: quiet, timeout: timeout}
	r.run = r.execute
	return r
}

// WithCommandRunner sets a custom command runner (for testing).
func (r *Runner) WithCommandRunner(run func(ctx context.Context, name string, args ...string) error) {
	if run != nil {
		r.run = run
	}
}

// Binary returns the configured ffmpeg command.
func (r *Runner) Binary() string {
	return r.binary
}

// Run executes ffmpeg with the given arguments after the standard base
// flags. The operation name feeds error wrapping only.
func (r *Runner) Run(ctx context.Context, operation string, args ...string) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	full := append(r.baseArgs(), args...)
	if err := r.run(ctx, r.binary, full...); err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpeg", operation,
			fmt.Sprintf("%s %s", r.binary, strings.Join(full, " ")), err)
	}
	return nil
}

func (r *Runner) baseArgs() []string {
	args := []string{"-hide_banner", "-y"}
	if r.quiet {
		args = append(args, "-loglevel", "error")
	}
	return args
}

func (r *Runner) execute(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if !r.quiet {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
