package services

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RunCommand executes a command, folding its combined output into the error
// on failure.
func RunCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
