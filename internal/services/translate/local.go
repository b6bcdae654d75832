package translate

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"vpipe/internal/language"
	"vpipe/internal/services"
)

// LocalClient translates through a local model CLI (opus-mt style). Lines go
// in on stdin, one per line; translations come back on stdout the same way.
// A per-pair mutex serializes calls so the same model is never loaded twice
// concurrently.
type LocalClient struct {
	command string
	run     func(ctx context.Context, name string, args []string, stdin string) (string, error)

	mu    sync.Mutex
	pairs map[string]*sync.Mutex
}

// NewLocalClient constructs a LocalClient for the configured command.
func NewLocalClient(command string) *LocalClient {
	c := &LocalClient{
		command: strings.TrimSpace(command),
		pairs:   make(map[string]*sync.Mutex),
	}
	c.run = runWithStdin
	return c
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *LocalClient) WithCommandRunner(run func(ctx context.Context, name string, args []string, stdin string) (string, error)) {
	if run != nil {
		c.run = run
	}
}

// Translate feeds lines through the local model for the language pair.
func (c *LocalClient) Translate(ctx context.Context, lines []string, from, to string) ([]string, error) {
	if err := validatePair(from, to); err != nil {
		return nil, err
	}
	if c.command == "" {
		return nil, services.Wrap(services.ErrConfiguration, "translate", "local", "no local translation command configured", nil)
	}
	if len(lines) == 0 {
		return nil, nil
	}

	pair := language.ToISO1(from) + "-" + language.ToISO1(to)
	lock := c.pairLock(pair)
	lock.Lock()
	defer lock.Unlock()

	args := []string{"--from", language.ToISO1(from), "--to", language.ToISO1(to)}
	stdin := strings.Join(lines, "\n") + "\n"
	stdout, err := c.run(ctx, c.command, args, stdin)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "translate", "local", c.command+" "+pair, err)
	}

	out := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	if len(out) != len(lines) {
		return nil, services.Wrap(services.ErrExternalTool, "translate", "local",
			fmt.Sprintf("expected %d lines back, got %d", len(lines), len(out)), nil)
	}
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return out, nil
}

func (c *LocalClient) pairLock(pair string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.pairs[pair]
	if !ok {
		lock = &sync.Mutex{}
		c.pairs[pair] = lock
	}
	return lock
}

func runWithStdin(ctx context.Context, name string, args []string, stdin string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
