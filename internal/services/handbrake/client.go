package handbrake

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"vpipe/internal/services"
)

// Presets maps resolution labels to the HandBrake preset that encodes them.
var Presets = map[string]string{
	"1080p": "H.265 NVENC 1080p",
	"2160p": "H.265 NVENC 2160p 4K",
}

// EncodeRequest describes one re-encode invocation.
type EncodeRequest struct {
	Input  string
	Output string
	Preset string
	// HDR sources get an explicit bt709 colorspace conversion so SDR
	// presets do not produce washed-out output.
	HDR bool
}

// Client runs re-encodes.
type Client interface {
	Encode(ctx context.Context, req EncodeRequest) error
}

// CLI shells out to HandBrakeCLI.
type CLI struct {
	binary string
	quiet  bool
	run    func(ctx context.Context, name string, args ...string) error
}

// NewCLI constructs a HandBrakeCLI client.
func NewCLI(binary string, quiet bool) *CLI {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "HandBrakeCLI"
	}
	c := &CLI{binary: binary, quiet: quiet}
	c.run = c.execute
	return c
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *CLI) WithCommandRunner(run func(ctx context.Context, name string, args ...string) error) {
	if run != nil {
		c.run = run
	}
}

// PresetFor resolves a resolution label ("1080p", "2160p") to a preset name.
func PresetFor(label string) (string, error) {
	preset, ok := Presets[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		labels := make([]string, 0, len(Presets))
		for key := range Presets {
			labels = append(labels, key)
		}
		return "", services.Wrap(services.ErrInvalidInput, "reencode", "preset",
			fmt.Sprintf("unknown resolution %q, expected one of %s", label, strings.Join(labels, ", ")), nil)
	}
	return preset, nil
}

// Encode runs HandBrakeCLI over the request.
func (c *CLI) Encode(ctx context.Context, req EncodeRequest) error {
	if strings.TrimSpace(req.Input) == "" || strings.TrimSpace(req.Output) == "" {
		return services.Wrap(services.ErrInvalidInput, "reencode", "encode", "input and output paths required", nil)
	}
	if strings.TrimSpace(req.Preset) == "" {
		return services.Wrap(services.ErrInvalidInput, "reencode", "encode", "preset required", nil)
	}
	args := BuildArgs(req)
	if err := c.run(ctx, c.binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "reencode", "encode",
			fmt.Sprintf("%s %s", c.binary, strings.Join(args, " ")), err)
	}
	return nil
}

// BuildArgs assembles the HandBrakeCLI argument list. All audio and subtitle
// tracks pass through untouched; only video is re-encoded.
func BuildArgs(req EncodeRequest) []string {
	args := []string{
		"--verbose=1",
		"--format=mkv",
		"--all-audio",
		"--audio-copy-mask=ac3,dts,dtshd,eac3,truehd",
		"--audio-fallback=ac3",
		"--all-subtitles",
		"--subtitle-burn=none",
		"--preset=" + req.Preset,
	}
	if req.HDR {
		args = append(args, "--colorspace=bt709")
	}
	args = append(args, "-i", req.Input, "-o", req.Output)
	return args
}

func (c *CLI) execute(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if !c.quiet {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
