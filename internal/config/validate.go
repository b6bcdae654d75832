package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for values the pipeline cannot work with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		problems = append(problems, "tools.ffmpeg must not be empty")
	}
	if strings.TrimSpace(c.Tools.FFprobe) == "" {
		problems = append(problems, "tools.ffprobe must not be empty")
	}
	if c.Tools.TimeoutSeconds < 0 {
		problems = append(problems, "tools.timeout_seconds must not be negative")
	}
	switch c.Translation.Mode {
	case "local", "google":
	default:
		problems = append(problems, fmt.Sprintf("translation.mode must be 'local' or 'google', got %q", c.Translation.Mode))
	}
	if c.Whisper.SampleSeconds <= 0 {
		problems = append(problems, "whisper.sample_seconds must be positive")
	}
	if c.Whisper.SampleCount <= 0 {
		problems = append(problems, "whisper.sample_count must be positive")
	}
	if c.Pipeline.Workers <= 0 {
		problems = append(problems, "pipeline.workers must be positive")
	}
	for _, lang := range append(append([]string(nil), c.Merge.TargetLanguages...), c.Merge.DataLanguages...) {
		if len(lang) != 3 {
			problems = append(problems, fmt.Sprintf("merge languages must be ISO 639-3 codes, got %q", lang))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
