// Package deps checks for the external binaries the pipeline shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"vpipe/internal/config"
)

// Requirement defines an external tool vpipe relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements builds the tool list from configuration. ffmpeg and ffprobe
// are mandatory; the rest only matter for the commands that use them.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.Tools.FFmpeg, Description: "stream extraction, retiming, and merging"},
		{Name: "FFprobe", Command: cfg.Tools.FFprobe, Description: "container and stream inspection"},
		{Name: "HandBrakeCLI", Command: cfg.Tools.HandBrake, Description: "re-encoding with hardware presets", Optional: true},
		{Name: "Whisper", Command: cfg.Tools.Whisper, Description: "speech transcription for subtitle generation", Optional: true},
		{Name: "Translator", Command: cfg.Translation.LocalCommand, Description: "local subtitle translation backend", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of unavailable mandatory tools.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
