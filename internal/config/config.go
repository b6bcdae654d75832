package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	CacheDir string `toml:"cache_dir"`
}

// Log contains logging configuration.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Tools contains the external binaries the pipeline orchestrates.
type Tools struct {
	FFmpeg         string `toml:"ffmpeg"`
	FFprobe        string `toml:"ffprobe"`
	HandBrake      string `toml:"handbrake"`
	Whisper        string `toml:"whisper"`
	Quiet          bool   `toml:"quiet"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Whisper contains speech-model settings.
type Whisper struct {
	Model            string `toml:"model"`
	SampleSeconds    int    `toml:"sample_seconds"`
	SampleCount      int    `toml:"sample_count"`
	LongTrackSeconds int    `toml:"long_track_seconds"`
}

// Translation contains subtitle translation backend settings.
type Translation struct {
	Mode           string `toml:"mode"`
	LocalCommand   string `toml:"local_command"`
	GoogleEndpoint string `toml:"google_endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Merge contains the language allowlists used by the merge command.
type Merge struct {
	TargetLanguages []string `toml:"target_languages"`
	DataLanguages   []string `toml:"data_languages"`
}

// Pipeline contains batch execution settings.
type Pipeline struct {
	Workers        int  `toml:"workers"`
	DetectionCache bool `toml:"detection_cache"`
}

// Config is the root configuration document.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Log         Log         `toml:"log"`
	Tools       Tools       `toml:"tools"`
	Whisper     Whisper     `toml:"whisper"`
	Translation Translation `toml:"translation"`
	Merge       Merge       `toml:"merge"`
	Pipeline    Pipeline    `toml:"pipeline"`
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	return "~/.config/vpipe/config.toml"
}

// Load reads the TOML file at path, layered over defaults. A missing file at
// the default location is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	data, err := os.ReadFile(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			cfg.normalize()
			return &cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EnsureDirectories creates the directories the config references.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.CacheDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample config to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// ExpandPath resolves a leading ~ against the user home directory.
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

func (c *Config) normalize() {
	expand := func(value string) string {
		expanded, err := ExpandPath(value)
		if err != nil {
			return value
		}
		return expanded
	}
	c.Paths.LogDir = expand(c.Paths.LogDir)
	c.Paths.CacheDir = expand(c.Paths.CacheDir)
	c.Translation.Mode = strings.ToLower(strings.TrimSpace(c.Translation.Mode))
	c.Log.Level = strings.TrimSpace(c.Log.Level)
	c.Log.Format = strings.TrimSpace(c.Log.Format)
}
