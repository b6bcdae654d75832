package pipeline

import (
	"context"
	"log/slog"
	"time"

	"vpipe/internal/config"
	"vpipe/internal/langcache"
	"vpipe/internal/language"
	"vpipe/internal/logging"
	"vpipe/internal/media"
	"vpipe/internal/services/ffmpeg"
	"vpipe/internal/services/handbrake"
	"vpipe/internal/services/translate"
	"vpipe/internal/services/whisper"
	"vpipe/internal/subtitles"
)

// Prober abstracts media inspection so tests can substitute fixtures.
type Prober interface {
	Probe(ctx context.Context, path string) (media.FileStreams, error)
}

// Transcriber covers what subtitle generation needs from the speech stack:
// audio extraction into WAV and transcription of that WAV.
type Transcriber interface {
	ExtractAudio(ctx context.Context, source string, track int, startSec, durationSec float64, dest string) error
	Transcribe(ctx context.Context, wavPath, languageHint, outputDir string) (whisper.Transcript, error)
}

// LanguageDetector decides stream languages, honoring existing metadata
// unless forced. Implementations degrade to language.Unknown, never error.
type LanguageDetector interface {
	AudioLanguage(ctx context.Context, tagged, source string, track int, durationSeconds float64, force bool) string
	SubtitleLanguage(ctx context.Context, tagged, srtPath string, force bool) string
}

// Options tune a pipeline run beyond the action list.
type Options struct {
	ForceDetection  bool
	TranslationMode string
	Track           int
}

// DefaultOptions returns the zero run configuration: metadata trusted,
// configured translation backend, all tracks.
func DefaultOptions() Options {
	return Options{Track: AllTracks}
}

// Runtime owns the collaborators one or more pipeline runs share: the
// prober, the external tool clients, language detection, and configuration.
// It holds no per-run state; concurrent runs are safe.
type Runtime struct {
	cfg         *config.Config
	logger      *slog.Logger
	prober      Prober
	ffmpeg      *ffmpeg.Runner
	handbrake   handbrake.Client
	transcriber Transcriber
	detector    LanguageDetector
	forced      subtitles.ForcedDetector
	translate   func(mode string) translate.Translator
	cache       *langcache.Store
}

// NewRuntime wires the real services from configuration.
func NewRuntime(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.Tools.TimeoutSeconds) * time.Second
	runner := ffmpeg.NewRunner(cfg.Tools.FFmpeg, cfg.Tools.Quiet, timeout)
	whisperService := whisper.NewService(cfg.Tools.Whisper, cfg.Whisper.Model, runner)

	var cache *langcache.Store
	if cfg.Pipeline.DetectionCache {
		store, err := langcache.Open(cfg.Paths.CacheDir)
		if err != nil {
			logger.Warn("detection cache unavailable", logging.Error(err))
		} else {
			cache = store
		}
	}

	var detectorCache language.Cache
	if cache != nil {
		detectorCache = cache
	}
	detector := language.NewDetector(logger, language.DetectorOptions{
		Speech:           whisperService,
		Sampler:          whisperService,
		Cache:            detectorCache,
		SampleSeconds:    cfg.Whisper.SampleSeconds,
		SampleCount:      cfg.Whisper.SampleCount,
		LongTrackSeconds: cfg.Whisper.LongTrackSeconds,
	})

	googleClient := translate.NewGoogleClient(cfg.Translation.GoogleEndpoint,
		time.Duration(cfg.Translation.TimeoutSeconds)*time.Second)
	localClient := translate.NewLocalClient(cfg.Translation.LocalCommand)

	rt := &Runtime{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
		prober:      media.NewProber(cfg.Tools.FFprobe),
		ffmpeg:      runner,
		handbrake:   handbrake.NewCLI(cfg.Tools.HandBrake, cfg.Tools.Quiet),
		transcriber: whisperService,
		detector:    detector,
		forced:      subtitles.EntryCountDetector{},
		cache:       cache,
	}
	rt.translate = func(mode string) translate.Translator {
		if mode == "" {
			mode = cfg.Translation.Mode
		}
		if mode == "google" {
			return googleClient
		}
		return localClient
	}
	return rt, nil
}

// Close releases runtime resources (the detection cache handle).
func (r *Runtime) Close() error {
	return r.cache.Close()
}

// WithProber substitutes the prober (for testing).
func (r *Runtime) WithProber(p Prober) {
	if p != nil {
		r.prober = p
	}
}

// WithFFmpeg substitutes the ffmpeg runner (for testing).
func (r *Runtime) WithFFmpeg(runner *ffmpeg.Runner) {
	if runner != nil {
		r.ffmpeg = runner
	}
}

// WithHandBrake substitutes the re-encode client (for testing).
func (r *Runtime) WithHandBrake(client handbrake.Client) {
	if client != nil {
		r.handbrake = client
	}
}

// WithDetector substitutes language detection (for testing).
func (r *Runtime) WithDetector(d LanguageDetector) {
	if d != nil {
		r.detector = d
	}
}

// WithForcedDetector substitutes the forced-subtitle strategy.
func (r *Runtime) WithForcedDetector(d subtitles.ForcedDetector) {
	if d != nil {
		r.forced = d
	}
}

// WithTranscriber substitutes the transcription service (for testing).
func (r *Runtime) WithTranscriber(t Transcriber) {
	if t != nil {
		r.transcriber = t
	}
}

// WithTranslator pins every translation mode to one backend (for testing).
func (r *Runtime) WithTranslator(t translate.Translator) {
	if t != nil {
		r.translate = func(string) translate.Translator { return t }
	}
}
