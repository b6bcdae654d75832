package language

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/abadojack/whatlanggo"

	"vpipe/internal/fileutil"
	"vpipe/internal/logging"
)

// lowConfidence is the threshold below which text detection logs a warning.
const lowConfidence = 0.8

// SpeechModel identifies the spoken language of an extracted WAV sample.
type SpeechModel interface {
	IdentifyLanguage(ctx context.Context, wavPath string) (string, error)
}

// AudioSampler extracts an audio window from a media file into a WAV file
// the speech model can consume. durationSec <= 0 means the full track.
type AudioSampler interface {
	ExtractAudio(ctx context.Context, source string, track int, startSec, durationSec float64, dest string) error
}

// Cache persists detection results across runs. Implementations must treat
// misses as (value "", ok false, err nil).
type Cache interface {
	Get(ctx context.Context, digest string, track int, op string) (string, bool, error)
	Put(ctx context.Context, digest string, track int, op, value string) error
}

const (
	cacheOpAudioLanguage    = "audio-language"
	cacheOpSubtitleLanguage = "subtitle-language"
)

// Detector infers stream languages, preferring existing metadata unless
// detection is forced. Every failure path degrades to the Unknown sentinel;
// a Detector never fails a pipeline run.
type Detector struct {
	logger           *slog.Logger
	speech           SpeechModel
	sampler          AudioSampler
	cache            Cache
	sampleSeconds    int
	sampleCount      int
	longTrackSeconds float64
	randomStart      func(max float64) float64
}

// DetectorOptions configures a Detector. Zero values pick defaults.
type DetectorOptions struct {
	Speech           SpeechModel
	Sampler          AudioSampler
	Cache            Cache
	SampleSeconds    int
	SampleCount      int
	LongTrackSeconds int
}

// NewDetector constructs a Detector.
func NewDetector(logger *slog.Logger, opts DetectorOptions) *Detector {
	d := &Detector{
		logger:           logging.NewComponentLogger(logger, "language"),
		speech:           opts.Speech,
		sampler:          opts.Sampler,
		cache:            opts.Cache,
		sampleSeconds:    opts.SampleSeconds,
		sampleCount:      opts.SampleCount,
		longTrackSeconds: float64(opts.LongTrackSeconds),
		randomStart:      func(max float64) float64 { return rand.Float64() * max },
	}
	if d.sampleSeconds <= 0 {
		d.sampleSeconds = 30
	}
	if d.sampleCount <= 0 {
		d.sampleCount = 3
	}
	if d.longTrackSeconds <= 0 {
		d.longTrackSeconds = 600
	}
	return d
}

// WithRandomStart overrides sample window placement (for tests).
func (d *Detector) WithRandomStart(fn func(max float64) float64) {
	if d != nil && fn != nil {
		d.randomStart = fn
	}
}

// TextLanguage detects the language of plain subtitle text. Returns Unknown
// when the text is empty or detection produces nothing usable.
func (d *Detector) TextLanguage(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return Unknown
	}
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6393()
	if code == "" {
		return Unknown
	}
	if info.Confidence < lowConfidence {
		d.logger.Warn("low confidence for detected subtitle language",
			logging.String("language", code),
			logging.Float64("confidence", info.Confidence))
	}
	return Normalize(code)
}

// SubtitleLanguage decides a subtitle stream's language: trust the tagged
// value unless forcing, else read the SRT content and run text detection.
func (d *Detector) SubtitleLanguage(ctx context.Context, tagged, srtPath string, force bool) string {
	if !force && Known(tagged) {
		d.logger.Info("using existing subtitle language metadata", logging.String("language", Normalize(tagged)))
		return Normalize(tagged)
	}
	if lang, ok := d.cachedValue(ctx, srtPath, 0, cacheOpSubtitleLanguage, force); ok {
		return lang
	}
	data, err := os.ReadFile(srtPath)
	if err != nil {
		d.logger.Warn("cannot read subtitle file for detection", logging.String("path", srtPath), logging.Error(err))
		return Unknown
	}
	lang := d.TextLanguage(flattenSRTText(string(data)))
	d.logger.Info("determined subtitle language", logging.String("language", lang), logging.String("path", srtPath))
	d.storeValue(ctx, srtPath, 0, cacheOpSubtitleLanguage, lang)
	return lang
}

// AudioLanguage decides an audio stream's language: trust the tagged value
// unless forcing, else feed samples of the track to the speech model. Long
// tracks are probed with several short random windows and a majority vote;
// ties break in first-seen order.
func (d *Detector) AudioLanguage(ctx context.Context, tagged, source string, track int, durationSeconds float64, force bool) string {
	if !force && Known(tagged) {
		d.logger.Info("using existing audio language metadata", logging.String("language", Normalize(tagged)))
		return Normalize(tagged)
	}
	if d.speech == nil || d.sampler == nil {
		d.logger.Warn("no speech model configured, audio language stays unknown")
		return Unknown
	}
	if lang, ok := d.cachedValue(ctx, source, track, cacheOpAudioLanguage, force); ok {
		return lang
	}

	scratch, err := os.MkdirTemp("", "vpipe-langdetect-")
	if err != nil {
		d.logger.Warn("cannot create detection scratch dir", logging.Error(err))
		return Unknown
	}
	defer os.RemoveAll(scratch)

	windows := d.sampleWindows(durationSeconds)
	votes := make(map[string]int, len(windows))
	order := make([]string, 0, len(windows))
	for i, window := range windows {
		dest := filepath.Join(scratch, fmt.Sprintf("sample_%02d.wav", i))
		if err := d.sampler.ExtractAudio(ctx, source, track, window.start, window.duration, dest); err != nil {
			d.logger.Warn("audio sample extraction failed",
				logging.Int("sample", i), logging.Error(err))
			continue
		}
		guess, err := d.speech.IdentifyLanguage(ctx, dest)
		if err != nil {
			d.logger.Warn("speech language identification failed",
				logging.Int("sample", i), logging.Error(err))
			continue
		}
		code := Normalize(guess)
		if code == Unknown {
			continue
		}
		if _, seen := votes[code]; !seen {
			order = append(order, code)
		}
		votes[code]++
	}

	lang := Unknown
	best := 0
	for _, code := range order {
		if votes[code] > best {
			best = votes[code]
			lang = code
		}
	}
	d.logger.Info("determined audio language",
		logging.String("language", lang),
		logging.Int("samples", len(windows)))
	d.storeValue(ctx, source, track, cacheOpAudioLanguage, lang)
	return lang
}

type sampleWindow struct {
	start    float64
	duration float64
}

func (d *Detector) sampleWindows(durationSeconds float64) []sampleWindow {
	sample := float64(d.sampleSeconds)
	if durationSeconds <= d.longTrackSeconds || durationSeconds <= sample {
		// Short track: one full pass.
		return []sampleWindow{{start: 0, duration: 0}}
	}
	windows := make([]sampleWindow, 0, d.sampleCount)
	for i := 0; i < d.sampleCount; i++ {
		windows = append(windows, sampleWindow{
			start:    d.randomStart(durationSeconds - sample),
			duration: sample,
		})
	}
	return windows
}

func (d *Detector) cachedValue(ctx context.Context, path string, track int, op string, force bool) (string, bool) {
	if d.cache == nil || force {
		return "", false
	}
	digest, err := fileutil.Digest(path)
	if err != nil {
		return "", false
	}
	value, ok, err := d.cache.Get(ctx, digest, track, op)
	if err != nil || !ok {
		return "", false
	}
	d.logger.Debug("detection cache hit",
		logging.String("op", op), logging.String("language", value))
	return value, true
}

func (d *Detector) storeValue(ctx context.Context, path string, track int, op, value string) {
	if d.cache == nil || value == Unknown {
		return
	}
	digest, err := fileutil.Digest(path)
	if err != nil {
		return
	}
	if err := d.cache.Put(ctx, digest, track, op, value); err != nil {
		d.logger.Debug("detection cache write failed", logging.Error(err))
	}
}

// flattenSRTText strips cue numbers and timing lines, leaving dialogue only.
func flattenSRTText(content string) string {
	var builder strings.Builder
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.Contains(trimmed, "-->") {
			continue
		}
		if isDigits(trimmed) {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(trimmed)
	}
	return builder.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
