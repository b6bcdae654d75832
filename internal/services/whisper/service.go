package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"vpipe/internal/language"
	"vpipe/internal/services"
	"vpipe/internal/services/ffmpeg"
)

// Segment is one timed span of transcribed speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the decoded output of a transcription run.
type Transcript struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Transcriber produces transcripts from extracted WAV audio.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath, languageHint, outputDir string) (Transcript, error)
}

// Service shells out to the whisper CLI. A process-wide mutex serializes
// invocations: each run loads the full model, and overlapping runs exhaust
// GPU memory.
type Service struct {
	binary string
	model  string
	ffmpeg *ffmpeg.Runner
	run    func(ctx context.Context, name string, args ...string) error
	mu     sync.Mutex
}

// NewService constructs a whisper Service. The ffmpeg runner feeds audio
// extraction for sampling and transcription.
func NewService(binary, model string, runner *ffmpeg.Runner) *Service {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "whisper"
	}
	if strings.TrimSpace(model) == "" {
		model = "medium"
	}
	s := &Service{binary: binary, model: model, ffmpeg: runner}
	s.run = s.execute
	return s
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(run func(ctx context.Context, name string, args ...string) error) {
	if run != nil {
		s.run = run
	}
}

// Model returns the configured model name.
func (s *Service) Model() string {
	return s.model
}

// ExtractAudio writes a mono 16kHz WAV copy of one audio track, optionally
// limited to a time window. durationSec <= 0 extracts the whole track.
// Implements the sampler contract language detection uses.
func (s *Service) ExtractAudio(ctx context.Context, source string, track int, startSec, durationSec float64, dest string) error {
	if s.ffmpeg == nil {
		return services.Wrap(services.ErrConfiguration, "whisper", "extract", "no ffmpeg runner configured", nil)
	}
	args := []string{"-i", source}
	if durationSec > 0 {
		args = append(args,
			"-ss", strconv.FormatFloat(startSec, 'f', 3, 64),
			"-t", strconv.FormatFloat(durationSec, 'f', 3, 64),
		)
	}
	args = append(args,
		"-map", fmt.Sprintf("0:a:%d", track),
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	)
	return s.ffmpeg.Run(ctx, "extract-audio", args...)
}

// Transcribe runs the whisper CLI over a WAV file and decodes its JSON
// output. languageHint skips whisper's own language detection pass when the
// language is already known; empty means autodetect.
func (s *Service) Transcribe(ctx context.Context, wavPath, languageHint, outputDir string) (Transcript, error) {
	if strings.TrimSpace(wavPath) == "" {
		return Transcript{}, services.Wrap(services.ErrInvalidInput, "whisper", "transcribe", "audio path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(wavPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Transcript{}, services.Wrap(services.ErrInvalidInput, "whisper", "transcribe",
			fmt.Sprintf("ensure output dir %s", outputDir), err)
	}

	args := []string{
		wavPath,
		"--model", s.model,
		"--output_format", "json",
		"--output_dir", outputDir,
	}
	if hint := language.ToISO1(languageHint); language.Known(languageHint) && hint != "" {
		args = append(args, "--language", hint)
	}

	s.mu.Lock()
	err := s.run(ctx, s.binary, args...)
	s.mu.Unlock()
	if err != nil {
		return Transcript{}, services.Wrap(services.ErrExternalTool, "whisper", "transcribe", wavPath, err)
	}

	jsonPath := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))+".json")
	transcript, err := loadTranscript(jsonPath)
	if err != nil {
		return Transcript{}, services.Wrap(services.ErrExternalTool, "whisper", "parse", jsonPath, err)
	}
	return transcript, nil
}

// IdentifyLanguage transcribes a sample without a language hint and returns
// the language whisper detected. Implements the speech model contract
// language detection uses.
func (s *Service) IdentifyLanguage(ctx context.Context, wavPath string) (string, error) {
	transcript, err := s.Transcribe(ctx, wavPath, "", filepath.Dir(wavPath))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(transcript.Language) == "" {
		return language.Unknown, nil
	}
	return language.Normalize(transcript.Language), nil
}

func loadTranscript(jsonPath string) (Transcript, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return Transcript{}, err
	}
	var transcript Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return Transcript{}, fmt.Errorf("parse transcript json: %w", err)
	}
	for i := range transcript.Segments {
		transcript.Segments[i].Text = strings.TrimSpace(transcript.Segments[i].Text)
	}
	return transcript, nil
}

func (s *Service) execute(ctx context.Context, name string, args ...string) error {
	return services.RunCommand(ctx, name, args...)
}
