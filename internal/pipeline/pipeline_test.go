package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"vpipe/internal/config"
	"vpipe/internal/language"
	"vpipe/internal/logging"
	"vpipe/internal/media"
	"vpipe/internal/services/ffmpeg"
	"vpipe/internal/services/translate"
	"vpipe/internal/subtitles"
)

// commandRecorder captures every ffmpeg invocation and fakes the output file
// the real tool would have written, so multi-step commands can keep going.
type commandRecorder struct {
	mu    sync.Mutex
	calls [][]string
	fail  error
}

func (c *commandRecorder) run(_ context.Context, _ string, args ...string) error {
	c.mu.Lock()
	c.calls = append(c.calls, append([]string(nil), args...))
	fail := c.fail
	c.mu.Unlock()
	if fail != nil {
		return fail
	}
	if len(args) > 0 {
		out := args[len(args)-1]
		if filepath.Ext(out) != "" {
			_ = os.WriteFile(out, []byte("media"), 0o644)
		}
	}
	return nil
}

func (c *commandRecorder) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *commandRecorder) last() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.calls) == 0 {
		return nil
	}
	return c.calls[len(c.calls)-1]
}

func newTestRuntime(t *testing.T) (*Runtime, *commandRecorder) {
	t.Helper()
	cfg := config.Default()
	cfg.Pipeline.DetectionCache = false
	recorder := &commandRecorder{}
	runner := ffmpeg.NewRunner("ffmpeg", true, 0)
	runner.WithCommandRunner(recorder.run)
	rt := &Runtime{
		cfg:      &cfg,
		logger:   logging.NewNop(),
		ffmpeg:   runner,
		detector: language.NewDetector(nil, language.DetectorOptions{}),
		forced:   subtitles.EntryCountDetector{},
	}
	rt.translate = func(string) translate.Translator { return nil }
	return rt, recorder
}

// sampleStreams fabricates a probed movie: one HEVC video, English TrueHD
// and French AAC audio, one default English subtitle.
func sampleStreams(t *testing.T, dir string) media.FileStreams {
	t.Helper()
	path := filepath.Join(dir, "movie.mkv")
	if err := os.WriteFile(path, []byte("container"), 0o644); err != nil {
		t.Fatal(err)
	}
	return media.FileStreams{
		Video: &media.VideoStream{
			StreamInfo: media.StreamInfo{
				StreamIndex: 0, FFmpegIndex: 0, CodecName: "hevc",
				FilePath: path, Language: language.Unknown,
			},
			DurationSeconds:  5400,
			FrameRate:        media.PALRate,
			ColorTransfer:    "bt709",
			ContainerFormats: []string{"matroska"},
		},
		Audios: []media.AudioStream{
			{
				StreamInfo: media.StreamInfo{
					StreamIndex: 1, FFmpegIndex: 0, CodecName: "truehd",
					FilePath: path, Language: "eng",
				},
				DurationSeconds: 5400, SampleRate: 48000, Channels: 8, SampleFormat: "s32",
			},
			{
				StreamInfo: media.StreamInfo{
					StreamIndex: 2, FFmpegIndex: 1, CodecName: "aac",
					FilePath: path, Language: "fra",
				},
				DurationSeconds: 5400, BitRate: 128000, SampleRate: 48000, Channels: 2, SampleFormat: "fltp",
			},
		},
		Subtitles: []media.SubtitleStream{
			{
				StreamInfo: media.StreamInfo{
					StreamIndex: 3, FFmpegIndex: 0, CodecName: "subrip",
					FilePath: path, Language: "eng",
				},
				Default: true,
			},
		},
	}
}

// echoDetector trusts whatever the stream is tagged with, forced or not.
type echoDetector struct{}

func (echoDetector) AudioLanguage(_ context.Context, tagged, _ string, _ int, _ float64, _ bool) string {
	return language.Normalize(tagged)
}

func (echoDetector) SubtitleLanguage(_ context.Context, tagged, _ string, _ bool) string {
	return language.Normalize(tagged)
}

func hasArg(args []string, want string) bool {
	for _, arg := range args {
		if arg == want {
			return true
		}
	}
	return false
}

func argAfter(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
