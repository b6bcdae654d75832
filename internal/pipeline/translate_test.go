package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vpipe/internal/media"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:03,000
Hello there.

2
00:00:04,000 --> 00:00:06,000
How are you?
`

// upperTranslator fakes translation by uppercasing, recording the pair.
type upperTranslator struct {
	from, to string
}

func (u *upperTranslator) Translate(_ context.Context, lines []string, from, to string) ([]string, error) {
	u.from, u.to = from, to
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = strings.ToUpper(line)
	}
	return out, nil
}

func srtStreams(t *testing.T, dir string) media.FileStreams {
	t.Helper()
	path := filepath.Join(dir, "movie.srt")
	if err := os.WriteFile(path, []byte(sampleSRT), 0o644); err != nil {
		t.Fatal(err)
	}
	return media.FileStreams{
		Subtitles: []media.SubtitleStream{{
			StreamInfo: media.StreamInfo{
				CodecName: "subrip", FilePath: path, Language: "eng",
			},
		}},
	}
}

func TestTranslateSubsRewritesCueText(t *testing.T) {
	rt, _ := newTestRuntime(t)
	dir := t.TempDir()
	fs := srtStreams(t, dir)
	translator := &upperTranslator{}
	rt.WithTranslator(translator)

	out, err := rt.TranslateSubs(context.Background(), fs, "spa", "", AllTracks, dir, DefaultOptions())
	if err != nil {
		t.Fatalf("TranslateSubs: %v", err)
	}
	if translator.from != "eng" || translator.to != "spa" {
		t.Fatalf("pair = %s -> %s", translator.from, translator.to)
	}
	if len(out.Subtitles) != 2 {
		t.Fatalf("subtitle count = %d, want 2", len(out.Subtitles))
	}
	generated := out.Subtitles[1]
	if generated.Language != "spa" || !generated.Generated {
		t.Fatalf("generated = %+v", generated)
	}
	if filepath.Base(generated.FilePath) != "movie_track0_spa.srt" {
		t.Fatalf("output name = %s", generated.FilePath)
	}

	data, err := os.ReadFile(generated.FilePath)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "HELLO THERE.") || !strings.Contains(content, "HOW ARE YOU?") {
		t.Fatalf("text not translated:\n%s", content)
	}
	if !strings.Contains(content, "00:00:01,000 --> 00:00:03,000") {
		t.Fatal("timing line changed")
	}
	if !strings.HasPrefix(content, "1\n") {
		t.Fatal("cues must renumber from 1")
	}
}

func TestTranslateSubsSkipsMatchingLanguage(t *testing.T) {
	rt, _ := newTestRuntime(t)
	dir := t.TempDir()
	fs := srtStreams(t, dir)
	rt.WithTranslator(&upperTranslator{})

	out, err := rt.TranslateSubs(context.Background(), fs, "eng", "eng", AllTracks, dir, DefaultOptions())
	if err != nil {
		t.Fatalf("TranslateSubs: %v", err)
	}
	if len(out.Subtitles) != 1 {
		t.Fatal("matching source and target must be a no-op")
	}
}

func TestTranslateSubsRejectsImageSubtitles(t *testing.T) {
	rt, _ := newTestRuntime(t)
	fs := sampleStreams(t, t.TempDir())
	fs.Subtitles[0].CodecName = "hdmv_pgs_subtitle"
	fs.Subtitles[0].FilePath = fs.FilePath()

	if _, err := rt.TranslateSubs(context.Background(), fs, "spa", "", AllTracks, "", DefaultOptions()); err == nil {
		t.Fatal("expected error for image-based subtitles")
	}
}
