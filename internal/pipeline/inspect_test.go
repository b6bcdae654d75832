package pipeline

import (
	"context"
	"strings"
	"testing"
)

func TestInspectPassesThroughWhenNothingNew(t *testing.T) {
	rt, recorder := newTestRuntime(t)
	fs := sampleStreams(t, t.TempDir())
	fs.Audios = fs.Audios[:1] // tagged eng
	fs.Subtitles[0].Language = "eng"
	rt.WithDetector(echoDetector{})

	out, err := rt.Inspect(context.Background(), fs, "", false)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if out.FilePath() != fs.FilePath() {
		t.Fatalf("output = %s, want the untouched input %s", out.FilePath(), fs.FilePath())
	}
	// Dissection runs for detection, but no remux happens.
	for _, call := range recorder.calls {
		if hasArg(call, "-metadata:s:a:0") {
			t.Fatalf("unexpected remux call: %v", call)
		}
	}
}

func TestInspectStampsDetectedLanguages(t *testing.T) {
	rt, recorder := newTestRuntime(t)
	fs := sampleStreams(t, t.TempDir())
	fs.Audios[0].Language = "spa" // tags disagree with what detection will say
	rt.WithDetector(staticDetector{lang: "glg"})

	out, err := rt.Inspect(context.Background(), fs, "", true)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !strings.Contains(out.FilePath(), "_inspected") {
		t.Fatalf("output = %s", out.FilePath())
	}
	args := recorder.last()
	if argAfter(args, "-metadata:s:a:0") != "language=glg" {
		t.Fatalf("audio metadata missing: %v", args)
	}
	if argAfter(args, "-metadata:s:s:0") != "language=glg" {
		t.Fatalf("subtitle metadata missing: %v", args)
	}
	if !hasArg(args, "-c") || argAfter(args, "-c") != "copy" {
		t.Fatal("inspect must stream-copy")
	}
	if out.Audios[0].Language != "glg" || out.Subtitles[0].Language != "glg" {
		t.Fatalf("languages = %s, %s", out.Audios[0].Language, out.Subtitles[0].Language)
	}
}

// staticDetector answers every question with one language.
type staticDetector struct {
	lang string
}

func (d staticDetector) AudioLanguage(_ context.Context, _, _ string, _ int, _ float64, _ bool) string {
	return d.lang
}

func (d staticDetector) SubtitleLanguage(_ context.Context, _, _ string, _ bool) string {
	return d.lang
}
