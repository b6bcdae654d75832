package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"vpipe/internal/media"
)

// pathProber builds a minimal audio-only aggregate for whatever file it is
// asked about.
type pathProber struct{}

func (pathProber) Probe(_ context.Context, path string) (media.FileStreams, error) {
	return media.FileStreams{
		Audios: []media.AudioStream{{
			StreamInfo: media.StreamInfo{
				CodecName: "aac", FilePath: path, Language: "eng",
			},
			DurationSeconds: 60,
		}},
	}, nil
}

func TestRunBatchProcessesEveryMediaFile(t *testing.T) {
	rt, _ := newTestRuntime(t)
	rt.WithProber(pathProber{})
	dir := t.TempDir()
	outDir := t.TempDir()

	for _, name := range []string{"a.mka", "b.mka", "notes.txt", "c.mkv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	actions, err := ParseActions([]string{"delay=1"})
	if err != nil {
		t.Fatal(err)
	}
	results, err := rt.RunBatch(context.Background(), dir, actions, outDir, DefaultOptions())
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("result count = %d, want 3 media files", len(results))
	}
	for _, result := range results {
		if result.Err != nil {
			t.Fatalf("%s failed: %v", result.Result.Source, result.Err)
		}
		if len(result.Result.Outputs) != 1 {
			t.Fatalf("%s outputs = %v", result.Result.Source, result.Result.Outputs)
		}
	}
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("output dir holds %d files, want 3", len(entries))
	}
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	rt, _ := newTestRuntime(t)
	rt.WithProber(pathProber{})
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "ok.mka"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.mka"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Track 5 exists in no file, so every run fails the same validation;
	// the point is that both files report instead of the first aborting
	// the second.
	opts := DefaultOptions()
	opts.Track = 5
	actions, err := ParseActions([]string{"delay=1"})
	if err != nil {
		t.Fatal(err)
	}
	results, err := rt.RunBatch(context.Background(), dir, actions, t.TempDir(), opts)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("result count = %d", len(results))
	}
	for _, result := range results {
		if result.Err == nil {
			t.Fatal("expected per-file validation failures")
		}
	}
}

func TestRunBatchRejectsEmptyDirectory(t *testing.T) {
	rt, _ := newTestRuntime(t)
	actions, _ := ParseActions([]string{"inspect"})
	if _, err := rt.RunBatch(context.Background(), t.TempDir(), actions, "", DefaultOptions()); err == nil {
		t.Fatal("expected error for a directory with no media files")
	}
}
