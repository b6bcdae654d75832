package pipeline

import (
	"context"
	"strings"
	"testing"

	"vpipe/internal/media"
)

func TestAtempoFactorRounding(t *testing.T) {
	cases := []struct {
		from, to float64
		want     float64
	}{
		{25, 23.976, 0.95904},
		{29.97, 23.976, 0.8},
		{24, 23.976, 0.999},
		{23.976, 25, 1.04270938},
	}
	for _, tc := range cases {
		if got := AtempoFactor(tc.from, tc.to); got != tc.want {
			t.Errorf("AtempoFactor(%v, %v) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestAtempoWithAdjustsDurations(t *testing.T) {
	rt, recorder := newTestRuntime(t)
	fs := sampleStreams(t, t.TempDir())

	out, err := rt.AtempoWith(context.Background(), fs, 0.8, AllTracks, "")
	if err != nil {
		t.Fatalf("AtempoWith: %v", err)
	}
	args := recorder.last()
	if argAfter(args, "-filter:a:0") != "atempo=0.8" || argAfter(args, "-filter:a:1") != "atempo=0.8" {
		t.Fatalf("filters missing from %v", args)
	}
	if !hasArg(args, "-map_metadata") {
		t.Fatal("metadata not carried over")
	}
	for _, audio := range out.Audios {
		if audio.DurationSeconds != 5400/0.8 {
			t.Fatalf("duration = %v, want %v", audio.DurationSeconds, 5400/0.8)
		}
	}
	if !strings.Contains(out.FilePath(), "_atempo_0.8") {
		t.Fatalf("output name = %s", out.FilePath())
	}
	// Input untouched.
	if fs.Audios[0].DurationSeconds != 5400 {
		t.Fatal("input aggregate was mutated")
	}
}

func TestAtempoInfersRateFromVideo(t *testing.T) {
	rt, recorder := newTestRuntime(t)
	fs := sampleStreams(t, t.TempDir())

	// Video is PAL, so bare atempo retimes 25 -> NTSC.
	if _, err := rt.Atempo(context.Background(), fs, 0, media.NTSCRate, AllTracks, ""); err != nil {
		t.Fatalf("Atempo: %v", err)
	}
	if got := argAfter(recorder.last(), "-filter:a:0"); got != "atempo=0.95904" {
		t.Fatalf("filter = %q, want atempo=0.95904", got)
	}
}

func TestAtempoVideoRequiresVideo(t *testing.T) {
	rt, _ := newTestRuntime(t)
	fs := sampleStreams(t, t.TempDir())
	fs.Video = nil
	if _, err := rt.AtempoVideo(context.Background(), fs, media.PALRate, ""); err == nil {
		t.Fatal("expected error for audio-only input")
	}
}
