package subtitles

import "testing"

func TestEntryCountDetectorSingleTrack(t *testing.T) {
	var d EntryCountDetector
	// 90 minute film, 20 cues: clearly a partial track.
	got := d.Forced([]Candidate{{Path: "a.srt", Entries: 20}}, 5400)
	if !got[0] {
		t.Fatal("sparse lone track should be forced")
	}
	// 90 minute film, 900 cues: full dialogue.
	got = d.Forced([]Candidate{{Path: "a.srt", Entries: 900}}, 5400)
	if got[0] {
		t.Fatal("dense lone track should not be forced")
	}
	// Unknown duration: no basis for the call.
	got = d.Forced([]Candidate{{Path: "a.srt", Entries: 20}}, 0)
	if got[0] {
		t.Fatal("unknown duration should not mark a track forced")
	}
}

func TestEntryCountDetectorRelativeToOthers(t *testing.T) {
	var d EntryCountDetector
	candidates := []Candidate{
		{Path: "full.srt", Entries: 850},
		{Path: "forced.srt", Entries: 40},
		{Path: "full2.srt", Entries: 910},
	}
	got := d.Forced(candidates, 5400)
	if got[0] || got[2] {
		t.Fatalf("full tracks misclassified: %v", got)
	}
	if !got[1] {
		t.Fatal("sparse track should be forced relative to its siblings")
	}
}

func TestEntryCountDetectorSimilarTracks(t *testing.T) {
	var d EntryCountDetector
	candidates := []Candidate{
		{Path: "a.srt", Entries: 800},
		{Path: "b.srt", Entries: 700},
	}
	for i, forced := range d.Forced(candidates, 5400) {
		if forced {
			t.Fatalf("track %d misclassified as forced", i)
		}
	}
}

func TestEntryCountDetectorEmpty(t *testing.T) {
	var d EntryCountDetector
	if got := d.Forced(nil, 5400); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}
