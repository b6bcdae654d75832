package language

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vpipe/internal/logging"
)

type fakeSpeech struct {
	answers []string
	errs    []error
	calls   int
}

func (f *fakeSpeech) IdentifyLanguage(_ context.Context, _ string) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.answers) {
		return f.answers[i], nil
	}
	return "", errors.New("no answer scripted")
}

type fakeSampler struct {
	windows []float64
}

func (f *fakeSampler) ExtractAudio(_ context.Context, _ string, _ int, startSec, durationSec float64, dest string) error {
	f.windows = append(f.windows, durationSec)
	return os.WriteFile(dest, []byte("wav"), 0o644)
}

type mapCache struct {
	values map[string]string
	puts   int
}

func (m *mapCache) key(digest string, track int, op string) string {
	return digest + "|" + op + string(rune('0'+track))
}

func (m *mapCache) Get(_ context.Context, digest string, track int, op string) (string, bool, error) {
	v, ok := m.values[m.key(digest, track, op)]
	return v, ok, nil
}

func (m *mapCache) Put(_ context.Context, digest string, track int, op, value string) error {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[m.key(digest, track, op)] = value
	m.puts++
	return nil
}

func newTestDetector(speech SpeechModel, sampler AudioSampler, cache Cache) *Detector {
	d := NewDetector(logging.NewNop(), DetectorOptions{
		Speech:           speech,
		Sampler:          sampler,
		Cache:            cache,
		SampleSeconds:    30,
		SampleCount:      3,
		LongTrackSeconds: 600,
	})
	d.WithRandomStart(func(max float64) float64 { return max / 2 })
	return d
}

func TestAudioLanguageTrustsMetadata(t *testing.T) {
	speech := &fakeSpeech{}
	d := newTestDetector(speech, &fakeSampler{}, nil)
	got := d.AudioLanguage(context.Background(), "en", "movie.mkv", 0, 5000, false)
	if got != "eng" {
		t.Fatalf("got %q, want eng", got)
	}
	if speech.calls != 0 {
		t.Fatalf("speech model called %d times for tagged stream", speech.calls)
	}
}

func TestAudioLanguageMajorityVote(t *testing.T) {
	src := writeTempFile(t, "movie.mkv", "payload")
	speech := &fakeSpeech{answers: []string{"es", "en", "es"}}
	sampler := &fakeSampler{}
	d := newTestDetector(speech, sampler, nil)
	got := d.AudioLanguage(context.Background(), Unknown, src, 1, 5000, false)
	if got != "spa" {
		t.Fatalf("got %q, want spa", got)
	}
	if len(sampler.windows) != 3 {
		t.Fatalf("expected 3 sample windows for a long track, got %d", len(sampler.windows))
	}
	for _, dur := range sampler.windows {
		if dur != 30 {
			t.Fatalf("sample window duration %v, want 30", dur)
		}
	}
}

func TestAudioLanguageTieBreaksFirstSeen(t *testing.T) {
	src := writeTempFile(t, "movie.mkv", "payload")
	speech := &fakeSpeech{answers: []string{"fr", "de", "de", "fr"}}
	d := NewDetector(logging.NewNop(), DetectorOptions{
		Speech: speech, Sampler: &fakeSampler{},
		SampleSeconds: 30, SampleCount: 4, LongTrackSeconds: 600,
	})
	d.WithRandomStart(func(max float64) float64 { return 0 })
	got := d.AudioLanguage(context.Background(), "", src, 0, 5000, false)
	if got != "fra" {
		t.Fatalf("got %q, want fra (first seen wins ties)", got)
	}
}

func TestAudioLanguageShortTrackSinglePass(t *testing.T) {
	src := writeTempFile(t, "movie.mkv", "payload")
	speech := &fakeSpeech{answers: []string{"en"}}
	sampler := &fakeSampler{}
	d := newTestDetector(speech, sampler, nil)
	got := d.AudioLanguage(context.Background(), "", src, 0, 120, false)
	if got != "eng" {
		t.Fatalf("got %q, want eng", got)
	}
	if len(sampler.windows) != 1 || sampler.windows[0] != 0 {
		t.Fatalf("short track should get one full-track pass, got %v", sampler.windows)
	}
}

func TestAudioLanguageDegradesToUnknown(t *testing.T) {
	src := writeTempFile(t, "movie.mkv", "payload")
	speech := &fakeSpeech{errs: []error{errors.New("boom")}}
	d := newTestDetector(speech, &fakeSampler{}, nil)
	if got := d.AudioLanguage(context.Background(), "", src, 0, 120, false); got != Unknown {
		t.Fatalf("got %q, want %q", got, Unknown)
	}
}

func TestAudioLanguageNoModelConfigured(t *testing.T) {
	d := NewDetector(logging.NewNop(), DetectorOptions{})
	if got := d.AudioLanguage(context.Background(), "", "movie.mkv", 0, 120, false); got != Unknown {
		t.Fatalf("got %q, want %q", got, Unknown)
	}
}

func TestAudioLanguageUsesCache(t *testing.T) {
	src := writeTempFile(t, "movie.mkv", "payload")
	cache := &mapCache{}
	speech := &fakeSpeech{answers: []string{"en"}}
	d := newTestDetector(speech, &fakeSampler{}, cache)

	if got := d.AudioLanguage(context.Background(), "", src, 0, 120, false); got != "eng" {
		t.Fatalf("first call: got %q, want eng", got)
	}
	if cache.puts != 1 {
		t.Fatalf("expected one cache write, got %d", cache.puts)
	}
	// Second call must come from the cache, not the speech model.
	if got := d.AudioLanguage(context.Background(), "", src, 0, 120, false); got != "eng" {
		t.Fatalf("second call: got %q, want eng", got)
	}
	if speech.calls != 1 {
		t.Fatalf("speech model called %d times, want 1", speech.calls)
	}
}

func TestAudioLanguageForceBypassesCache(t *testing.T) {
	src := writeTempFile(t, "movie.mkv", "payload")
	cache := &mapCache{}
	speech := &fakeSpeech{answers: []string{"en", "en"}}
	d := newTestDetector(speech, &fakeSampler{}, cache)

	d.AudioLanguage(context.Background(), "", src, 0, 120, false)
	d.AudioLanguage(context.Background(), "fr", src, 0, 120, true)
	if speech.calls != 2 {
		t.Fatalf("force should bypass both metadata and cache, got %d calls", speech.calls)
	}
}

func TestSubtitleLanguageTrustsMetadata(t *testing.T) {
	d := newTestDetector(nil, nil, nil)
	if got := d.SubtitleLanguage(context.Background(), "spa", "missing.srt", false); got != "spa" {
		t.Fatalf("got %q, want spa", got)
	}
}

func TestSubtitleLanguageDetectsFromText(t *testing.T) {
	content := `1
00:00:01,000 --> 00:00:04,000
The quick brown fox jumps over the lazy dog near the riverbank.

2
00:00:05,000 --> 00:00:08,000
Everyone in the village knew the story about the lighthouse keeper.
`
	path := writeTempFile(t, "subs.srt", content)
	d := newTestDetector(nil, nil, nil)
	if got := d.SubtitleLanguage(context.Background(), "", path, false); got != "eng" {
		t.Fatalf("got %q, want eng", got)
	}
}

func TestSubtitleLanguageMissingFile(t *testing.T) {
	d := newTestDetector(nil, nil, nil)
	if got := d.SubtitleLanguage(context.Background(), "", filepath.Join(t.TempDir(), "nope.srt"), false); got != Unknown {
		t.Fatalf("got %q, want %q", got, Unknown)
	}
}

func TestTextLanguageEmpty(t *testing.T) {
	d := newTestDetector(nil, nil, nil)
	if got := d.TextLanguage("   "); got != Unknown {
		t.Fatalf("got %q, want %q", got, Unknown)
	}
}

func TestFlattenSRTText(t *testing.T) {
	content := "1\n00:00:01,000 --> 00:00:02,000\nHello there.\n\n2\n00:00:03,000 --> 00:00:04,000\nGeneral greeting.\n"
	got := flattenSRTText(content)
	want := "Hello there. General greeting."
	if got != want {
		t.Fatalf("flattenSRTText = %q, want %q", got, want)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
