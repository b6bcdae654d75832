package media

import "testing"

func TestFilePathPrecedence(t *testing.T) {
	video := &VideoStream{StreamInfo: StreamInfo{FilePath: "video.mkv"}}
	audio := AudioStream{StreamInfo: StreamInfo{FilePath: "audio.mka"}}
	sub := SubtitleStream{StreamInfo: StreamInfo{FilePath: "subs.srt"}}

	cases := []struct {
		name string
		fs   FileStreams
		want string
	}{
		{"video wins", FileStreams{Video: video, Audios: []AudioStream{audio}, Subtitles: []SubtitleStream{sub}}, "video.mkv"},
		{"audio next", FileStreams{Audios: []AudioStream{audio}, Subtitles: []SubtitleStream{sub}}, "audio.mka"},
		{"subtitle last", FileStreams{Subtitles: []SubtitleStream{sub}}, "subs.srt"},
		{"empty", FileStreams{}, ""},
	}
	for _, tc := range cases {
		if got := tc.fs.FilePath(); got != tc.want {
			t.Errorf("%s: FilePath() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestWithFilePathDoesNotMutateOriginal(t *testing.T) {
	original := FileStreams{
		Video:  &VideoStream{StreamInfo: StreamInfo{FilePath: "a.mkv"}},
		Audios: []AudioStream{{StreamInfo: StreamInfo{FilePath: "a.mkv", Tags: map[string]string{"language": "eng"}}}},
	}
	updated := original.WithFilePath("b.mkv")
	if updated.FilePath() != "b.mkv" {
		t.Fatalf("updated path = %q", updated.FilePath())
	}
	if updated.Audios[0].FilePath != "b.mkv" {
		t.Fatalf("audio path not cascaded: %q", updated.Audios[0].FilePath)
	}
	if original.FilePath() != "a.mkv" || original.Audios[0].FilePath != "a.mkv" {
		t.Fatal("original mutated by WithFilePath")
	}
	updated.Audios[0].Tags["language"] = "fra"
	if original.Audios[0].Tags["language"] != "eng" {
		t.Fatal("tag map shared between clone and original")
	}
}

func TestIsHDR(t *testing.T) {
	cases := []struct {
		transfer string
		want     bool
	}{
		{"smpte2084", true},
		{"arib-std-b67", true},
		{"bt2020-10", true},
		{"bt2020-12", true},
		{"bt709", false},
		{"", false},
	}
	for _, tc := range cases {
		v := &VideoStream{ColorTransfer: tc.transfer}
		if got := v.IsHDR(); got != tc.want {
			t.Errorf("IsHDR(%q) = %v, want %v", tc.transfer, got, tc.want)
		}
	}
	var nilVideo *VideoStream
	if nilVideo.IsHDR() {
		t.Error("nil video reported HDR")
	}
}

func TestQualityScoreOrdersStreams(t *testing.T) {
	lossless := AudioStream{
		StreamInfo:   StreamInfo{CodecName: "truehd"},
		BitRate:      3_000_000,
		SampleRate:   48000,
		Channels:     8,
		SampleFormat: "s32",
	}
	lossyHigh := AudioStream{
		StreamInfo:   StreamInfo{CodecName: "eac3"},
		BitRate:      768_000,
		SampleRate:   48000,
		Channels:     6,
		SampleFormat: "fltp",
	}
	lossyLow := AudioStream{
		StreamInfo:   StreamInfo{CodecName: "aac"},
		BitRate:      128_000,
		SampleRate:   44100,
		Channels:     2,
		SampleFormat: "fltp",
	}
	if !(lossless.QualityScore() > lossyHigh.QualityScore()) {
		t.Error("lossless should outrank high-bitrate lossy")
	}
	if !(lossyHigh.QualityScore() > lossyLow.QualityScore()) {
		t.Error("high-bitrate lossy should outrank low-bitrate lossy")
	}
}
