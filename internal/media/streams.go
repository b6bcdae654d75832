package media

import (
	"fmt"
	"strings"
)

// Frame rates used by retiming commands.
const (
	NTSCRate = 23.976
	PALRate  = 25.0
)

// hdrColorTransfers are the transfer characteristics that mark HDR content.
var hdrColorTransfers = map[string]struct{}{
	"smpte2084":    {},
	"arib-std-b67": {},
	"bt2020-10":    {},
	"bt2020-12":    {},
}

// StreamInfo carries the fields common to every stream kind.
type StreamInfo struct {
	// StreamIndex is the prober-reported absolute index within the
	// original container. Stable identity across the file's lifetime.
	StreamIndex int
	// FFmpegIndex is the index within streams of the same type (the Nth
	// audio stream, 0-based). Resets to 0 when a stream is pulled into
	// its own standalone file.
	FFmpegIndex int
	CodecName   string
	FilePath    string
	Language    string
	Tags        map[string]string
}

// MapSpecifier returns the -map argument selecting this stream by its
// absolute container index.
func (s StreamInfo) MapSpecifier() string {
	return fmt.Sprintf("0:%d", s.StreamIndex)
}

// VideoStream describes a video stream.
type VideoStream struct {
	StreamInfo
	DurationSeconds  float64
	FrameRate        float64
	ColorSpace       string
	ColorTransfer    string
	ColorPrimaries   string
	ContainerFormats []string
}

// IsHDR reports whether the color transfer marks high dynamic range content.
func (v *VideoStream) IsHDR() bool {
	if v == nil {
		return false
	}
	_, ok := hdrColorTransfers[strings.ToLower(strings.TrimSpace(v.ColorTransfer))]
	return ok
}

// AudioStream describes an audio stream.
type AudioStream struct {
	StreamInfo
	DurationSeconds float64
	BitRate         int64
	SampleRate      int
	Channels        int
	SampleFormat    string
}

// losslessCodecs and the sample-format bonus feed QualityScore.
var losslessCodecs = map[string]struct{}{
	"truehd": {}, "flac": {}, "mlp": {}, "alac": {},
	"pcm_s16le": {}, "pcm_s24le": {}, "pcm_s32le": {},
	"pcm_s16be": {}, "pcm_s24be": {}, "pcm_bluray": {},
	"dts": {}, // DTS-HD MA reports codec "dts"; profile is not always present
}

// QualityScore ranks audio streams for merge ordering. Lossless codecs
// dominate, then bitrate, sample format depth, sample rate, and channels.
func (a AudioStream) QualityScore() int64 {
	var score int64
	if _, ok := losslessCodecs[strings.ToLower(a.CodecName)]; ok {
		score += 10_000_000
	}
	score += a.BitRate
	switch {
	case strings.Contains(a.SampleFormat, "64"):
		score += 4000
	case strings.Contains(a.SampleFormat, "32"):
		score += 3000
	case strings.Contains(a.SampleFormat, "16"):
		score += 2000
	case strings.Contains(a.SampleFormat, "8"):
		score += 1000
	}
	score += int64(a.SampleRate)
	score += int64(a.Channels) * 100
	return score
}

// SubtitleStream describes a subtitle stream.
type SubtitleStream struct {
	StreamInfo
	Default bool
	// Generated marks subtitles produced by transcription rather than
	// demuxed from the source container.
	Generated bool
}

// FileStreams is the working value the pipeline threads between commands.
// Each command returns a fresh value describing its output file; inputs are
// never mutated.
type FileStreams struct {
	Video     *VideoStream
	Audios    []AudioStream
	Subtitles []SubtitleStream
}

// FilePath returns the backing file, preferring video, then the first audio,
// then the first subtitle. Empty when the value holds no streams.
func (f FileStreams) FilePath() string {
	if f.Video != nil {
		return f.Video.FilePath
	}
	if len(f.Audios) > 0 {
		return f.Audios[0].FilePath
	}
	if len(f.Subtitles) > 0 {
		return f.Subtitles[0].FilePath
	}
	return ""
}

// HasStreams reports whether the value describes anything at all.
func (f FileStreams) HasStreams() bool {
	return f.Video != nil || len(f.Audios) > 0 || len(f.Subtitles) > 0
}

// WithFilePath returns a copy whose streams all point at path. Used after a
// command writes its output file.
func (f FileStreams) WithFilePath(path string) FileStreams {
	out := f.Clone()
	if out.Video != nil {
		out.Video.FilePath = path
	}
	for i := range out.Audios {
		out.Audios[i].FilePath = path
	}
	for i := range out.Subtitles {
		out.Subtitles[i].FilePath = path
	}
	return out
}

// Clone returns a deep copy.
func (f FileStreams) Clone() FileStreams {
	out := FileStreams{}
	if f.Video != nil {
		v := *f.Video
		v.Tags = cloneTags(f.Video.Tags)
		v.ContainerFormats = append([]string(nil), f.Video.ContainerFormats...)
		out.Video = &v
	}
	if len(f.Audios) > 0 {
		out.Audios = make([]AudioStream, len(f.Audios))
		copy(out.Audios, f.Audios)
		for i := range out.Audios {
			out.Audios[i].Tags = cloneTags(f.Audios[i].Tags)
		}
	}
	if len(f.Subtitles) > 0 {
		out.Subtitles = make([]SubtitleStream, len(f.Subtitles))
		copy(out.Subtitles, f.Subtitles)
		for i := range out.Subtitles {
			out.Subtitles[i].Tags = cloneTags(f.Subtitles[i].Tags)
		}
	}
	return out
}

func cloneTags(tags map[string]string) map[string]string {
	if tags == nil {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}
