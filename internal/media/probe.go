package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"vpipe/internal/fileutil"
	"vpipe/internal/language"
	"vpipe/internal/services"
)

// OutputRunner executes a command and returns its stdout.
type OutputRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Prober inspects media files with ffprobe and builds FileStreams values.
type Prober struct {
	binary string
	run    OutputRunner
}

// NewProber constructs a Prober using the named ffprobe binary.
func NewProber(binary string) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{binary: binary, run: defaultOutputRunner}
}

// WithCommandRunner sets a custom command runner (for testing).
func (p *Prober) WithCommandRunner(run OutputRunner) {
	if run != nil {
		p.run = run
	}
}

func defaultOutputRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.Output()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if exitErr, ok := err.(*exec.ExitError); ok {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		if detail != "" {
			return nil, fmt.Errorf("%w: %s", err, detail)
		}
		return nil, err
	}
	return output, nil
}

const streamEntries = "index,duration,r_frame_rate,codec_name,codec_type," +
	"color_space,color_transfer,color_primaries,bit_rate,sample_rate,channels,sample_fmt,disposition"

type probePayload struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	Index          int               `json:"index"`
	CodecName      string            `json:"codec_name"`
	CodecType      string            `json:"codec_type"`
	Duration       string            `json:"duration"`
	FrameRate      string            `json:"r_frame_rate"`
	ColorSpace     string            `json:"color_space"`
	ColorTransfer  string            `json:"color_transfer"`
	ColorPrimaries string            `json:"color_primaries"`
	BitRate        string            `json:"bit_rate"`
	SampleRate     string            `json:"sample_rate"`
	Channels       int               `json:"channels"`
	SampleFormat   string            `json:"sample_fmt"`
	Disposition    map[string]int    `json:"disposition"`
	Tags           map[string]string `json:"tags"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
}

// Probe inspects path and returns the streams it contains. The path must
// name an existing regular file.
func (p *Prober) Probe(ctx context.Context, path string) (FileStreams, error) {
	if !fileutil.IsRegularFile(path) {
		return FileStreams{}, services.Wrap(services.ErrInvalidInput, "probe", "inspect",
			fmt.Sprintf("not a regular file: %s", path), nil)
	}
	payload, err := p.inspect(ctx, path)
	if err != nil {
		return FileStreams{}, err
	}

	containerFormats := splitFormats(payload.Format.FormatName)
	out := FileStreams{}
	videoIdx, audioIdx, subIdx := 0, 0, 0
	for _, stream := range payload.Streams {
		info := StreamInfo{
			StreamIndex: stream.Index,
			CodecName:   stream.CodecName,
			FilePath:    path,
			Language:    language.FromTags(stream.Tags),
			Tags:        stream.Tags,
		}
		switch strings.ToLower(stream.CodecType) {
		case "video":
			// Cover art shows up as an attached-picture video stream.
			if stream.Disposition["attached_pic"] == 1 {
				continue
			}
			info.FFmpegIndex = videoIdx
			videoIdx++
			video := VideoStream{
				StreamInfo:       info,
				DurationSeconds:  streamDuration(stream),
				FrameRate:        parseFrameRate(stream.FrameRate),
				ColorSpace:       defaultColor(stream.ColorSpace),
				ColorTransfer:    defaultColor(stream.ColorTransfer),
				ColorPrimaries:   defaultColor(stream.ColorPrimaries),
				ContainerFormats: containerFormats,
			}
			if out.Video == nil {
				out.Video = &video
			}
		case "audio":
			info.FFmpegIndex = audioIdx
			audioIdx++
			out.Audios = append(out.Audios, AudioStream{
				StreamInfo:      info,
				DurationSeconds: streamDuration(stream),
				BitRate:         parseInt64(stream.BitRate),
				SampleRate:      int(parseInt64(stream.SampleRate)),
				Channels:        stream.Channels,
				SampleFormat:    stream.SampleFormat,
			})
		case "subtitle":
			info.FFmpegIndex = subIdx
			subIdx++
			out.Subtitles = append(out.Subtitles, SubtitleStream{
				StreamInfo: info,
				Default:    stream.Disposition["default"] == 1,
			})
		}
	}
	return out, nil
}

func (p *Prober) inspect(ctx context.Context, path string) (probePayload, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "stream=" + streamEntries,
		"-show_entries", "format=format_name",
		"-show_entries", "stream_tags",
		"-of", "json",
		path,
	}
	output, err := p.run(ctx, p.binary, args...)
	if err != nil {
		return probePayload{}, services.Wrap(services.ErrExternalTool, "probe", "inspect", path, err)
	}
	var payload probePayload
	if err := json.Unmarshal(output, &payload); err != nil {
		return probePayload{}, services.Wrap(services.ErrExternalTool, "probe", "parse", path, err)
	}
	return payload, nil
}

// streamDuration prefers the numeric duration field, falling back to the
// DURATION tag matroska containers carry (HH:MM:SS.ffffff).
func streamDuration(stream probeStream) float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(stream.Duration), 64); err == nil {
		return v
	}
	for _, key := range []string{"DURATION", "duration", "Duration"} {
		if raw, ok := stream.Tags[key]; ok {
			if v, ok := parseClockDuration(raw); ok {
				return v
			}
		}
	}
	return 0
}

func parseClockDuration(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err1 := strconv.ParseFloat(parts[0], 64)
	minutes, err2 := strconv.ParseFloat(parts[1], 64)
	seconds, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	return hours*3600 + minutes*60 + seconds, true
}

// parseFrameRate decodes ffprobe's rational rate ("24000/1001"). Any parse
// failure yields 0 so retiming commands can reject the stream cleanly.
func parseFrameRate(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	num, den, found := strings.Cut(raw, "/")
	if !found {
		if v, err := strconv.ParseFloat(num, 64); err == nil {
			return v
		}
		return 0
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

func parseInt64(raw string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func defaultColor(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "bt709"
	}
	return value
}

func splitFormats(formatName string) []string {
	if strings.TrimSpace(formatName) == "" {
		return nil
	}
	parts := strings.Split(formatName, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
