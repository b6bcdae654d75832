package subtitles

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Block is a single SRT cue: its sequence number, timing line, and text lines.
type Block struct {
	Index int
	Time  string
	Lines []string
}

// Text joins the cue's text lines with spaces.
func (b Block) Text() string {
	return strings.Join(b.Lines, " ")
}

// ParseSRT decodes SRT content into cue blocks. Malformed blocks (missing
// timing line) are skipped rather than failing the whole file.
func ParseSRT(content string) []Block {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	chunks := strings.Split(strings.TrimSpace(content), "\n\n")
	blocks := make([]Block, 0, len(chunks))
	for _, chunk := range chunks {
		lines := strings.Split(strings.TrimSpace(chunk), "\n")
		if len(lines) < 2 {
			continue
		}
		cursor := 0
		index := 0
		if n, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil {
			index = n
			cursor = 1
		}
		if cursor >= len(lines) || !strings.Contains(lines[cursor], "-->") {
			continue
		}
		block := Block{
			Index: index,
			Time:  strings.TrimSpace(lines[cursor]),
		}
		for _, line := range lines[cursor+1:] {
			block.Lines = append(block.Lines, strings.TrimRight(line, "\r"))
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// RebuildSRT renders blocks back to SRT text, renumbering cues from 1.
func RebuildSRT(blocks []Block) string {
	var builder strings.Builder
	for i, block := range blocks {
		fmt.Fprintf(&builder, "%d\n%s\n", i+1, block.Time)
		for _, line := range block.Lines {
			builder.WriteString(line)
			builder.WriteByte('\n')
		}
		builder.WriteByte('\n')
	}
	return builder.String()
}

// Timestamp formats seconds as an SRT timestamp (HH:MM:SS,mmm).
func Timestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int64(seconds*1000 + 0.5)
	h := millis / 3_600_000
	millis -= h * 3_600_000
	m := millis / 60_000
	millis -= m * 60_000
	s := millis / 1000
	millis -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, millis)
}

// ParseTimestamp decodes an SRT timestamp into seconds. Accepts a period
// in place of the standard comma.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(strings.ReplaceAll(value, ".", ","))
	clock, millisText, found := strings.Cut(value, ",")
	if !found {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(millisText)
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// FlattenText returns all cue text joined with spaces, for language
// detection and translation input.
func FlattenText(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if text := strings.TrimSpace(block.Text()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// CountEntries returns the cue count of an SRT file.
func CountEntries(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read srt: %w", err)
	}
	return len(ParseSRT(string(data))), nil
}

// Segment is a timed text span produced by transcription.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// WriteSegments renders transcription segments as an SRT file, numbering
// cues from 1.
func WriteSegments(path string, segments []Segment) error {
	blocks := make([]Block, 0, len(segments))
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		blocks = append(blocks, Block{
			Time:  fmt.Sprintf("%s --> %s", Timestamp(segment.Start), Timestamp(segment.End)),
			Lines: []string{text},
		})
	}
	return os.WriteFile(path, []byte(RebuildSRT(blocks)), 0o644)
}
