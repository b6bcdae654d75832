package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vpipe/internal/language"
	"vpipe/internal/logging"
	"vpipe/internal/media"
	"vpipe/internal/services"
	"vpipe/internal/subtitles"
)

// TranslateSubs translates one or all subtitle tracks into the target
// language, writing a fresh SRT per track. Timing survives untouched; only
// the cue text changes. from may be empty, in which case the track's own
// language (detected when untagged) is used.
func (r *Runtime) TranslateSubs(ctx context.Context, fs media.FileStreams, to, from string, track int, output string, opts Options) (media.FileStreams, error) {
	if !language.Known(to) {
		return media.FileStreams{}, services.Wrap(services.ErrInvalidInput, CmdTranslate, "validate",
			fmt.Sprintf("unknown target language %q", to), nil)
	}
	if err := validateTrack(CmdTranslate, track, len(fs.Subtitles), "subtitle"); err != nil {
		return media.FileStreams{}, err
	}
	if err := requireStreamFiles(CmdTranslate, fs); err != nil {
		return media.FileStreams{}, err
	}
	to = language.Normalize(to)
	translator := r.translate(opts.TranslationMode)

	scratch, err := os.MkdirTemp("", "vpipe-translate-")
	if err != nil {
		return media.FileStreams{}, services.Wrap(services.ErrExternalTool, CmdTranslate, "workspace", "", err)
	}
	defer os.RemoveAll(scratch)

	out := fs.Clone()
	for _, i := range trackIndices(track, len(fs.Subtitles)) {
		sub := fs.Subtitles[i]
		srtPath, err := r.subtitleAsSRT(ctx, sub, i, scratch)
		if err != nil {
			return media.FileStreams{}, err
		}

		source := language.Normalize(from)
		if source == language.Unknown {
			source = r.detector.SubtitleLanguage(ctx, sub.Language, srtPath, opts.ForceDetection)
		}
		if source == language.Unknown {
			r.logger.Warn("source language undetermined, assuming English",
				logging.String("path", srtPath), logging.Int("track", i))
			source = "eng"
		}
		if source == to {
			r.logger.Info("subtitle already in target language, skipping",
				logging.Int("track", i), logging.String("language", to))
			continue
		}

		data, err := os.ReadFile(srtPath)
		if err != nil {
			return media.FileStreams{}, services.Wrap(services.ErrInvalidInput, CmdTranslate, "read", srtPath, err)
		}
		blocks := subtitles.ParseSRT(string(data))
		if len(blocks) == 0 {
			return media.FileStreams{}, services.Wrap(services.ErrInvalidInput, CmdTranslate, "parse",
				fmt.Sprintf("no cues in %s", srtPath), nil)
		}

		lines, slots := collectCueLines(blocks)
		translated, err := translator.Translate(ctx, lines, source, to)
		if err != nil {
			return media.FileStreams{}, err
		}
		if len(translated) != len(lines) {
			return media.FileStreams{}, services.Wrap(services.ErrExternalTool, CmdTranslate, "translate",
				fmt.Sprintf("backend returned %d lines for %d inputs", len(translated), len(lines)), nil)
		}
		for n, slot := range slots {
			blocks[slot.block].Lines[slot.line] = translated[n]
		}

		dest := resolveOutput(output, filepath.Dir(fs.FilePath()),
			fmt.Sprintf("%s_track%d_%s.srt", stem(fs.FilePath()), i, to))
		if err := os.WriteFile(dest, []byte(subtitles.RebuildSRT(blocks)), 0o644); err != nil {
			return media.FileStreams{}, services.Wrap(services.ErrExternalTool, CmdTranslate, "write", dest, err)
		}
		r.logger.Info("translated subtitles",
			logging.Int("track", i),
			logging.String("from", source),
			logging.String("to", to),
			logging.Int("lines", len(lines)),
			logging.String("output", dest))

		out.Subtitles = append(out.Subtitles, media.SubtitleStream{
			StreamInfo: media.StreamInfo{
				CodecName: "subrip",
				FilePath:  dest,
				Language:  to,
			},
			Generated: true,
		})
	}
	return out, nil
}

// subtitleAsSRT hands back a readable SRT path for the track, demuxing
// embedded text subtitles into the scratch directory first.
func (r *Runtime) subtitleAsSRT(ctx context.Context, sub media.SubtitleStream, index int, scratch string) (string, error) {
	if strings.EqualFold(filepath.Ext(sub.FilePath), ".srt") {
		return sub.FilePath, nil
	}
	if !isSRTCompatible(sub.CodecName) {
		return "", services.Wrap(services.ErrInvalidInput, CmdTranslate, "validate",
			fmt.Sprintf("subtitle track %d codec %q is not text-based", index, sub.CodecName), nil)
	}
	dest := filepath.Join(scratch, fmt.Sprintf("track_%d.srt", index))
	args := []string{
		"-i", sub.FilePath,
		"-map", fmt.Sprintf("0:s:%d", sub.FFmpegIndex),
		"-c:s", "srt",
		dest,
	}
	if err := r.ffmpeg.Run(ctx, CmdTranslate, args...); err != nil {
		return "", err
	}
	return dest, nil
}

type cueSlot struct {
	block int
	line  int
}

// collectCueLines flattens non-empty cue lines for translation, remembering
// where each line came from so translations land back in place.
func collectCueLines(blocks []subtitles.Block) ([]string, []cueSlot) {
	var lines []string
	var slots []cueSlot
	for b := range blocks {
		for l, line := range blocks[b].Lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			lines = append(lines, line)
			slots = append(slots, cueSlot{block: b, line: l})
		}
	}
	return lines, slots
}
