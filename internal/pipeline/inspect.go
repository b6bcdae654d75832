package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"vpipe/internal/language"
	"vpipe/internal/logging"
	"vpipe/internal/media"
	"vpipe/internal/services"
)

// Inspect determines the language of every audio and subtitle stream and
// writes a copy of the input with the findings stamped into stream metadata.
// When no stream yields a language the container does not already carry, the
// input passes through untouched and no file is written.
func (r *Runtime) Inspect(ctx context.Context, fs media.FileStreams, output string, force bool) (media.FileStreams, error) {
	source := fs.FilePath()
	if err := requireFile(CmdInspect, source); err != nil {
		return media.FileStreams{}, err
	}
	if len(fs.Audios) == 0 && len(fs.Subtitles) == 0 {
		return fs, nil
	}

	scratch, err := os.MkdirTemp("", "vpipe-inspect-")
	if err != nil {
		return media.FileStreams{}, services.Wrap(services.ErrExternalTool, CmdInspect, "workspace", "", err)
	}
	defer os.RemoveAll(scratch)

	// Detection runs against isolated streams so sampling maps cleanly to
	// one track at a time.
	dissected, err := r.Dissect(ctx, fs, true, scratch)
	if err != nil {
		return media.FileStreams{}, err
	}

	out := fs.Clone()
	var meta []string
	for i := range out.Audios {
		audio := &out.Audios[i]
		lang := r.detector.AudioLanguage(ctx, audio.Language, dissected.Audios[i].FilePath, 0,
			audio.DurationSeconds, force)
		if !language.Known(lang) || lang == audio.Language {
			continue
		}
		audio.Language = lang
		meta = append(meta, fmt.Sprintf("-metadata:s:a:%d", audio.FFmpegIndex), "language="+lang)
	}
	for i := range out.Subtitles {
		sub := &out.Subtitles[i]
		lang := r.detector.SubtitleLanguage(ctx, sub.Language, dissected.Subtitles[i].FilePath, force)
		if !language.Known(lang) || lang == sub.Language {
			continue
		}
		sub.Language = lang
		meta = append(meta, fmt.Sprintf("-metadata:s:s:%d", sub.FFmpegIndex), "language="+lang)
	}

	if len(meta) == 0 {
		r.logger.Info("inspection found nothing new", logging.String("source", source))
		return fs, nil
	}

	dest := resolveOutput(output, filepath.Dir(source),
		stem(source)+"_inspected"+filepath.Ext(source))
	args := []string{"-i", source, "-map", "0", "-c", "copy", "-map_metadata", "0"}
	args = append(args, meta...)
	args = append(args, dest)

	r.logger.Info("stamping detected languages",
		logging.String("source", source),
		logging.Int("updates", len(meta)/2),
		logging.String("output", dest))
	if err := r.ffmpeg.Run(ctx, CmdInspect, args...); err != nil {
		return media.FileStreams{}, err
	}
	return out.WithFilePath(dest), nil
}
