package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"vpipe/internal/language"
	"vpipe/internal/logging"
	"vpipe/internal/media"
	"vpipe/internal/services"
)

// Append unions every stream the aggregate references into a single Matroska
// file. The streams may live in any number of backing files; each distinct
// file becomes one ffmpeg input. Language tags and the default-subtitle
// disposition carry over as explicit metadata so they survive the remux.
func (r *Runtime) Append(ctx context.Context, fs media.FileStreams, output string) (media.FileStreams, error) {
	if !fs.HasStreams() {
		return media.FileStreams{}, services.Wrap(services.ErrInvalidInput, CmdAppend, "validate",
			"nothing to append: aggregate holds no streams", nil)
	}
	if err := requireStreamFiles(CmdAppend, fs); err != nil {
		return media.FileStreams{}, err
	}

	source := fs.FilePath()
	dest := resolveOutput(output, filepath.Dir(source), stem(source)+"_appended.mkv")
	if !strings.EqualFold(filepath.Ext(dest), ".mkv") {
		return media.FileStreams{}, services.Wrap(services.ErrInvalidInput, CmdAppend, "validate",
			fmt.Sprintf("append writes matroska output, got %s", filepath.Base(dest)), nil)
	}

	inputs := []string{}
	inputIndex := map[string]int{}
	register := func(path string) int {
		if idx, ok := inputIndex[path]; ok {
			return idx
		}
		idx := len(inputs)
		inputIndex[path] = idx
		inputs = append(inputs, path)
		return idx
	}

	var args []string
	var maps []string
	var meta []string

	if fs.Video != nil {
		idx := register(fs.Video.FilePath)
		maps = append(maps, "-map", fmt.Sprintf("%d:v:%d", idx, fs.Video.FFmpegIndex))
	}
	for outIdx, audio := range fs.Audios {
		idx := register(audio.FilePath)
		maps = append(maps, "-map", fmt.Sprintf("%d:a:%d", idx, audio.FFmpegIndex))
		if language.Known(audio.Language) {
			meta = append(meta, fmt.Sprintf("-metadata:s:a:%d", outIdx), "language="+audio.Language)
		}
	}
	for outIdx, sub := range fs.Subtitles {
		idx := register(sub.FilePath)
		maps = append(maps, "-map", fmt.Sprintf("%d:s:%d", idx, sub.FFmpegIndex))
		if language.Known(sub.Language) {
			meta = append(meta, fmt.Sprintf("-metadata:s:s:%d", outIdx), "language="+sub.Language)
		}
		if sub.Default {
			meta = append(meta, fmt.Sprintf("-disposition:s:s:%d", outIdx), "default")
		}
	}

	for _, input := range inputs {
		args = append(args, "-i", input)
	}
	args = append(args, maps...)
	args = append(args, "-c:v", "copy", "-c:a", "copy")
	for outIdx, sub := range fs.Subtitles {
		if isSRTCompatible(sub.CodecName) {
			args = append(args, fmt.Sprintf("-c:s:%d", outIdx), "srt")
		} else {
			args = append(args, fmt.Sprintf("-c:s:%d", outIdx), "copy")
		}
	}
	args = append(args, "-map_metadata", "0")
	args = append(args, meta...)
	args = append(args, dest)

	r.logger.Info("appending streams",
		logging.Int("inputs", len(inputs)),
		logging.String("output", dest))
	if err := r.ffmpeg.Run(ctx, CmdAppend, args...); err != nil {
		return media.FileStreams{}, err
	}

	out := fs.WithFilePath(dest)
	for i := range out.Subtitles {
		if isSRTCompatible(out.Subtitles[i].CodecName) {
			out.Subtitles[i].CodecName = "subrip"
		}
	}
	reindexContainer(&out)
	return out, nil
}

// reindexContainer renumbers stream indices after streams land in a single
// fresh container: absolute indices run video, audios, subtitles in order,
// and per-type indices restart at 0.
func reindexContainer(fs *media.FileStreams) {
	next := 0
	if fs.Video != nil {
		fs.Video.StreamIndex = next
		fs.Video.FFmpegIndex = 0
		next++
		fs.Video.ContainerFormats = []string{"matroska"}
	}
	for i := range fs.Audios {
		fs.Audios[i].StreamIndex = next
		fs.Audios[i].FFmpegIndex = i
		next++
	}
	for i := range fs.Subtitles {
		fs.Subtitles[i].StreamIndex = next
		fs.Subtitles[i].FFmpegIndex = i
		next++
	}
}
