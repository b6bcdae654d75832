package pipeline

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"vpipe/internal/logging"
	"vpipe/internal/media"
	"vpipe/internal/services"
)

// AtempoFactor computes the tempo multiplier for a frame-rate change,
// rounded to 8 decimal places.
func AtempoFactor(fromRate, toRate float64) float64 {
	return math.Round(toRate/fromRate*1e8) / 1e8
}

// Atempo retimes audio for a frame-rate change. fromRate <= 0 means infer it
// from the video stream; when that fails too, PAL is assumed with a warning.
func (r *Runtime) Atempo(ctx context.Context, fs media.FileStreams, fromRate, toRate float64, track int, output string) (media.FileStreams, error) {
	if fromRate <= 0 {
		if fs.Video != nil && fs.Video.FrameRate > 0 {
			fromRate = fs.Video.FrameRate
			r.logger.Info("inferred source frame rate from video stream",
				logging.Float64("from_rate", fromRate))
		} else {
			fromRate = media.PALRate
			r.logger.Warn("no video frame rate available, assuming PAL",
				logging.Float64("from_rate", fromRate))
		}
	}
	return r.AtempoWith(ctx, fs, AtempoFactor(fromRate, toRate), track, output)
}

// AtempoWith applies a fixed tempo multiplier to one or all audio streams.
func (r *Runtime) AtempoWith(ctx context.Context, fs media.FileStreams, factor float64, track int, output string) (media.FileStreams, error) {
	source := fs.FilePath()
	if err := requireFile(CmdAtempoWith, source); err != nil {
		return media.FileStreams{}, err
	}
	if factor < 0 {
		return media.FileStreams{}, services.Wrap(services.ErrInvalidInput, CmdAtempoWith, "validate",
			fmt.Sprintf("negative atempo factor %v", factor), nil)
	}
	if err := validateTrack(CmdAtempoWith, track, len(fs.Audios), "audio"); err != nil {
		return media.FileStreams{}, err
	}

	dest := resolveOutput(output, filepath.Dir(source),
		fmt.Sprintf("%s_atempo_%v%s", stem(source), factor, filepath.Ext(source)))

	args := []string{"-i", source}
	for _, i := range trackIndices(track, len(fs.Audios)) {
		args = append(args, fmt.Sprintf("-filter:a:%d", i), "atempo="+strconv.FormatFloat(factor, 'f', -1, 64))
	}
	args = append(args, "-map_metadata", "0", dest)

	r.logger.Info("adjusting audio tempo",
		logging.String("source", source),
		logging.Float64("factor", factor),
		logging.String("output", dest))
	if err := r.ffmpeg.Run(ctx, CmdAtempoWith, args...); err != nil {
		return media.FileStreams{}, err
	}

	out := fs.WithFilePath(dest)
	if factor > 0 {
		for _, i := range trackIndices(track, len(out.Audios)) {
			if out.Audios[i].DurationSeconds > 0 {
				out.Audios[i].DurationSeconds /= factor
			}
		}
	}
	return out, nil
}

// AtempoVideo changes only the video stream's frame rate.
func (r *Runtime) AtempoVideo(ctx context.Context, fs media.FileStreams, toRate float64, output string) (media.FileStreams, error) {
	source := fs.FilePath()
	if err := requireFile(CmdAtempoVideo, source); err != nil {
		return media.FileStreams{}, err
	}
	if toRate < 0 {
		return media.FileStreams{}, services.Wrap(services.ErrInvalidInput, CmdAtempoVideo, "validate",
			fmt.Sprintf("negative target rate %v", toRate), nil)
	}
	if fs.Video == nil {
		return media.FileStreams{}, services.Wrap(services.ErrInvalidInput, CmdAtempoVideo, "validate",
			"no video stream in input", nil)
	}

	suffix := filepath.Ext(source)
	if len(fs.Video.ContainerFormats) > 0 {
		suffix = "." + fs.Video.ContainerFormats[0]
	}
	dest := resolveOutput(output, filepath.Dir(source),
		fmt.Sprintf("%s_rate_%v%s", stem(source), toRate, suffix))

	args := []string{
		"-i", source,
		"-r", strconv.FormatFloat(toRate, 'f', -1, 64),
		"-map_metadata", "0",
		dest,
	}
	r.logger.Info("adjusting video frame rate",
		logging.String("source", source),
		logging.Float64("to_rate", toRate),
		logging.String("output", dest))
	if err := r.ffmpeg.Run(ctx, CmdAtempoVideo, args...); err != nil {
		return media.FileStreams{}, err
	}

	out := fs.WithFilePath(dest)
	out.Video.FrameRate = toRate
	return out, nil
}
