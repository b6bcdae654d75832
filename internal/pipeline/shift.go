package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"vpipe/internal/logging"
	"vpipe/internal/media"
	"vpipe/internal/services"
)

// Delay pads the start of one or all audio streams with silence.
func (r *Runtime) Delay(ctx context.Context, fs media.FileStreams, seconds float64, track int, output string) (media.FileStreams, error) {
	source := fs.FilePath()
	if err := requireFile(CmdDelay, source); err != nil {
		return media.FileStreams{}, err
	}
	if seconds < 0 {
		return media.FileStreams{}, services.Wrap(services.ErrInvalidInput, CmdDelay, "validate",
			fmt.Sprintf("negative delay %v", seconds), nil)
	}
	if err := validateTrack(CmdDelay, track, len(fs.Audios), "audio"); err != nil {
		return media.FileStreams{}, err
	}

	dest := resolveOutput(output, filepath.Dir(source),
		fmt.Sprintf("%s_delayed_%v.%s", stem(source), seconds, shiftSuffix(fs, track)))

	millis := int(seconds * 1000)
	args := []string{"-i", source}
	for _, i := range trackIndices(track, len(fs.Audios)) {
		args = append(args, fmt.Sprintf("-filter:a:%d", i), fmt.Sprintf("adelay=%d:all=true", millis))
	}
	args = append(args, "-strict", "experimental", dest)

	r.logger.Info("delaying audio",
		logging.String("source", source),
		logging.Float64("seconds", seconds),
		logging.String("output", dest))
	if err := r.ffmpeg.Run(ctx, CmdDelay, args...); err != nil {
		return media.FileStreams{}, err
	}

	out := fs.WithFilePath(dest)
	for _, i := range trackIndices(track, len(out.Audios)) {
		if out.Audios[i].DurationSeconds > 0 {
			out.Audios[i].DurationSeconds += seconds
		}
	}
	return out, nil
}

// Hasten trims the start of one or all audio streams.
func (r *Runtime) Hasten(ctx context.Context, fs media.FileStreams, seconds float64, track int, output string) (media.FileStreams, error) {
	source := fs.FilePath()
	if err := requireFile(CmdHasten, source); err != nil {
		return media.FileStreams{}, err
	}
	if seconds < 0 {
		return media.FileStreams{}, services.Wrap(services.ErrInvalidInput, CmdHasten, "validate",
			fmt.Sprintf("negative hasten %v", seconds), nil)
	}
	if err := validateTrack(CmdHasten, track, len(fs.Audios), "audio"); err != nil {
		return media.FileStreams{}, err
	}

	dest := resolveOutput(output, filepath.Dir(source),
		fmt.Sprintf("%s_hastened_%v.%s", stem(source), seconds, shiftSuffix(fs, track)))

	args := []string{"-i", source, "-ss", strconv.FormatFloat(seconds, 'f', -1, 64)}
	for _, i := range trackIndices(track, len(fs.Audios)) {
		args = append(args, "-map", fmt.Sprintf("0:a:%d", i))
	}
	args = append(args, "-c:a", "copy", "-strict", "experimental", dest)

	r.logger.Info("hastening audio",
		logging.String("source", source),
		logging.Float64("seconds", seconds),
		logging.String("output", dest))
	if err := r.ffmpeg.Run(ctx, CmdHasten, args...); err != nil {
		return media.FileStreams{}, err
	}

	out := fs.WithFilePath(dest)
	for _, i := range trackIndices(track, len(out.Audios)) {
		if out.Audios[i].DurationSeconds > 0 {
			out.Audios[i].DurationSeconds -= seconds
			if out.Audios[i].DurationSeconds < 0 {
				out.Audios[i].DurationSeconds = 0
			}
		}
	}
	return out, nil
}

// shiftSuffix picks the output container for a shifted file: the single
// track's codec container, or mka when shifting every track.
func shiftSuffix(fs media.FileStreams, track int) string {
	if track != AllTracks && track >= 0 && track < len(fs.Audios) {
		return suffixForCodec(fs.Audios[track].CodecName, "audio")
	}
	return "mka"
}
