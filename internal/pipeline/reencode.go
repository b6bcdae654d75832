package pipeline

import (
	"context"
	"path/filepath"

	"vpipe/internal/logging"
	"vpipe/internal/media"
	"vpipe/internal/services"
	"vpipe/internal/services/handbrake"
)

// Reencode re-encodes the video stream through HandBrakeCLI at the requested
// resolution. Audio and subtitle tracks pass through. HDR sources get a
// bt709 conversion so the SDR presets do not wash out.
func (r *Runtime) Reencode(ctx context.Context, fs media.FileStreams, quality, output string) (media.FileStreams, error) {
	if fs.Video == nil {
		return media.FileStreams{}, services.Wrap(services.ErrInvalidInput, CmdReencode, "validate",
			"re-encode requires a video stream", nil)
	}
	source := fs.FilePath()
	if err := requireFile(CmdReencode, source); err != nil {
		return media.FileStreams{}, err
	}
	preset, err := handbrake.PresetFor(quality)
	if err != nil {
		return media.FileStreams{}, err
	}

	dest := resolveOutput(output, filepath.Dir(source),
		stem(source)+"_"+quality+".mkv")

	r.logger.Info("re-encoding video",
		logging.String("source", source),
		logging.String("preset", preset),
		logging.Bool("hdr", fs.Video.IsHDR()),
		logging.String("output", dest))
	if err := r.handbrake.Encode(ctx, handbrake.EncodeRequest{
		Input:  source,
		Output: dest,
		Preset: preset,
		HDR:    fs.Video.IsHDR(),
	}); err != nil {
		return media.FileStreams{}, err
	}

	out := fs.WithFilePath(dest)
	out.Video.CodecName = "hevc"
	out.Video.ContainerFormats = []string{"matroska"}
	if fs.Video.IsHDR() {
		out.Video.ColorSpace = "bt709"
		out.Video.ColorTransfer = "bt709"
		out.Video.ColorPrimaries = "bt709"
	}
	return out, nil
}
