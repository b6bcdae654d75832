package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"vpipe/internal/logging"
	"vpipe/internal/media"
	"vpipe/internal/services"
)

// Extract pulls one or all streams of a type out to standalone files. The
// extracted stream is re-tagged with its detected language and its per-type
// index resets to 0, since it now heads its own container.
func (r *Runtime) Extract(ctx context.Context, fs media.FileStreams, streamType string, track int, output string, force bool) (media.FileStreams, error) {
	if streamType != "audio" && streamType != "subtitle" {
		return media.FileStreams{}, services.Wrap(services.ErrInvalidInput, CmdExtract, "validate",
			fmt.Sprintf("stream type %q must be audio or subtitle", streamType), nil)
	}
	count := len(fs.Audios)
	if streamType == "subtitle" {
		count = len(fs.Subtitles)
	}
	if err := validateTrack(CmdExtract, track, count, streamType); err != nil {
		return media.FileStreams{}, err
	}
	if err := requireStreamFiles(CmdExtract, fs); err != nil {
		return media.FileStreams{}, err
	}

	scratch, err := os.MkdirTemp("", "vpipe-extract-")
	if err != nil {
		return media.FileStreams{}, services.Wrap(services.ErrExternalTool, CmdExtract, "workspace", "", err)
	}
	defer os.RemoveAll(scratch)

	out := fs.Clone()
	for _, i := range trackIndices(track, count) {
		if streamType == "audio" {
			if err := r.extractOne(ctx, &out.Audios[i].StreamInfo, "a", i, scratch, output, force); err != nil {
				return media.FileStreams{}, err
			}
		} else {
			if err := r.extractOne(ctx, &out.Subtitles[i].StreamInfo, "s", i, scratch, output, force); err != nil {
				return media.FileStreams{}, err
			}
		}
	}
	return out, nil
}

// extractOne demuxes a single stream, infers its language, and writes the
// final file named after that language.
func (r *Runtime) extractOne(ctx context.Context, info *media.StreamInfo, typeFlag string, index int, scratch, output string, force bool) error {
	streamType := "audio"
	if typeFlag == "s" {
		streamType = "subtitle"
	}
	suffix := suffixForCodec(info.CodecName, streamType)
	tempOut := filepath.Join(scratch, fmt.Sprintf("extracted_%d.%s", index, suffix))

	args := []string{
		"-i", info.FilePath,
		"-map", fmt.Sprintf("0:%s:%d", typeFlag, index),
		"-map_metadata", "0",
	}
	if streamType == "subtitle" && isSRTCompatible(info.CodecName) {
		args = append(args, "-c:s", "srt")
	} else {
		args = append(args, "-c", "copy")
	}
	args = append(args, tempOut)

	r.logger.Info("extracting stream",
		logging.String("type", streamType),
		logging.Int("track", index),
		logging.String("source", info.FilePath))
	if err := r.ffmpeg.Run(ctx, CmdExtract, args...); err != nil {
		return err
	}

	var lang string
	if streamType == "subtitle" {
		lang = r.detector.SubtitleLanguage(ctx, info.Language, tempOut, force)
	} else {
		lang = r.detector.AudioLanguage(ctx, info.Language, tempOut, 0, 0, force)
	}

	sourceDir := filepath.Dir(info.FilePath)
	final := resolveOutput(output, sourceDir, fmt.Sprintf("%s_%s.%s", stem(info.FilePath), lang, suffix))

	args = []string{
		"-i", tempOut,
		"-map", "0",
		"-c", "copy",
		"-map_metadata", "0",
		fmt.Sprintf("-metadata:s:%s:0", typeFlag), "language=" + lang,
		final,
	}
	if err := r.ffmpeg.Run(ctx, CmdExtract, args...); err != nil {
		return err
	}

	info.FilePath = final
	info.FFmpegIndex = 0
	info.Language = lang
	return nil
}

// Dissect splits the aggregate into one file per stream, named by original
// absolute stream index. skipVideo leaves the video stream in place, for
// callers that only need audio and subtitle isolation.
func (r *Runtime) Dissect(ctx context.Context, fs media.FileStreams, skipVideo bool, outputDir string) (media.FileStreams, error) {
	source := fs.FilePath()
	if err := requireFile(CmdDissect, source); err != nil {
		return media.FileStreams{}, err
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return media.FileStreams{}, services.Wrap(services.ErrInvalidInput, CmdDissect, "validate",
			fmt.Sprintf("cannot create output directory %s", outputDir), err)
	}

	out := fs.Clone()

	if out.Video != nil && !skipVideo {
		videoPath := filepath.Join(outputDir, fmt.Sprintf("stream_%03d.mkv", out.Video.StreamIndex))
		args := []string{
			"-i", out.Video.FilePath,
			"-map", "0:v:0",
			"-map_metadata", "0",
			"-c", "copy",
			videoPath,
		}
		if err := r.ffmpeg.Run(ctx, CmdDissect, args...); err != nil {
			return media.FileStreams{}, err
		}
		out.Video.FilePath = videoPath
		out.Video.FFmpegIndex = 0
	}

	r.logger.Info("dissecting streams",
		logging.String("source", source),
		logging.Int("audios", len(out.Audios)),
		logging.Int("subtitles", len(out.Subtitles)),
		logging.String("output", outputDir))

	for i := range out.Audios {
		audio := &out.Audios[i]
		audioPath := filepath.Join(outputDir,
			fmt.Sprintf("stream_%03d.%s", audio.StreamIndex, suffixForCodec(audio.CodecName, "audio")))
		args := []string{
			"-i", audio.FilePath,
			"-map", fmt.Sprintf("0:a:%d", audio.FFmpegIndex),
			"-map_metadata", "0",
			"-c", "copy",
			audioPath,
		}
		if err := r.ffmpeg.Run(ctx, CmdDissect, args...); err != nil {
			return media.FileStreams{}, err
		}
		audio.FilePath = audioPath
		audio.FFmpegIndex = 0
	}

	for i := range out.Subtitles {
		sub := &out.Subtitles[i]
		subPath := filepath.Join(outputDir,
			fmt.Sprintf("stream_%03d.%s", sub.StreamIndex, suffixForCodec(sub.CodecName, "subtitle")))
		args := []string{
			"-i", sub.FilePath,
			"-map", fmt.Sprintf("0:s:%d", sub.FFmpegIndex),
			"-map_metadata", "0",
		}
		if isSRTCompatible(sub.CodecName) {
			args = append(args, "-c:s", "srt")
		} else {
			args = append(args, "-c", "copy")
		}
		args = append(args, subPath)
		if err := r.ffmpeg.Run(ctx, CmdDissect, args...); err != nil {
			return media.FileStreams{}, err
		}
		sub.FilePath = subPath
		sub.FFmpegIndex = 0
	}

	return out, nil
}
