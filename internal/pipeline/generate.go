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
	"vpipe/internal/subtitles"
)

// GenerateSubs transcribes one or all audio tracks into SRT subtitle files.
// lang fixes the spoken language; empty means detect per track, defaulting
// to English when detection comes up empty. Generated subtitles join the
// aggregate so later steps (append, translate) can pick them up.
func (r *Runtime) GenerateSubs(ctx context.Context, fs media.FileStreams, lang string, track int, output string, force bool) (media.FileStreams, error) {
	if err := validateTrack(CmdGenerateSubs, track, len(fs.Audios), "audio"); err != nil {
		return media.FileStreams{}, err
	}
	if err := requireStreamFiles(CmdGenerateSubs, fs); err != nil {
		return media.FileStreams{}, err
	}
	if lang != "" && len(lang) != 3 {
		return media.FileStreams{}, services.Wrap(services.ErrInvalidInput, CmdGenerateSubs, "validate",
			fmt.Sprintf("language %q must be an ISO 639-3 code", lang), nil)
	}

	scratch, err := os.MkdirTemp("", "vpipe-subs-")
	if err != nil {
		return media.FileStreams{}, services.Wrap(services.ErrExternalTool, CmdGenerateSubs, "workspace", "", err)
	}
	defer os.RemoveAll(scratch)

	out := fs.Clone()
	for _, i := range trackIndices(track, len(fs.Audios)) {
		audio := fs.Audios[i]
		spoken := language.Normalize(lang)
		if spoken == language.Unknown {
			spoken = r.detector.AudioLanguage(ctx, audio.Language, audio.FilePath,
				audio.FFmpegIndex, audio.DurationSeconds, force)
		}
		if spoken == language.Unknown {
			r.logger.Warn("language undetermined, transcribing as English",
				logging.String("source", audio.FilePath), logging.Int("track", i))
			spoken = "eng"
		}

		wav := filepath.Join(scratch, fmt.Sprintf("track_%d.wav", i))
		if err := r.transcriber.ExtractAudio(ctx, audio.FilePath, audio.FFmpegIndex, 0, 0, wav); err != nil {
			return media.FileStreams{}, err
		}
		transcript, err := r.transcriber.Transcribe(ctx, wav, spoken, scratch)
		if err != nil {
			return media.FileStreams{}, err
		}

		segments := make([]subtitles.Segment, 0, len(transcript.Segments))
		for _, segment := range transcript.Segments {
			segments = append(segments, subtitles.Segment{
				Start: segment.Start,
				End:   segment.End,
				Text:  segment.Text,
			})
		}

		dest := resolveOutput(output, filepath.Dir(audio.FilePath),
			fmt.Sprintf("%s_%s.srt", stem(audio.FilePath), spoken))
		if err := subtitles.WriteSegments(dest, segments); err != nil {
			return media.FileStreams{}, services.Wrap(services.ErrExternalTool, CmdGenerateSubs, "write", dest, err)
		}
		r.logger.Info("generated subtitles",
			logging.String("source", audio.FilePath),
			logging.Int("track", i),
			logging.String("language", spoken),
			logging.Int("cues", len(segments)),
			logging.String("output", dest))

		out.Subtitles = append(out.Subtitles, media.SubtitleStream{
			StreamInfo: media.StreamInfo{
				CodecName: "subrip",
				FilePath:  dest,
				Language:  spoken,
			},
			Generated: true,
		})
	}
	return out, nil
}
