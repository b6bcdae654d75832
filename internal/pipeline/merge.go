package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"vpipe/internal/language"
	"vpipe/internal/logging"
	"vpipe/internal/media"
	"vpipe/internal/services"
	"vpipe/internal/subtitles"
)

// Merge combines a target file's video with the language-filtered audio and
// subtitle streams of both the target and a second data file. Target streams
// survive when their language is on the target allowlist; data streams when
// on the data allowlist. Duplicate data audio languages collapse to the
// highest-quality track, and a forced data subtitle becomes the default.
func (r *Runtime) Merge(ctx context.Context, target media.FileStreams, dataPath, output string, force bool) (media.FileStreams, error) {
	if target.Video == nil {
		return media.FileStreams{}, services.Wrap(services.ErrInvalidInput, CmdMerge, "validate",
			"merge target must carry a video stream", nil)
	}
	if err := requireStreamFiles(CmdMerge, target); err != nil {
		return media.FileStreams{}, err
	}
	if err := requireFile(CmdMerge, dataPath); err != nil {
		return media.FileStreams{}, err
	}

	data, err := r.prober.Probe(ctx, dataPath)
	if err != nil {
		return media.FileStreams{}, err
	}

	scratch, err := os.MkdirTemp("", "vpipe-merge-")
	if err != nil {
		return media.FileStreams{}, services.Wrap(services.ErrExternalTool, CmdMerge, "workspace", "", err)
	}
	defer os.RemoveAll(scratch)

	targetDis, err := r.Dissect(ctx, target, false, filepath.Join(scratch, "target"))
	if err != nil {
		return media.FileStreams{}, err
	}
	dataDis, err := r.Dissect(ctx, data, true, filepath.Join(scratch, "data"))
	if err != nil {
		return media.FileStreams{}, err
	}

	targetLangs := langSet(r.cfg.Merge.TargetLanguages)
	dataLangs := langSet(r.cfg.Merge.DataLanguages)
	subtitleLangs := unionSet(targetLangs, dataLangs)

	merged := media.FileStreams{Video: targetDis.Video}

	for i := range targetDis.Audios {
		audio := targetDis.Audios[i]
		audio.Language = r.detector.AudioLanguage(ctx, audio.Language, audio.FilePath, 0,
			audio.DurationSeconds, force)
		if inSet(targetLangs, audio.Language) {
			merged.Audios = append(merged.Audios, audio)
		}
	}
	for i := range targetDis.Subtitles {
		sub := targetDis.Subtitles[i]
		sub.Language = r.detector.SubtitleLanguage(ctx, sub.Language, sub.FilePath, force)
		if inSet(subtitleLangs, sub.Language) {
			merged.Subtitles = append(merged.Subtitles, sub)
		}
	}

	// Data file tags are untrusted; detection always runs.
	bestData := map[string]media.AudioStream{}
	var dataOrder []string
	for i := range dataDis.Audios {
		audio := dataDis.Audios[i]
		audio.Language = r.detector.AudioLanguage(ctx, audio.Language, audio.FilePath, 0,
			audio.DurationSeconds, true)
		if !inSet(dataLangs, audio.Language) {
			continue
		}
		current, ok := bestData[audio.Language]
		if !ok {
			dataOrder = append(dataOrder, audio.Language)
			bestData[audio.Language] = audio
			continue
		}
		if audio.QualityScore() > current.QualityScore() {
			bestData[audio.Language] = audio
		}
	}
	for _, lang := range dataOrder {
		merged.Audios = append(merged.Audios, bestData[lang])
	}

	var dataSubs []media.SubtitleStream
	for i := range dataDis.Subtitles {
		sub := dataDis.Subtitles[i]
		sub.Language = r.detector.SubtitleLanguage(ctx, sub.Language, sub.FilePath, true)
		if inSet(dataLangs, sub.Language) {
			dataSubs = append(dataSubs, sub)
		}
	}
	markForced(r, dataSubs, mergeDuration(dataDis, target))
	merged.Subtitles = append(merged.Subtitles, dataSubs...)

	if len(merged.Audios) == 0 {
		return media.FileStreams{}, services.Wrap(services.ErrInvalidInput, CmdMerge, "filter",
			"no audio stream matched the configured languages", nil)
	}

	source := target.FilePath()
	dest := resolveOutput(output, filepath.Dir(source), stem(source)+"_merged.mkv")
	r.logger.Info("merging streams",
		logging.String("target", source),
		logging.String("data", dataPath),
		logging.Int("audios", len(merged.Audios)),
		logging.Int("subtitles", len(merged.Subtitles)),
		logging.String("output", dest))
	return r.Append(ctx, merged, dest)
}

// markForced classifies forced subtitle tracks among the data subtitles and
// promotes them to the default disposition. Only SRT files have countable
// cues; anything else is left alone.
func markForced(r *Runtime, subs []media.SubtitleStream, durationSeconds float64) {
	var candidates []subtitles.Candidate
	var indices []int
	for i, sub := range subs {
		if !strings.EqualFold(filepath.Ext(sub.FilePath), ".srt") {
			continue
		}
		entries, err := subtitles.CountEntries(sub.FilePath)
		if err != nil {
			r.logger.Warn("cannot count subtitle cues",
				logging.String("path", sub.FilePath), logging.Error(err))
			continue
		}
		candidates = append(candidates, subtitles.Candidate{Path: sub.FilePath, Entries: entries})
		indices = append(indices, i)
	}
	if len(candidates) == 0 {
		return
	}
	for i, forced := range r.forced.Forced(candidates, durationSeconds) {
		if forced {
			subs[indices[i]].Default = true
		}
	}
}

// mergeDuration picks the runtime used for forced-subtitle classification:
// the first data audio track, falling back to the target video.
func mergeDuration(dataDis media.FileStreams, target media.FileStreams) float64 {
	if len(dataDis.Audios) > 0 && dataDis.Audios[0].DurationSeconds > 0 {
		return dataDis.Audios[0].DurationSeconds
	}
	if target.Video != nil {
		return target.Video.DurationSeconds
	}
	return 0
}

func langSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if normalized := language.Normalize(code); normalized != language.Unknown {
			set[normalized] = struct{}{}
		}
	}
	return set
}

func unionSet(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

// inSet treats an empty allowlist as allowing everything.
func inSet(set map[string]struct{}, lang string) bool {
	if len(set) == 0 {
		return true
	}
	_, ok := set[language.Normalize(lang)]
	return ok
}
