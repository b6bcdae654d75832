package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"vpipe/internal/fileutil"
	"vpipe/internal/media"
	"vpipe/internal/services"
)

// srtCompatibleCodecs are subtitle codecs ffmpeg can transcode to SRT.
var srtCompatibleCodecs = map[string]struct{}{
	"mov_text": {},
	"subrip":   {},
}

func isSRTCompatible(codec string) bool {
	_, ok := srtCompatibleCodecs[strings.ToLower(strings.TrimSpace(codec))]
	return ok
}

// suffixForCodec picks a file extension for a stream pulled into its own
// file. Unknown codecs get a generic container for their type.
func suffixForCodec(codec, streamType string) string {
	codec = strings.ToLower(strings.TrimSpace(codec))
	if codec == "" {
		if streamType == "audio" {
			return "m4a"
		}
		return "srt"
	}
	switch codec {
	case "mov_text", "subrip":
		return "srt"
	case "ac3":
		return "mka"
	}
	return codec
}

// resolveOutput turns the caller's output request into a concrete file path.
// An existing directory gets defaultName appended; empty means the source
// file's own directory.
func resolveOutput(output, sourceDir, defaultName string) string {
	if strings.TrimSpace(output) == "" {
		return filepath.Join(sourceDir, defaultName)
	}
	if fileutil.IsDir(output) {
		return filepath.Join(output, defaultName)
	}
	return output
}

// stem returns the base name without extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// requireFile fails with ErrInvalidInput when path is not a regular file.
func requireFile(command, path string) error {
	if !fileutil.IsRegularFile(path) {
		return services.Wrap(services.ErrInvalidInput, command, "validate",
			fmt.Sprintf("not a regular file: %s", path), nil)
	}
	return nil
}

// AllTracks selects every stream of the relevant type.
const AllTracks = -1

func validateTrack(command string, track, count int, streamType string) error {
	if count == 0 {
		return services.Wrap(services.ErrInvalidInput, command, "validate",
			fmt.Sprintf("no %s streams in input", streamType), nil)
	}
	if track != AllTracks && (track < 0 || track >= count) {
		return services.Wrap(services.ErrInvalidInput, command, "validate",
			fmt.Sprintf("%s track %d out of range, have %d", streamType, track, count), nil)
	}
	return nil
}

func trackIndices(track, count int) []int {
	if track == AllTracks {
		indices := make([]int, count)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}
	return []int{track}
}

// requireStreamFiles verifies every file backing the aggregate still exists.
func requireStreamFiles(command string, fs media.FileStreams) error {
	seen := map[string]struct{}{}
	check := func(path string) error {
		if path == "" {
			return nil
		}
		if _, ok := seen[path]; ok {
			return nil
		}
		seen[path] = struct{}{}
		return requireFile(command, path)
	}
	if fs.Video != nil {
		if err := check(fs.Video.FilePath); err != nil {
			return err
		}
	}
	for _, audio := range fs.Audios {
		if err := check(audio.FilePath); err != nil {
			return err
		}
	}
	for _, sub := range fs.Subtitles {
		if err := check(sub.FilePath); err != nil {
			return err
		}
	}
	return nil
}
