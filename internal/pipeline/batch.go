package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"vpipe/internal/logging"
	"vpipe/internal/services"
)

// mediaExtensions are the container suffixes batch runs pick up from a
// directory. Anything else is skipped silently.
var mediaExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".m4v": {}, ".avi": {}, ".mov": {},
	".mka": {}, ".m4a": {}, ".mp3": {}, ".flac": {}, ".wav": {},
	".srt": {}, ".ts": {}, ".webm": {},
}

// BatchResult pairs one input file with its run outcome.
type BatchResult struct {
	Result RunResult
	Err    error
}

// RunBatch applies the same action chain to every media file directly inside
// dir. Files run concurrently on a bounded worker pool; one file failing
// does not stop the others. Results come back ordered by source path.
func (r *Runtime) RunBatch(ctx context.Context, dir string, actions []Action, output string, opts Options) ([]BatchResult, error) {
	sources, err := listMediaFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, services.Wrap(services.ErrInvalidInput, "batch", "scan",
			"no media files in "+dir, nil)
	}

	workers := r.cfg.Pipeline.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(sources) {
		workers = len(sources)
	}
	r.logger.Info("batch starting",
		logging.String("dir", dir),
		logging.Int("files", len(sources)),
		logging.Int("workers", workers))

	jobs := make(chan string)
	results := make([]BatchResult, len(sources))
	index := make(map[string]int, len(sources))
	for i, source := range sources {
		index[source] = i
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for source := range jobs {
				result, err := r.Run(ctx, source, actions, output, opts)
				if err != nil {
					result.Source = source
				}
				results[index[source]] = BatchResult{Result: result, Err: err}
			}
		}()
	}

	for _, source := range sources {
		select {
		case jobs <- source:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	failures := 0
	for _, result := range results {
		if result.Err != nil {
			failures++
			r.logger.Error("batch item failed",
				logging.String("source", result.Result.Source),
				logging.Error(result.Err))
		}
	}
	r.logger.Info("batch finished",
		logging.Int("files", len(sources)),
		logging.Int("failed", failures))
	return results, nil
}

func listMediaFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidInput, "batch", "scan", dir, err)
	}
	var sources []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := mediaExtensions[ext]; !ok {
			continue
		}
		sources = append(sources, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(sources)
	return sources, nil
}
