package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vpipe/internal/fileutil"
	"vpipe/internal/logging"
	"vpipe/internal/media"
	"vpipe/internal/services"
)

// RunResult summarizes one file's trip through the pipeline.
type RunResult struct {
	Source  string
	Outputs []string
	Streams media.FileStreams
	Elapsed time.Duration
}

// Run executes an action chain over one input file. Intermediate files land
// in a per-run workspace that is removed on every exit path; only the final
// step's artifacts move to the output location.
func (r *Runtime) Run(ctx context.Context, path string, actions []Action, output string, opts Options) (RunResult, error) {
	started := time.Now()
	if err := requireFile("run", path); err != nil {
		return RunResult{}, err
	}
	if len(actions) == 0 {
		return RunResult{}, services.Wrap(services.ErrInvalidInput, "run", "validate",
			"no actions given", nil)
	}

	ws, err := NewWorkspace()
	if err != nil {
		return RunResult{}, services.Wrap(services.ErrExternalTool, "run", "workspace", "", err)
	}
	defer func() {
		if err := ws.Remove(); err != nil {
			r.logger.Warn("workspace cleanup failed",
				logging.String("root", ws.Root()), logging.Error(err))
		}
	}()

	fs, err := r.prober.Probe(ctx, path)
	if err != nil {
		return RunResult{}, err
	}

	r.logger.Info("pipeline run starting",
		logging.String("run_id", ws.ID()),
		logging.String("source", path),
		logging.Int("actions", len(actions)))

	for i, action := range actions {
		stepDir, err := ws.Subdir(fmt.Sprintf("step_%02d_%s", i+1, action.Name))
		if err != nil {
			return RunResult{}, services.Wrap(services.ErrExternalTool, "run", "workspace", "", err)
		}
		next, err := r.dispatch(ctx, fs, action, stepDir, opts)
		if err != nil {
			return RunResult{}, err
		}
		fs = next
	}

	outputs, fs, err := r.finalize(fs, ws, path, output)
	if err != nil {
		return RunResult{}, err
	}

	result := RunResult{
		Source:  path,
		Outputs: outputs,
		Streams: fs,
		Elapsed: time.Since(started),
	}
	r.logger.Info("pipeline run finished",
		logging.String("run_id", ws.ID()),
		logging.String("source", path),
		logging.Int("outputs", len(outputs)),
		logging.Duration("elapsed", result.Elapsed))
	return result, nil
}

func (r *Runtime) dispatch(ctx context.Context, fs media.FileStreams, action Action, stepDir string, opts Options) (media.FileStreams, error) {
	switch action.Name {
	case CmdAppend:
		return r.Append(ctx, fs, stepDir)
	case CmdAtempo:
		fromRate, toRate := 0.0, media.NTSCRate
		if len(action.Floats) == 2 {
			fromRate, toRate = action.Floats[0], action.Floats[1]
		}
		return r.Atempo(ctx, fs, fromRate, toRate, opts.Track, stepDir)
	case CmdAtempoWith:
		return r.AtempoWith(ctx, fs, action.Floats[0], opts.Track, stepDir)
	case CmdAtempoVideo:
		return r.AtempoVideo(ctx, fs, action.Floats[0], stepDir)
	case CmdDelay:
		return r.Delay(ctx, fs, action.Floats[0], opts.Track, stepDir)
	case CmdHasten:
		return r.Hasten(ctx, fs, action.Floats[0], opts.Track, stepDir)
	case CmdExtract:
		track := action.Ints[0]
		if track == AllTracks && opts.Track != AllTracks {
			track = opts.Track
		}
		return r.Extract(ctx, fs, action.Strs[0], track, stepDir, opts.ForceDetection)
	case CmdDissect:
		return r.Dissect(ctx, fs, false, stepDir)
	case CmdInspect:
		return r.Inspect(ctx, fs, stepDir, opts.ForceDetection)
	case CmdReencode:
		return r.Reencode(ctx, fs, action.Strs[0], stepDir)
	case CmdMerge:
		return r.Merge(ctx, fs, action.Strs[0], stepDir, opts.ForceDetection)
	case CmdGenerateSubs:
		lang := ""
		if len(action.Strs) == 1 {
			lang = action.Strs[0]
		}
		return r.GenerateSubs(ctx, fs, lang, opts.Track, stepDir, opts.ForceDetection)
	case CmdTranslate:
		from := ""
		if len(action.Strs) == 2 {
			from = action.Strs[1]
		}
		return r.TranslateSubs(ctx, fs, action.Strs[0], from, opts.Track, stepDir, opts)
	}
	return media.FileStreams{}, services.Wrap(services.ErrInvalidInput, "run", "dispatch",
		fmt.Sprintf("unknown command %q", action.Name), nil)
}

// finalize moves workspace-resident artifacts of the final step to their
// destination. Files already outside the workspace (an untouched input, or a
// step the caller aimed at an explicit directory) stay where they are.
func (r *Runtime) finalize(fs media.FileStreams, ws *Workspace, source, output string) ([]string, media.FileStreams, error) {
	destDir := output
	switch {
	case strings.TrimSpace(output) == "":
		destDir = filepath.Dir(source)
	case !fileutil.IsDir(output):
		if err := os.MkdirAll(output, 0o755); err != nil {
			return nil, media.FileStreams{}, services.Wrap(services.ErrInvalidInput, "run", "finalize",
				fmt.Sprintf("cannot create output directory %s", output), err)
		}
	}

	moved := map[string]string{}
	var outputs []string
	relocate := func(path string) (string, error) {
		if path == "" || !strings.HasPrefix(path, ws.Root()+string(filepath.Separator)) {
			return path, nil
		}
		if dest, ok := moved[path]; ok {
			return dest, nil
		}
		dest := filepath.Join(destDir, filepath.Base(path))
		if err := fileutil.MoveFile(path, dest); err != nil {
			return "", services.Wrap(services.ErrExternalTool, "run", "finalize", path, err)
		}
		moved[path] = dest
		outputs = append(outputs, dest)
		return dest, nil
	}

	out := fs.Clone()
	if out.Video != nil {
		dest, err := relocate(out.Video.FilePath)
		if err != nil {
			return nil, media.FileStreams{}, err
		}
		out.Video.FilePath = dest
	}
	for i := range out.Audios {
		dest, err := relocate(out.Audios[i].FilePath)
		if err != nil {
			return nil, media.FileStreams{}, err
		}
		out.Audios[i].FilePath = dest
	}
	for i := range out.Subtitles {
		dest, err := relocate(out.Subtitles[i].FilePath)
		if err != nil {
			return nil, media.FileStreams{}, err
		}
		out.Subtitles[i].FilePath = dest
	}
	return outputs, out, nil
}
