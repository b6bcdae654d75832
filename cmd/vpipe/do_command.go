package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"vpipe/internal/fileutil"
	"vpipe/internal/pipeline"
)

func newDoCommand(ctx *commandContext) *cobra.Command {
	var output string
	var force bool
	var translationMode string
	var track int

	cmd := &cobra.Command{
		Use:   "do <path> <action>...",
		Short: "Run an action chain over a media file or directory",
		Long: `Do executes an ordered chain of post-processing actions. Actions take
the form name or name=arg,arg:

  append                 union all referenced streams into one mkv
  atempo[=from[,to]]     retime audio for a frame-rate change
  atempo-with=factor     apply a fixed tempo multiplier
  atempo-video=rate      change the video frame rate
  delay=seconds          pad audio with leading silence
  hasten=seconds         trim audio from the start
  extract[=type[,N]]     pull audio or subtitle streams into own files
  dissect                split every stream into its own file
  inspect                detect and stamp stream languages
  reencode[=quality]     re-encode video (1080p, 2160p)
  merge=path             merge with a second file's audio and subtitles
  generate-subs[=lang]   transcribe audio into srt subtitles
  translate=to[,from]    translate subtitle text

Repeating an action name replaces the earlier occurrence; the last one
wins. Directories run every contained media file through the same chain.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensure()
			if err != nil {
				return err
			}
			actions, err := pipeline.ParseActions(args[1:])
			if err != nil {
				return err
			}
			rt, err := pipeline.NewRuntime(cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			opts := pipeline.DefaultOptions()
			opts.ForceDetection = force
			opts.TranslationMode = translationMode
			opts.Track = track

			path := args[0]
			if fileutil.IsDir(path) {
				return runBatch(cmd, rt, path, actions, output, opts)
			}
			result, err := rt.Run(cmd.Context(), path, actions, output, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, artifact := range result.Outputs {
				fmt.Fprintln(out, artifact)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file or directory (default: alongside the input)")
	cmd.Flags().BoolVar(&force, "force-detection", false, "Re-detect languages even when streams are tagged")
	cmd.Flags().StringVar(&translationMode, "translation-mode", "", "Translation backend: local or google")
	cmd.Flags().IntVar(&track, "track", pipeline.AllTracks, "Restrict track-based actions to one stream index")
	return cmd
}

func runBatch(cmd *cobra.Command, rt *pipeline.Runtime, dir string, actions []pipeline.Action, output string, opts pipeline.Options) error {
	results, err := rt.RunBatch(cmd.Context(), dir, actions, output, opts)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(results))
	failures := 0
	for _, item := range results {
		status := "ok"
		detail := ""
		if item.Err != nil {
			failures++
			status = "failed"
			detail = item.Err.Error()
		} else if len(item.Result.Outputs) > 0 {
			detail = filepath.Base(item.Result.Outputs[0])
		}
		rows = append(rows, []string{
			filepath.Base(item.Result.Source),
			status,
			item.Result.Elapsed.Round(time.Millisecond).String(),
			detail,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"File", "Status", "Elapsed", "Result"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	if failures > 0 {
		return fmt.Errorf("%d of %d files failed", failures, len(results))
	}
	return nil
}
