package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vpipe/internal/language"
	"vpipe/internal/media"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <path>",
		Short: "Show the streams a media file contains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := ctx.ensure()
			if err != nil {
				return err
			}
			prober := media.NewProber(cfg.Tools.FFprobe)
			fs, err := prober.Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var rows [][]string
			if fs.Video != nil {
				rows = append(rows, []string{
					strconv.Itoa(fs.Video.StreamIndex), "video", fs.Video.CodecName,
					"", fmt.Sprintf("%.3f fps", fs.Video.FrameRate),
					formatDuration(fs.Video.DurationSeconds), yesNo(fs.Video.IsHDR()),
				})
			}
			for _, audio := range fs.Audios {
				rows = append(rows, []string{
					strconv.Itoa(audio.StreamIndex), "audio", audio.CodecName,
					language.DisplayName(audio.Language),
					fmt.Sprintf("%dch %dHz", audio.Channels, audio.SampleRate),
					formatDuration(audio.DurationSeconds), "",
				})
			}
			for _, sub := range fs.Subtitles {
				detail := ""
				if sub.Default {
					detail = "default"
				}
				rows = append(rows, []string{
					strconv.Itoa(sub.StreamIndex), "subtitle", sub.CodecName,
					language.DisplayName(sub.Language), detail, "", "",
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Type", "Codec", "Language", "Detail", "Duration", "HDR"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}
