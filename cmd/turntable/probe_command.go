package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"turntable/internal/config"
	"turntable/internal/media/ffprobe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <audio-file>",
		Short: "Inspect an audio file with ffprobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve audio path: %w", err)
			}

			result, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary(), path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Container", result.Format.FormatName},
				{"Streams", fmt.Sprintf("%d (%d audio)", result.Format.NBStreams, result.AudioStreamCount())},
			}
			if seconds, err := result.Duration(); err == nil {
				rows = append(rows, []string{"Duration", fmt.Sprintf("%.2fs", seconds)})
			} else {
				rows = append(rows, []string{"Duration", "unavailable"})
			}
			if size := result.SizeBytes(); size > 0 {
				rows = append(rows, []string{"Size", fmt.Sprintf("%d bytes", size)})
			}
			if rate := result.BitRate(); rate > 0 {
				rows = append(rows, []string{"Bitrate", fmt.Sprintf("%d b/s", rate)})
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
}
