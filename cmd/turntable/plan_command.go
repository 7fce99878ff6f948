package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"turntable/internal/config"
	"turntable/internal/media/ffprobe"
	"turntable/internal/render"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var profileFlag string

	cmd := &cobra.Command{
		Use:   "plan <audio-file>",
		Short: "Show the chunk plan for an audio file without rendering",
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

			profile, err := render.ResolveProfile(cfg, profileFlag)
			if err != nil {
				return err
			}

			result, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary(), path)
			if err != nil {
				return err
			}
			duration, err := result.Duration()
			if err != nil {
				return err
			}

			chunks, err := render.Plan(duration, profile)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(chunks))
			for _, chunk := range chunks {
				rows = append(rows, []string{
					fmt.Sprintf("%d", chunk.Index),
					fmt.Sprintf("%d", chunk.StartSeconds),
					fmt.Sprintf("%.2f", chunk.DurationSeconds),
					profile.HardTimeout(chunk.Duration()).String(),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Track: %.2fs, profile %s, %d chunk(s)\n", duration, profile.Name, len(chunks))
			fmt.Fprintln(out, renderTable(
				[]string{"Chunk", "Start (s)", "Duration (s)", "Hard Timeout"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&profileFlag, "profile", "p", "", "Render profile (fast, quality)")
	return cmd
}
