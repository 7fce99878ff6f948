package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"turntable/internal/render"
)

func newProfilesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List render profiles with configured overrides applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, 2)
			for _, name := range render.ProfileNames() {
				profile, err := render.ResolveProfile(cfg, name)
				if err != nil {
					return err
				}
				marker := ""
				if name == cfg.Render.DefaultProfile {
					marker = " (default)"
				}
				rows = append(rows, []string{
					profile.Name + marker,
					fmt.Sprintf("%dx%d@%d", profile.Width, profile.Height, profile.FPS),
					fmt.Sprintf("%d", profile.CRF),
					profile.Preset,
					profile.AudioBitrate,
					fmt.Sprintf("%ds x%d", profile.TargetChunkSeconds, profile.MaxChunks),
					fmt.Sprintf("%d", profile.Threads),
					fmt.Sprintf("%.1fx/%s stall %s", profile.TimeoutFactor, profile.TimeoutFloor, profile.StallWindow),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Profile", "Video", "CRF", "Preset", "Audio", "Chunking", "Threads", "Supervision"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}
