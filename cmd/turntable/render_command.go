package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"turntable/internal/config"
	"turntable/internal/journal"
	"turntable/internal/pipeline"
	"turntable/internal/preflight"
	"turntable/internal/render"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		outputFlag     string
		titleFlag      string
		profileFlag    string
		backgroundFlag string
		discFlag       string
		skipPreflight  bool
	)

	cmd := &cobra.Command{
		Use:   "render <audio-file>",
		Short: "Render an audio file into a visualizer video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()

			if !skipPreflight {
				if err := preflight.Summarize(preflight.RunAll(cfg)); err != nil {
					return err
				}
			}

			audioPath, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve audio path: %w", err)
			}

			profile, err := render.ResolveProfile(cfg, profileFlag)
			if err != nil {
				return err
			}

			outputPath, err := resolveOutputPath(cfg, audioPath, outputFlag)
			if err != nil {
				return err
			}

			store, err := journal.Open(cfg)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			runner, err := pipeline.New(cfg, logger, pipeline.WithJournal(store))
			if err != nil {
				return err
			}

			req := render.Request{
				AudioPath:      audioPath,
				BackgroundPath: strings.TrimSpace(backgroundFlag),
				DiscPath:       strings.TrimSpace(discFlag),
				OutputPath:     outputPath,
				Title:          strings.TrimSpace(titleFlag),
				Profile:        profile,
			}

			final, err := runner.Render(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s\n", final)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output video path (defaults to <output_dir>/<audio name>.mp4)")
	cmd.Flags().StringVarP(&titleFlag, "title", "t", "", "Title overlay text (defaults to a title derived from the file name)")
	cmd.Flags().StringVarP(&profileFlag, "profile", "p", "", "Render profile (fast, quality)")
	cmd.Flags().StringVar(&backgroundFlag, "background", "", "Background image (defaults to assets.fallback_background)")
	cmd.Flags().StringVar(&discFlag, "disc", "", "Disc artwork image (defaults to assets.disc_image, then the background)")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip environment checks before rendering")

	return cmd
}

func resolveOutputPath(cfg *config.Config, audioPath, outputFlag string) (string, error) {
	output := strings.TrimSpace(outputFlag)
	if output == "" {
		base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
		return filepath.Join(cfg.Paths.OutputDir, base+".mp4"), nil
	}
	expanded, err := config.ExpandPath(output)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}
	if !strings.HasSuffix(strings.ToLower(expanded), ".mp4") {
		expanded += ".mp4"
	}
	return expanded, nil
}
