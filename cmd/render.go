package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the workspace audio and background into a vertical video",
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.pipeline.Render(ctx, s.workspace)
	if err != nil {
		return err
	}

	slog.Info("Video rendered",
		"path", result.VideoPath,
		"duration", result.Duration,
		"archive", result.ArchiveLocation,
	)
	return nil
}
