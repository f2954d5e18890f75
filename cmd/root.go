package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	workspaceDir string
)

var rootCmd = &cobra.Command{
	Use:   "storycast",
	Short: "Generate, render and publish horror short videos",
	Long: `Storycast writes a horror story or a two-host podcast dialogue with an LLM,
narrates it with edge-tts, renders it over a generated background image,
and optionally uploads the result to YouTube.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "workspace", "w", "", "Workspace directory (defaults to video.workspace_dir)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogger()
	}
}

func Execute() error {
	return rootCmd.Execute()
}

func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}
