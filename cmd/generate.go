package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"storycast/internal/app"
)

var (
	generateTopic string
	generateMode  string
	generateVoice string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a script and produce narration, background and metadata",
	Long: `Generate asks the LLM for a story or a dialogue about the topic, synthesizes
the narration, fetches a background image and writes the metadata record
into the workspace.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateTopic, "topic", "t", "", "Story topic (defaults to content.default_topic)")
	generateCmd.Flags().StringVarP(&generateMode, "mode", "m", "", "Content mode: story or dialogue (defaults to content.mode)")
	generateCmd.Flags().StringVar(&generateVoice, "voice", "", "Story narrator: male or female (random when empty)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.pipeline.Generate(ctx, s.workspace, app.GenerateRequest{
		Topic: generateTopic,
		Mode:  generateMode,
		Voice: generateVoice,
	})
	if err != nil {
		return err
	}

	slog.Info("Content generated",
		"mode", result.Mode,
		"topic", result.Topic,
		"title", result.Title,
		"workspace", s.workspace.Dir,
	)
	return nil
}
