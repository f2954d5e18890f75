package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"storycast/internal/publish"
)

var (
	publishTitle       string
	publishDescription string
	publishTags        []string
	publishPrivacy     string
	publishTopic       string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the rendered video to YouTube",
	Long: `Publish uploads the workspace video. Title and description come from the
flags, then the stored metadata record, then an LLM derivation from the topic.`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishTitle, "title", "", "Video title")
	publishCmd.Flags().StringVar(&publishDescription, "description", "", "Video description")
	publishCmd.Flags().StringSliceVar(&publishTags, "tag", nil, "Video tag (repeatable)")
	publishCmd.Flags().StringVar(&publishPrivacy, "privacy", "", "Privacy status: public, unlisted or private")
	publishCmd.Flags().StringVarP(&publishTopic, "topic", "t", "", "Topic used when metadata has to be derived")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.pipeline.Publish(ctx, s.workspace, publish.Request{
		Topic:         publishTopic,
		Title:         publishTitle,
		Description:   publishDescription,
		Tags:          publishTags,
		PrivacyStatus: publishPrivacy,
	})
	if err != nil {
		return err
	}

	slog.Info("Video published",
		"id", result.VideoID,
		"url", result.URL,
		"privacy", result.PrivacyStatus,
		"thumbnail", result.ThumbnailSet,
	)
	return nil
}
