package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"storycast/internal/publish"
	"storycast/pkg/config"
)

var (
	authInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	authSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	authErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with external services",
	Long:  `Authenticate with YouTube or other services using credentials from .env`,
}

var authYouTubeCmd = &cobra.Command{
	Use:   "youtube",
	Short: "Authenticate with YouTube (OAuth)",
	Long:  `Complete YouTube OAuth flow using credentials from .env file.`,
	RunE:  runAuthYouTube,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check authentication status for all services",
	Long:  `Verify which services are configured and authenticated.`,
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authYouTubeCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println(authInfoStyle.Render("\nService Authentication Status:\n"))

	if cfg.YouTubeClientID != "" && cfg.YouTubeClientSecret != "" {
		store := publish.NewFileStore(cfg.YouTubeTokenPath)
		token, err := store.Load()
		switch {
		case errors.Is(err, publish.ErrNoCredential):
			fmt.Println(authErrorStyle.Render("✗ YouTube: credentials set, but not authenticated"))
			fmt.Println(authInfoStyle.Render("  Run: storycast auth youtube"))
		case err != nil:
			fmt.Println(authErrorStyle.Render(fmt.Sprintf("✗ YouTube: unreadable token (%v)", err)))
		case store.IsValid(token):
			fmt.Println(authSuccessStyle.Render("✓ YouTube: authenticated"))
		case token.RefreshToken != "":
			fmt.Println(authSuccessStyle.Render("✓ YouTube: token expired, will refresh on upload"))
		default:
			fmt.Println(authErrorStyle.Render("✗ YouTube: token expired"))
			fmt.Println(authInfoStyle.Render("  Run: storycast auth youtube"))
		}
	} else {
		fmt.Println(authErrorStyle.Render("✗ YouTube: missing YOUTUBE_CLIENT_ID or YOUTUBE_CLIENT_SECRET"))
	}

	switch cfg.LLM.Provider {
	case "gemini":
		if cfg.GeminiAPIKey != "" {
			fmt.Println(authSuccessStyle.Render("✓ Gemini: API key configured"))
		} else if cfg.GCPProject != "" {
			fmt.Println(authSuccessStyle.Render("✓ Gemini: using Vertex AI in " + cfg.GCPProject))
		} else {
			fmt.Println(authErrorStyle.Render("✗ Gemini: missing GEMINI_API_KEY or GOOGLE_CLOUD_PROJECT"))
		}
	default:
		if cfg.GroqAPIKey != "" {
			fmt.Println(authSuccessStyle.Render("✓ Groq: API key configured"))
		} else {
			fmt.Println(authErrorStyle.Render("✗ Groq: missing GROQ_API_KEY"))
		}
	}

	switch {
	case cfg.GCS.Enabled && cfg.GCSBucket != "":
		fmt.Println(authSuccessStyle.Render("✓ Cloud Storage: archiving to gs://" + cfg.GCSBucket))
	case cfg.GCS.Enabled:
		fmt.Println(authErrorStyle.Render("✗ Cloud Storage: enabled but GCS_BUCKET is empty"))
	default:
		fmt.Println(authInfoStyle.Render("○ Cloud Storage: not configured (optional)"))
	}

	if cfg.Secrets.Enabled {
		if cfg.GCPProject != "" {
			fmt.Println(authSuccessStyle.Render("✓ Secret Manager: reading from " + cfg.GCPProject))
		} else {
			fmt.Println(authErrorStyle.Render("✗ Secret Manager: missing GOOGLE_CLOUD_PROJECT"))
		}
	} else {
		fmt.Println(authInfoStyle.Render("○ Secret Manager: not configured (optional)"))
	}

	fmt.Println()
	return nil
}

func runAuthYouTube(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.YouTubeClientID == "" || cfg.YouTubeClientSecret == "" {
		return fmt.Errorf("YOUTUBE_CLIENT_ID and YOUTUBE_CLIENT_SECRET must be set in .env")
	}

	return runYouTubeAuth(ctx, cfg.YouTubeClientID, cfg.YouTubeClientSecret, publish.NewFileStore(cfg.YouTubeTokenPath))
}

func runYouTubeAuth(ctx context.Context, clientID, clientSecret string, store *publish.FileStore) error {
	oauthConfig := publish.NewOAuthConfig(clientID, clientSecret, publish.DefaultCallbackAddr)
	flow := publish.NewLocalFlow(oauthConfig, publish.DefaultCallbackAddr)
	flow.Prompt = func(url string) {
		fmt.Println(authInfoStyle.Render("\nOpening browser for YouTube authentication..."))
		fmt.Println(authInfoStyle.Render("If browser doesn't open, visit:\n" + url))
		fmt.Println(authInfoStyle.Render("\nWaiting for authentication..."))
	}

	token, err := flow.Authorize(ctx)
	if err != nil {
		return err
	}

	if err := store.Save(token); err != nil {
		return err
	}

	fmt.Println(authSuccessStyle.Render("✓ YouTube authentication complete"))
	fmt.Println(authSuccessStyle.Render("  Token saved to: " + store.Path()))
	return nil
}
