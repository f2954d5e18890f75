package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"storycast/internal/publish"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for storycast",
	Long:  `Check external tools, create directories, and write the .env file storycast reads its secrets from.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("🎬 storycast Setup"))

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Checking tools", checkTools},
		{"Creating directories", createDirectories},
		{"Configuring environment", func() error { return configureEnv(cmd.Context()) }},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	return nil
}

func checkTools() error {
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if !commandExists(tool) {
			fmt.Println(warnStyle.Render(fmt.Sprintf("%s not found - install it from https://ffmpeg.org/download.html", tool)))
		}
	}

	if commandExists("edge-tts") {
		fmt.Println(successStyle.Render("✓ edge-tts found"))
		return nil
	}

	if !commandExists("pipx") {
		fmt.Println(warnStyle.Render("edge-tts not found - install it with: pip install edge-tts"))
		fmt.Println(infoStyle.Render("  or set voices.engine: silent in config.yaml"))
		return nil
	}

	var install bool
	if err := huh.NewConfirm().
		Title("edge-tts not found").
		Description("edge-tts synthesizes the narration. Install it with pipx?").
		Affirmative("Yes").
		Negative("No").
		Value(&install).
		Run(); err != nil {
		return err
	}
	if !install {
		return nil
	}

	return runWithSpinner("Installing edge-tts via pipx", func() error {
		return runSetupCmd("pipx", "install", "edge-tts")
	})
}

func createDirectories() error {
	dirs := []string{"outputs", "outputs/archive", "data"}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	fmt.Println(successStyle.Render("✓ Created directories"))
	return nil
}

func configureEnv(ctx context.Context) error {
	if _, err := os.Stat(".env"); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	env := make(map[string]string)

	if err := configureLLMKeys(env); err != nil {
		return err
	}

	if err := configureGCP(ctx, env); err != nil {
		return err
	}

	return writeEnvFile(env)
}

func configureLLMKeys(env map[string]string) error {
	var groqKey, geminiKey string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("GROQ API Key").
				Description("https://console.groq.com/keys").
				Value(&groqKey).
				Validate(required("GROQ API Key")),
			huh.NewInput().
				Title("Gemini API Key (optional)").
				Description("Only needed with llm.provider: gemini - https://aistudio.google.com/apikey").
				Value(&geminiKey),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	env["GROQ_API_KEY"] = strings.TrimSpace(groqKey)
	if key := strings.TrimSpace(geminiKey); key != "" {
		env["GEMINI_API_KEY"] = key
	}
	return nil
}

func configureGCP(ctx context.Context, env map[string]string) error {
	var setupGCP bool
	if err := huh.NewConfirm().
		Title("Setup Google Cloud?").
		Description("Required for YouTube uploads, Secret Manager and the GCS archive").
		Value(&setupGCP).
		Run(); err != nil {
		return err
	}

	if !setupGCP {
		return nil
	}

	if !commandExists("gcloud") {
		fmt.Println(warnStyle.Render("gcloud CLI not found - install from https://cloud.google.com/sdk/docs/install"))
		return nil
	}

	project, err := getOrCreateGCPProject()
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("GCP setup skipped: %v", err)))
		return nil
	}

	env["GOOGLE_CLOUD_PROJECT"] = project

	if err := enableGCPAPIs(project); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("API enablement failed: %v", err)))
	}

	if err := setupYouTubeOAuth(ctx, env); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("YouTube OAuth skipped: %v", err)))
	}

	if err := setupBucket(project, env); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("GCS bucket skipped: %v", err)))
	}

	return nil
}

func getOrCreateGCPProject() (string, error) {
	existing := getActiveProject()

	var choice string
	options := []huh.Option[string]{
		huh.NewOption("Create new project", "new"),
	}

	if existing != "" {
		options = append([]huh.Option[string]{
			huh.NewOption(fmt.Sprintf("Use current: %s", existing), existing),
		}, options...)
	}

	options = append(options, huh.NewOption("Enter project ID manually", "manual"))

	if err := huh.NewSelect[string]().
		Title("Google Cloud Project").
		Options(options...).
		Value(&choice).
		Run(); err != nil {
		return "", err
	}

	switch choice {
	case "new":
		return createGCPProject()
	case "manual":
		var projectID string
		if err := huh.NewInput().
			Title("Project ID").
			Value(&projectID).
			Run(); err != nil {
			return "", err
		}
		return projectID, nil
	default:
		return choice, nil
	}
}

func getActiveProject() string {
	out, err := exec.Command("gcloud", "config", "get-value", "project").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func createGCPProject() (string, error) {
	var projectID string
	if err := huh.NewInput().
		Title("New Project ID").
		Description("Must be globally unique, 6-30 chars, lowercase letters, digits, hyphens").
		Placeholder("storycast-12345").
		Value(&projectID).
		Validate(func(s string) error {
			if len(s) < 6 || len(s) > 30 {
				return fmt.Errorf("must be 6-30 characters")
			}
			return nil
		}).
		Run(); err != nil {
		return "", err
	}

	err := runWithSpinner("Creating project", func() error {
		return runSetupCmd("gcloud", "projects", "create", projectID)
	})
	if err != nil {
		return "", err
	}

	_ = runSetupCmd("gcloud", "config", "set", "project", projectID)

	return projectID, nil
}

func enableGCPAPIs(project string) error {
	apis := []string{
		"youtube.googleapis.com",
		"secretmanager.googleapis.com",
		"storage.googleapis.com",
		"aiplatform.googleapis.com",
	}

	return runWithSpinner("Enabling APIs", func() error {
		args := append([]string{"services", "enable"}, apis...)
		args = append(args, "--project", project)
		return runSetupCmd("gcloud", args...)
	})
}

func setupYouTubeOAuth(ctx context.Context, env map[string]string) error {
	var setup bool
	if err := huh.NewConfirm().
		Title("Setup YouTube OAuth?").
		Description("Required for uploading videos to YouTube").
		Value(&setup).
		Run(); err != nil || !setup {
		return err
	}

	fmt.Println(infoStyle.Render(`
To create OAuth credentials:
1. Go to https://console.cloud.google.com/apis/credentials
2. Click "Create Credentials" → "OAuth client ID"
3. Choose "Desktop app" as application type
4. Copy the Client ID and Client Secret
`))

	var clientID, clientSecret string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("YouTube Client ID").
				Value(&clientID),
			huh.NewInput().
				Title("YouTube Client Secret").
				EchoMode(huh.EchoModePassword).
				Value(&clientSecret),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)

	if clientID != "" {
		env["YOUTUBE_CLIENT_ID"] = clientID
	}
	if clientSecret != "" {
		env["YOUTUBE_CLIENT_SECRET"] = clientSecret
	}

	if clientID != "" && clientSecret != "" {
		var authenticate bool
		if err := huh.NewConfirm().
			Title("Authenticate with YouTube now?").
			Description("Opens browser to complete OAuth flow").
			Value(&authenticate).
			Run(); err != nil {
			return err
		}

		if authenticate {
			store := publish.NewFileStore(youtubeTokenPath)
			if err := runYouTubeAuth(ctx, clientID, clientSecret, store); err != nil {
				fmt.Println(warnStyle.Render(fmt.Sprintf("OAuth flow failed: %v", err)))
				fmt.Println(infoStyle.Render("You can retry later with: storycast auth youtube"))
			}
		}
	}

	return nil
}

func setupBucket(project string, env map[string]string) error {
	var setup bool
	if err := huh.NewConfirm().
		Title("Archive videos to Cloud Storage?").
		Description("Rendered videos are copied to a GCS bucket (optional)").
		Value(&setup).
		Run(); err != nil || !setup {
		return err
	}

	bucket := project + "-storycast"
	if err := huh.NewInput().
		Title("Bucket name").
		Value(&bucket).
		Validate(required("Bucket name")).
		Run(); err != nil {
		return err
	}
	bucket = strings.TrimSpace(bucket)

	err := runWithSpinner("Creating bucket", func() error {
		return runSetupCmd("gcloud", "storage", "buckets", "create", "gs://"+bucket, "--project", project)
	})
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Bucket creation failed, using it anyway: %v", err)))
	}

	env["GCS_BUCKET"] = bucket
	fmt.Println(infoStyle.Render("Set gcs.enabled: true in config.yaml to archive renders"))
	return nil
}

func writeEnvFile(env map[string]string) error {
	f, err := os.Create(".env")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	order := []string{
		"GOOGLE_CLOUD_PROJECT",
		"GROQ_API_KEY",
		"GEMINI_API_KEY",
		"YOUTUBE_CLIENT_ID",
		"YOUTUBE_CLIENT_SECRET",
		"GCS_BUCKET",
	}

	for _, key := range order {
		if val, ok := env[key]; ok && val != "" {
			_, _ = fmt.Fprintf(f, "%s=%s\n", key, val)
		}
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	printNextSteps()
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Run: storycast generate --topic \"your topic\"")
	fmt.Println("  2. Run: storycast render")
	fmt.Println("  3. Run: storycast publish, or storycast serve for the HTTP API")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runSetupCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", err, stderr.String())
	}
	return nil
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}

const youtubeTokenPath = "./youtube_token.json"
