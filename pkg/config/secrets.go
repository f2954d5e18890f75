package config

import (
	"context"
	"fmt"
	"log/slog"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// resolveSecrets fills API keys left empty by the environment from Secret Manager.
func resolveSecrets(ctx context.Context, cfg *Config) error {
	targets := []struct {
		name  string
		field *string
	}{
		{"GROQ_API_KEY", &cfg.GroqAPIKey},
		{"GEMINI_API_KEY", &cfg.GeminiAPIKey},
		{"YOUTUBE_CLIENT_ID", &cfg.YouTubeClientID},
		{"YOUTUBE_CLIENT_SECRET", &cfg.YouTubeClientSecret},
	}

	var missing bool
	for _, t := range targets {
		if *t.field == "" {
			missing = true
			break
		}
	}
	if !missing {
		return nil
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	for _, t := range targets {
		if *t.field != "" {
			continue
		}
		value, err := accessSecret(ctx, client, cfg.GCPProject, t.name)
		if err != nil {
			slog.Debug("Secret not available", "name", t.name, "error", err)
			continue
		}
		*t.field = value
	}

	return nil
}

func accessSecret(ctx context.Context, client *secretmanager.Client, project, name string) (string, error) {
	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretVersionName(project, name),
	})
	if err != nil {
		return "", fmt.Errorf("access %s: %w", name, err)
	}
	return string(resp.GetPayload().GetData()), nil
}

func secretVersionName(project, name string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", project, name)
}
