package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storycast/internal/ffmpeg"
	"storycast/internal/imagegen"
	"storycast/internal/ledger"
	"storycast/internal/llm"
	"storycast/internal/llm/gemini"
	"storycast/internal/llm/groq"
	"storycast/internal/publish"
	"storycast/internal/script"
	"storycast/internal/speech"
	"storycast/internal/storage"
	"storycast/internal/video"
	"storycast/pkg/config"
	"storycast/pkg/prompts"
)

const (
	engineEdgeTTS = "edge-tts"
	engineSilent  = "silent"
)

type BuildResult struct {
	Service *Service
	closers []func() error
}

// Close releases the ledger database and the storage client.
func (r *BuildResult) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func BuildService(ctx context.Context, cfg *config.Config) (*BuildResult, error) {
	p, err := prompts.Load()
	if err != nil {
		return nil, err
	}

	scriptLLM, metadataLLM, err := buildCompleters(ctx, cfg)
	if err != nil {
		return nil, err
	}

	scriptOpts := script.Options{
		MaxTokens:   cfg.Content.MaxTokens,
		Temperature: cfg.Content.Temperature,
		Attempts:    cfg.Content.Attempts,
	}
	storyOpts := scriptOpts
	storyOpts.MinWords = cfg.Content.StoryMinWords
	storyOpts.MaxWords = cfg.Content.StoryMaxWords
	dialogueOpts := scriptOpts
	dialogueOpts.MinWords = cfg.Content.DialogueMinWords
	dialogueOpts.MaxWords = cfg.Content.DialogueMaxWords

	metadataGen := script.NewMetadataGenerator(metadataLLM, p, scriptOpts)

	tts, err := buildSynthesizer(cfg)
	if err != nil {
		return nil, err
	}

	runner := ffmpeg.NewRunner(cfg.Video.FFmpegPath, cfg.Video.FFprobePath)

	images := imagegen.NewClient(imagegen.Options{
		BaseURL: cfg.Image.BaseURL,
		Model:   cfg.Image.Model,
		Width:   cfg.Image.Width,
		Height:  cfg.Image.Height,
		Backoff: time.Duration(cfg.Image.BackoffSeconds) * time.Second,
	})

	result := &BuildResult{}
	opts := ServiceOptions{
		Config:   cfg,
		Prompts:  p,
		Story:    script.NewStoryGenerator(scriptLLM, p, storyOpts),
		Dialogue: script.NewDialogueGenerator(scriptLLM, p, dialogueOpts),
		Metadata: metadataGen,
		TTS:      tts,
		Voices: speech.Voices{
			Male:   speech.Voice(cfg.Voices.Male),
			Female: speech.Voice(cfg.Voices.Female),
			AI1:    speech.Voice(cfg.Voices.AI1),
			AI2:    speech.Voice(cfg.Voices.AI2),
		},
		Selector: speech.RandomSelector{},
		Images:   images,
		Merger:   speech.NewMerger(runner),
		Composer: video.NewComposer(runner, cfg.Video.Resolution),
	}

	archive, closeArchive, err := buildArchive(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if archive != nil {
		opts.Archive = archive
	}
	if closeArchive != nil {
		result.closers = append(result.closers, closeArchive)
	}

	var recorder publish.Recorder
	if cfg.Ledger.Enabled {
		db, err := ledger.Open(cfg.Ledger.Path)
		if err != nil {
			_ = result.Close()
			return nil, err
		}
		result.closers = append(result.closers, db.Close)
		opts.History = db
		recorder = db
	}

	if cfg.YouTubeClientID != "" && cfg.YouTubeClientSecret != "" {
		oauthConfig := publish.NewOAuthConfig(cfg.YouTubeClientID, cfg.YouTubeClientSecret, "")
		auth := publish.NewOAuthAuthenticator(
			oauthConfig,
			publish.NewFileStore(cfg.YouTubeTokenPath),
			publish.NewLocalFlow(oauthConfig, ""),
		)

		var thumbnails publish.ThumbnailRenderer
		if cfg.YouTube.Thumbnails {
			thumbnails = &thumbnailRenderer{
				images:  images.WithSize(thumbnailWidth, thumbnailHeight),
				prompts: p,
				retries: cfg.Image.MaxRetries,
			}
		}

		privacy, err := publish.ParsePrivacy(cfg.YouTube.PrivacyStatus)
		if err != nil {
			_ = result.Close()
			return nil, fmt.Errorf("youtube.privacy_status: %w", err)
		}

		opts.Publisher = publish.NewOrchestrator(publish.Options{
			Auth:        auth,
			NewUploader: publish.YouTubeFactory(),
			Deriver:     metadataGen,
			Thumbnails:  thumbnails,
			Ledger:      recorder,
			Defaults: publish.Defaults{
				Topic:       cfg.Content.DefaultTopic,
				Tags:        cfg.YouTube.DefaultTags,
				Privacy:     privacy,
				CategoryID:  cfg.YouTube.CategoryID,
				TitleSuffix: cfg.YouTube.TitleSuffix,
				Disclaimer:  cfg.YouTube.Disclaimer,
			},
		})
	} else {
		slog.Debug("YouTube credentials not configured, publishing disabled")
	}

	result.Service = NewService(opts)
	return result, nil
}

// buildCompleters returns the script model and the metadata model.
func buildCompleters(ctx context.Context, cfg *config.Config) (llm.Completer, llm.Completer, error) {
	switch cfg.LLM.Provider {
	case "groq":
		client, err := groq.NewClient(cfg.GroqAPIKey, cfg.Groq.Model)
		if err != nil {
			return nil, nil, fmt.Errorf("groq client: %w", err)
		}
		return client, client.WithModel(cfg.Groq.MetadataModel), nil
	case "gemini":
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:   cfg.GeminiAPIKey,
			Project:  cfg.GCPProject,
			Location: cfg.Gemini.Location,
			Model:    cfg.Gemini.Model,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func buildSynthesizer(cfg *config.Config) (speech.Synthesizer, error) {
	switch cfg.Voices.Engine {
	case engineEdgeTTS:
		return speech.NewEdgeTTS(speech.EdgeTTSOptions{
			Command: cfg.Voices.Command,
			Rate:    cfg.Voices.Rate,
			Pitch:   cfg.Voices.Pitch,
		}), nil
	case engineSilent:
		return speech.NewSilent(0), nil
	default:
		return nil, fmt.Errorf("unknown voices.engine %q", cfg.Voices.Engine)
	}
}

// buildArchive prefers the GCS mirror and falls back to a local directory.
func buildArchive(ctx context.Context, cfg *config.Config) (storage.ArtifactStore, func() error, error) {
	if cfg.GCS.Enabled && cfg.GCSBucket != "" {
		store, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCS.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	if cfg.GCS.Enabled {
		slog.Warn("gcs.enabled is set but GCS_BUCKET is empty")
	}
	if cfg.Video.ArchiveDir != "" {
		return storage.NewLocalStore(cfg.Video.ArchiveDir), nil, nil
	}
	return nil, nil, nil
}
