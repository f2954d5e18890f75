// Package publish uploads a rendered video with its metadata to YouTube.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"storycast/internal/ledger"
	"storycast/internal/script"
	"storycast/internal/workspace"
)

var ErrMissingVideo = errors.New("video not found")

type State int

const (
	NotAuthenticated State = iota
	Authenticated
	Uploading
	Published
	Failed
)

func (s State) String() string {
	switch s {
	case NotAuthenticated:
		return "not_authenticated"
	case Authenticated:
		return "authenticated"
	case Uploading:
		return "uploading"
	case Published:
		return "published"
	default:
		return "failed"
	}
}

type MetadataDeriver interface {
	Derive(ctx context.Context, topic string) (*script.Metadata, error)
}

// ThumbnailRenderer writes an image for prompt to path.
type ThumbnailRenderer interface {
	Render(ctx context.Context, prompt, path string) error
}

type Recorder interface {
	Record(ctx context.Context, v *ledger.PublishedVideo) error
}

type Defaults struct {
	Topic       string
	Tags        []string
	Privacy     Privacy
	CategoryID  string
	TitleSuffix string
	Disclaimer  string
}

type Options struct {
	Auth        Authenticator
	NewUploader UploaderFactory
	Deriver     MetadataDeriver
	// Thumbnails and Ledger are optional.
	Thumbnails ThumbnailRenderer
	Ledger     Recorder
	Defaults   Defaults
}

type Request struct {
	Topic         string
	Title         string
	Description   string
	Tags          []string
	PrivacyStatus string
}

type Result struct {
	VideoID       string `json:"video_id"`
	URL           string `json:"youtube_url"`
	Title         string `json:"title"`
	PrivacyStatus string `json:"privacy_status"`
	ThumbnailSet  bool   `json:"thumbnail_set"`
}

type Orchestrator struct {
	opts Options

	mu    sync.Mutex
	state State
}

func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Defaults.Privacy == "" {
		opts.Defaults.Privacy = Public
	}
	return &Orchestrator{opts: opts}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	from := o.state
	o.state = s
	o.mu.Unlock()
	slog.Debug("Publish state", "from", from, "to", s)
}

func (o *Orchestrator) fail(err error) error {
	o.setState(Failed)
	return err
}

// Publish uploads the workspace video. Title and description come from req,
// then the stored metadata record, then a derivation from the topic.
func (o *Orchestrator) Publish(ctx context.Context, ws *workspace.Workspace, req Request) (*Result, error) {
	o.setState(NotAuthenticated)

	videoPath := ws.VideoPath()
	if !workspace.Exists(videoPath) {
		return nil, o.fail(ErrMissingVideo)
	}

	meta, thumbnailPrompt, err := o.resolveMetadata(ctx, ws, req)
	if err != nil {
		return nil, o.fail(err)
	}

	client, err := o.opts.Auth.Authenticate(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotAuthenticated) {
			err = fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
		}
		return nil, o.fail(err)
	}
	o.setState(Authenticated)

	uploader, err := o.opts.NewUploader(ctx, client)
	if err != nil {
		return nil, o.fail(fmt.Errorf("%w: %w", ErrUploadFailed, err))
	}

	o.setState(Uploading)
	slog.Info("Uploading video...", "title", meta.Title, "privacy", meta.PrivacyStatus)
	uploaded, err := uploader.Upload(ctx, videoPath, *meta)
	if err != nil {
		return nil, o.fail(err)
	}
	o.setState(Published)
	slog.Info("Video published", "url", uploaded.URL)

	result := &Result{
		VideoID:       uploaded.VideoID,
		URL:           uploaded.URL,
		Title:         meta.Title,
		PrivacyStatus: string(meta.PrivacyStatus),
	}
	result.ThumbnailSet = o.setThumbnail(ctx, uploader, ws, uploaded.VideoID, thumbnailPrompt)
	o.record(ctx, result, req.Topic)

	return result, nil
}

func (o *Orchestrator) resolveMetadata(ctx context.Context, ws *workspace.Workspace, req Request) (*Metadata, string, error) {
	defaults := o.opts.Defaults

	privacy := defaults.Privacy
	if req.PrivacyStatus != "" {
		p, err := ParsePrivacy(req.PrivacyStatus)
		if err != nil {
			return nil, "", err
		}
		privacy = p
	}

	tags := req.Tags
	if len(tags) == 0 {
		tags = defaults.Tags
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	var thumbnailPrompt string

	stored, err := ws.ReadMetadata()
	switch {
	case err == nil:
		title = firstNonEmpty(title, stored.Title)
		description = firstNonEmpty(description, stored.Description)
		thumbnailPrompt = stored.ThumbnailPrompt
	case errors.Is(err, workspace.ErrNoMetadata):
	default:
		slog.Warn("Stored metadata unreadable", "error", err)
	}

	if title == "" || description == "" {
		topic := firstNonEmpty(req.Topic, defaults.Topic)
		if o.opts.Deriver == nil {
			return nil, "", fmt.Errorf("no metadata available for topic %q", topic)
		}
		slog.Info("Deriving metadata...", "topic", topic)
		derived, err := o.opts.Deriver.Derive(ctx, topic)
		if err != nil {
			return nil, "", fmt.Errorf("derive metadata: %w", err)
		}
		title = firstNonEmpty(title, derived.Title)
		description = firstNonEmpty(description, derived.Description)
		thumbnailPrompt = firstNonEmpty(thumbnailPrompt, derived.ThumbnailPrompt)
	}

	return &Metadata{
		Title:         ClampTitle(title, defaults.TitleSuffix),
		Description:   PrepareDescription(description, defaults.Disclaimer),
		Tags:          tags,
		CategoryID:    defaults.CategoryID,
		PrivacyStatus: privacy,
	}, thumbnailPrompt, nil
}

// setThumbnail never fails the publish; the video is already live.
func (o *Orchestrator) setThumbnail(ctx context.Context, uploader Uploader, ws *workspace.Workspace, videoID, prompt string) bool {
	if o.opts.Thumbnails == nil || strings.TrimSpace(prompt) == "" {
		return false
	}

	path := ws.ThumbnailPath()
	if err := o.opts.Thumbnails.Render(ctx, prompt, path); err != nil {
		slog.Warn("Thumbnail generation failed", "error", err)
		return false
	}
	if err := uploader.SetThumbnail(ctx, videoID, path); err != nil {
		slog.Warn("Thumbnail upload failed", "video_id", videoID, "error", err)
		return false
	}
	return true
}

func (o *Orchestrator) record(ctx context.Context, result *Result, topic string) {
	if o.opts.Ledger == nil {
		return
	}
	err := o.opts.Ledger.Record(ctx, &ledger.PublishedVideo{
		VideoID:       result.VideoID,
		URL:           result.URL,
		Title:         result.Title,
		PrivacyStatus: result.PrivacyStatus,
		Topic:         topic,
	})
	if err != nil {
		slog.Warn("Failed to record published video", "error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
