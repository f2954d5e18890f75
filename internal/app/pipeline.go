package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storycast/internal/imagegen"
	"storycast/internal/ledger"
	"storycast/internal/publish"
	"storycast/internal/script"
	"storycast/internal/speech"
	"storycast/internal/storage"
	"storycast/internal/workspace"
)

const defaultParallelism = 2

var (
	ErrNoPublisher = errors.New("publishing is not configured")
	ErrNoHistory   = errors.New("publish history is not configured")
	ErrNoArchive   = errors.New("archive is not configured")
)

type Pipeline struct {
	service *Service
}

type GenerateRequest struct {
	Topic string
	Mode  string
	// Voice pins the story narrator gender; empty picks one at random.
	Voice string
}

type GenerateResult struct {
	Mode        script.Mode `json:"mode"`
	Topic       string      `json:"topic"`
	Title       string      `json:"title,omitempty"`
	VoiceGender string      `json:"voice_gender,omitempty"`
	StoryWords  int         `json:"story_words,omitempty"`
	TotalTurns  int         `json:"total_turns,omitempty"`
	TotalWords  int         `json:"total_words,omitempty"`
}

type RenderResult struct {
	VideoPath       string  `json:"-"`
	VideoURL        string  `json:"video_url"`
	Duration        float64 `json:"duration"`
	ArchiveLocation string  `json:"archive_location,omitempty"`
}

func NewPipeline(service *Service) *Pipeline {
	return &Pipeline{service: service}
}

// Generate writes the narration audio, background image and metadata record
// for topic into ws.
func (pipeline *Pipeline) Generate(ctx context.Context, ws *workspace.Workspace, req GenerateRequest) (*GenerateResult, error) {
	cfg := pipeline.service.Config()

	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		topic = cfg.Content.DefaultTopic
	}
	modeName := req.Mode
	if modeName == "" {
		modeName = cfg.Content.Mode
	}
	mode, err := script.ParseMode(modeName)
	if err != nil {
		return nil, err
	}
	var narrator speech.Gender
	if req.Voice != "" {
		if narrator, err = speech.ParseGender(req.Voice); err != nil {
			return nil, err
		}
	}

	slog.Info("Generating script...", "topic", topic, "mode", mode)
	generated, err := pipeline.generator(mode).Generate(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("generate script: %w", err)
	}

	result := &GenerateResult{Mode: mode, Topic: topic}

	slog.Info("Generating audio...", "mode", mode)
	switch s := generated.(type) {
	case *script.Story:
		gender, err := pipeline.narrateStory(ctx, ws, s, narrator)
		if err != nil {
			return nil, err
		}
		result.VoiceGender = string(gender)
		result.StoryWords = s.Words()
		result.Title = s.Title
	case *script.Dialogue:
		if err := pipeline.narrateDialogue(ctx, ws, s); err != nil {
			return nil, err
		}
		result.TotalTurns = s.TotalTurns()
		result.TotalWords = s.TotalWords()
	default:
		return nil, fmt.Errorf("unsupported script type %T", generated)
	}

	slog.Info("Generating background image...")
	if err := pipeline.generateBackground(ctx, ws, topic); err != nil {
		return nil, err
	}

	title, err := pipeline.writeMetadata(ctx, ws, generated, topic)
	if err != nil {
		return nil, err
	}
	if result.Title == "" {
		result.Title = title
	}

	slog.Info("Generation complete", "mode", mode, "workspace", ws.Dir)
	return result, nil
}

func (pipeline *Pipeline) generator(mode script.Mode) script.Generator {
	if mode == script.ModeStory {
		return pipeline.service.story
	}
	return pipeline.service.dialogue
}

func (pipeline *Pipeline) narrateStory(ctx context.Context, ws *workspace.Workspace, story *script.Story, gender speech.Gender) (speech.Gender, error) {
	svc := pipeline.service
	if gender == "" {
		gender = svc.selector.Choose([]speech.Gender{speech.Male, speech.Female})
	}
	voice := svc.voices.ForGender(gender)

	slog.Info("Synthesizing story", "voice", voice, "words", story.Words())
	if err := svc.tts.Synthesize(ctx, story.Text, voice, ws.AudioPath()); err != nil {
		return "", fmt.Errorf("synthesize story: %w", err)
	}
	return gender, nil
}

// narrateDialogue synthesizes every turn into its own segment file and merges
// them in turn order. Segment names carry the turn index, so the order does
// not depend on which synthesis finishes first.
func (pipeline *Pipeline) narrateDialogue(ctx context.Context, ws *workspace.Workspace, dialogue *script.Dialogue) error {
	svc := pipeline.service
	if err := speech.CheckSegmentCount(len(dialogue.Turns)); err != nil {
		return err
	}
	if err := ws.ClearSegments(); err != nil {
		return err
	}

	type turnJob struct {
		index int
		turn  script.Turn
		voice speech.Voice
	}

	jobs := make([]turnJob, len(dialogue.Turns))
	for i, turn := range dialogue.Turns {
		voice, err := svc.voices.ForSpeaker(turn.Speaker)
		if err != nil {
			return err
		}
		jobs[i] = turnJob{index: i, turn: turn, voice: voice}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan error, len(jobs))
	semaphore := make(chan struct{}, defaultParallelism)

	for _, job := range jobs {
		go func(j turnJob) {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := ctx.Err(); err != nil {
				results <- err
				return
			}

			slog.Info("Synthesizing turn", "turn", j.index+1, "total", len(jobs), "speaker", j.turn.Speaker)
			path := ws.SegmentPath(j.index, j.turn.Speaker)
			if err := svc.tts.Synthesize(ctx, j.turn.Text, j.voice, path); err != nil {
				results <- fmt.Errorf("synthesize turn %d: %w", j.index+1, err)
				return
			}
			results <- nil
		}(job)
	}

	var firstErr error
	for range jobs {
		if err := <-results; err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	if firstErr != nil {
		return firstErr
	}

	slog.Info("Merging audio segments...", "count", len(jobs))
	return svc.merger.Merge(ctx, ws.Dir, ws.SegmentPattern(), ws.AudioPath())
}

func (pipeline *Pipeline) generateBackground(ctx context.Context, ws *workspace.Workspace, topic string) error {
	svc := pipeline.service
	cfg := svc.Config()

	prompt, err := imagegen.BuildPrompt(svc.prompts, topic, imagegen.Format(cfg.Image.Width, cfg.Image.Height))
	if err != nil {
		return err
	}
	img, err := svc.images.Fetch(ctx, prompt, cfg.Image.MaxRetries)
	if err != nil {
		return fmt.Errorf("background image: %w", err)
	}
	return imagegen.Save(ws.ImagePath(), img)
}

// writeMetadata persists the record publish falls back to. Stories carry
// their own; dialogues derive one from the topic. A failed derivation leaves
// no record so publish derives again instead of reusing a stale one.
func (pipeline *Pipeline) writeMetadata(ctx context.Context, ws *workspace.Workspace, generated script.Script, topic string) (string, error) {
	var record workspace.Metadata

	if story, ok := generated.(*script.Story); ok {
		record = workspace.Metadata{
			Title:           story.Title,
			Description:     story.Description,
			ThumbnailPrompt: story.ThumbnailPrompt,
		}
	} else {
		deriver := pipeline.service.metadata
		if deriver == nil {
			return "", removeStale(ws.MetadataPath())
		}
		derived, err := deriver.Derive(ctx, topic)
		if err != nil {
			slog.Warn("Metadata derivation failed, publish will retry", "error", err)
			return "", removeStale(ws.MetadataPath())
		}
		record = workspace.Metadata{
			Title:           derived.Title,
			Description:     derived.Description,
			ThumbnailPrompt: derived.ThumbnailPrompt,
		}
	}

	if err := ws.WriteMetadata(record); err != nil {
		return "", err
	}
	return record.Title, nil
}

func removeStale(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale metadata: %w", err)
	}
	return nil
}

// Render muxes the generated image and audio into the workspace video and
// archives a copy when an archive is configured.
func (pipeline *Pipeline) Render(ctx context.Context, ws *workspace.Workspace) (*RenderResult, error) {
	svc := pipeline.service

	artifact, err := svc.composer.Compose(ctx, ws.ImagePath(), ws.AudioPath(), ws.VideoPath())
	if err != nil {
		return nil, err
	}

	result := &RenderResult{
		VideoPath: artifact.Path,
		VideoURL:  "/outputs/" + filepath.Base(artifact.Path),
		Duration:  artifact.Duration,
	}

	if svc.archive != nil {
		name := storage.ArchiveName(time.Now(), artifact.Path)
		location, err := svc.archive.Store(ctx, artifact.Path, name)
		if err != nil {
			slog.Warn("Failed to archive video", "error", err)
		} else {
			slog.Info("Video archived", "location", location)
			result.ArchiveLocation = location
		}
	}

	return result, nil
}

func (pipeline *Pipeline) Publish(ctx context.Context, ws *workspace.Workspace, req publish.Request) (*publish.Result, error) {
	publisher := pipeline.service.publisher
	if publisher == nil {
		return nil, ErrNoPublisher
	}
	return publisher.Publish(ctx, ws, req)
}

func (pipeline *Pipeline) History(ctx context.Context, limit int) ([]ledger.PublishedVideo, error) {
	history := pipeline.service.history
	if history == nil {
		return nil, ErrNoHistory
	}
	return history.List(ctx, limit)
}

func (pipeline *Pipeline) Artifacts(ctx context.Context) ([]storage.Artifact, error) {
	archive := pipeline.service.archive
	if archive == nil {
		return nil, ErrNoArchive
	}
	return archive.List(ctx)
}
