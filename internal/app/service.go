// Package app wires the generation, render and publish phases together.
package app

import (
	"context"
	"image"

	"storycast/internal/ledger"
	"storycast/internal/publish"
	"storycast/internal/script"
	"storycast/internal/speech"
	"storycast/internal/storage"
	"storycast/internal/video"
	"storycast/internal/workspace"
	"storycast/pkg/config"
	"storycast/pkg/prompts"
)

type ImageFetcher interface {
	Fetch(ctx context.Context, prompt string, maxRetries int) (image.Image, error)
}

type AudioMerger interface {
	Merge(ctx context.Context, dir, pattern, output string) error
}

type VideoComposer interface {
	Compose(ctx context.Context, imagePath, audioPath, outputPath string) (*video.Artifact, error)
}

type Publisher interface {
	Publish(ctx context.Context, ws *workspace.Workspace, req publish.Request) (*publish.Result, error)
}

type History interface {
	List(ctx context.Context, limit int) ([]ledger.PublishedVideo, error)
}

type Service struct {
	cfg       *config.Config
	prompts   *prompts.Prompts
	story     script.Generator
	dialogue  script.Generator
	metadata  publish.MetadataDeriver
	tts       speech.Synthesizer
	voices    speech.Voices
	selector  speech.VoiceSelector
	images    ImageFetcher
	merger    AudioMerger
	composer  VideoComposer
	archive   storage.ArtifactStore
	publisher Publisher
	history   History
}

// ServiceOptions lists the components of a Service. Archive, Publisher and
// History are optional.
type ServiceOptions struct {
	Config    *config.Config
	Prompts   *prompts.Prompts
	Story     script.Generator
	Dialogue  script.Generator
	Metadata  publish.MetadataDeriver
	TTS       speech.Synthesizer
	Voices    speech.Voices
	Selector  speech.VoiceSelector
	Images    ImageFetcher
	Merger    AudioMerger
	Composer  VideoComposer
	Archive   storage.ArtifactStore
	Publisher Publisher
	History   History
}

func NewService(opts ServiceOptions) *Service {
	selector := opts.Selector
	if selector == nil {
		selector = speech.RandomSelector{}
	}
	return &Service{
		cfg:       opts.Config,
		prompts:   opts.Prompts,
		story:     opts.Story,
		dialogue:  opts.Dialogue,
		metadata:  opts.Metadata,
		tts:       opts.TTS,
		voices:    opts.Voices,
		selector:  selector,
		images:    opts.Images,
		merger:    opts.Merger,
		composer:  opts.Composer,
		archive:   opts.Archive,
		publisher: opts.Publisher,
		history:   opts.History,
	}
}

func (s *Service) Config() *config.Config           { return s.cfg }
func (s *Service) Archive() storage.ArtifactStore    { return s.archive }
func (s *Service) Publisher() Publisher              { return s.publisher }
func (s *Service) History() History                  { return s.history }
func (s *Service) Metadata() publish.MetadataDeriver { return s.metadata }
