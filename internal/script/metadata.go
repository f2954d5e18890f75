package script

import (
	"context"
	"fmt"
	"strings"

	"storycast/internal/llm"
	"storycast/internal/structured"
	"storycast/pkg/prompts"
)

type Metadata struct {
	Title           string
	Description     string
	ThumbnailPrompt string
}

// MetadataGenerator derives upload metadata from a topic when no stored
// record is available.
type MetadataGenerator struct {
	completer llm.Completer
	prompts   *prompts.Prompts
	parser    *structured.Parser
	opts      Options
}

func NewMetadataGenerator(completer llm.Completer, p *prompts.Prompts, opts Options) *MetadataGenerator {
	return &MetadataGenerator{
		completer: completer,
		prompts:   p,
		parser:    structured.NewParser(completer, p, opts.MaxTokens),
		opts:      opts,
	}
}

func (g *MetadataGenerator) Derive(ctx context.Context, topic string) (*Metadata, error) {
	prompt, err := g.prompts.RenderMetadata(prompts.MetadataParams{Topic: topic})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	var metadata *Metadata
	err = attempt(ctx, g.opts.attempts(), func(ctx context.Context) error {
		raw, err := g.completer.Complete(ctx, llm.Request{
			System:      g.prompts.System.Metadata,
			Prompt:      prompt,
			Temperature: g.opts.Temperature,
			MaxTokens:   g.opts.MaxTokens,
			JSON:        true,
		})
		if err != nil {
			return fmt.Errorf("complete: %w", err)
		}

		var record structured.MetadataRecord
		if err := g.parser.Parse(ctx, raw, structured.ShapeObject, &record); err != nil {
			return err
		}
		if err := structured.ValidateMetadata(&record); err != nil {
			return err
		}

		metadata = &Metadata{
			Title:           strings.TrimSpace(record.Title),
			Description:     strings.TrimSpace(record.Description),
			ThumbnailPrompt: strings.TrimSpace(record.ThumbnailPrompt),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return metadata, nil
}
