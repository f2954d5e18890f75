package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storycast/internal/llm"
	"storycast/internal/structured"
	"storycast/pkg/httputil"
	"storycast/pkg/prompts"
)

const defaultAttempts = 2

// Options bound one generation call. MinWords and MaxWords only shape the
// prompt; output length is never enforced.
type Options struct {
	MinWords    int
	MaxWords    int
	MaxTokens   int
	Temperature float64
	Attempts    int
}

func (o Options) attempts() int {
	if o.Attempts <= 0 {
		return defaultAttempts
	}
	return o.Attempts
}

type StoryGenerator struct {
	completer llm.Completer
	prompts   *prompts.Prompts
	parser    *structured.Parser
	opts      Options
}

func NewStoryGenerator(completer llm.Completer, p *prompts.Prompts, opts Options) *StoryGenerator {
	return &StoryGenerator{
		completer: completer,
		prompts:   p,
		parser:    structured.NewParser(completer, p, opts.MaxTokens),
		opts:      opts,
	}
}

func (g *StoryGenerator) Generate(ctx context.Context, topic string) (Script, error) {
	prompt, err := g.prompts.RenderStory(prompts.StoryParams{
		Topic:    topic,
		MinWords: g.opts.MinWords,
		MaxWords: g.opts.MaxWords,
	})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	var story *Story
	err = attempt(ctx, g.opts.attempts(), func(ctx context.Context) error {
		raw, err := g.completer.Complete(ctx, llm.Request{
			System:      g.prompts.System.Story,
			Prompt:      prompt,
			Temperature: g.opts.Temperature,
			MaxTokens:   g.opts.MaxTokens,
			JSON:        true,
		})
		if err != nil {
			return fmt.Errorf("complete: %w", err)
		}

		var record structured.StoryRecord
		if err := g.parser.Parse(ctx, raw, structured.ShapeObject, &record); err != nil {
			return err
		}
		if err := structured.ValidateStory(&record); err != nil {
			return err
		}

		story = newStory(record)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Story generated", "title", story.Title, "words", story.Words())
	return story, nil
}

type DialogueGenerator struct {
	completer llm.Completer
	prompts   *prompts.Prompts
	parser    *structured.Parser
	opts      Options
}

func NewDialogueGenerator(completer llm.Completer, p *prompts.Prompts, opts Options) *DialogueGenerator {
	return &DialogueGenerator{
		completer: completer,
		prompts:   p,
		parser:    structured.NewParser(completer, p, opts.MaxTokens),
		opts:      opts,
	}
}

func (g *DialogueGenerator) Generate(ctx context.Context, topic string) (Script, error) {
	prompt, err := g.prompts.RenderDialogue(prompts.DialogueParams{
		Topic:         topic,
		MinWords:      g.opts.MinWords,
		MaxWords:      g.opts.MaxWords,
		FirstSpeaker:  structured.SpeakerAI1,
		SecondSpeaker: structured.SpeakerAI2,
	})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	var dialogue *Dialogue
	err = attempt(ctx, g.opts.attempts(), func(ctx context.Context) error {
		raw, err := g.completer.Complete(ctx, llm.Request{
			System:      g.prompts.System.Dialogue,
			Prompt:      prompt,
			Temperature: g.opts.Temperature,
			MaxTokens:   g.opts.MaxTokens,
		})
		if err != nil {
			return fmt.Errorf("complete: %w", err)
		}

		var turns []structured.DialogueTurn
		if err := g.parser.Parse(ctx, raw, structured.ShapeArray, &turns); err != nil {
			return err
		}
		if err := structured.ValidateDialogue(turns); err != nil {
			return err
		}

		dialogue = newDialogue(turns)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Dialogue generated", "turns", dialogue.TotalTurns(), "words", dialogue.TotalWords())
	return dialogue, nil
}

// attempt runs op up to n times with no delay between attempts and converts
// exhaustion into a GenerationError.
func attempt(ctx context.Context, n int, op func(ctx context.Context) error) error {
	err := httputil.Retry(ctx, httputil.RetryConfig{MaxAttempts: n}, func(i int) error {
		err := op(ctx)
		if err != nil {
			slog.Warn("Script attempt failed", "attempt", i, "of", n, "error", err)
		}
		return err
	})
	var exhausted *httputil.ExhaustedError
	if errors.As(err, &exhausted) {
		return &GenerationError{Attempts: exhausted.Attempts, Last: exhausted.Last}
	}
	return err
}
