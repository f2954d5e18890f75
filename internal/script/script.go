// Package script turns a topic into a validated story or dialogue script.
package script

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storycast/internal/structured"
	"storycast/internal/textnorm"
)

type Mode string

const (
	ModeStory    Mode = "story"
	ModeDialogue Mode = "dialogue"
)

// ParseMode accepts a case-insensitive mode name; an empty name is a story.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeStory, "":
		return ModeStory, nil
	case ModeDialogue:
		return ModeDialogue, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownMode, s)
	}
}

var (
	ErrUnknownMode = errors.New("unknown mode")
	ErrExhausted   = errors.New("script generation exhausted")
)

// GenerationError is returned once every attempt failed. Last is the failure
// of the final attempt.
type GenerationError struct {
	Attempts int
	Last     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("script generation failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrExhausted
}

func (e *GenerationError) Unwrap() error {
	return e.Last
}

// Script is either a *Story or a *Dialogue.
type Script interface {
	Mode() Mode
	// Narration returns the text handed to speech synthesis, in order.
	Narration() []string
}

type Generator interface {
	Generate(ctx context.Context, topic string) (Script, error)
}

type Story struct {
	Text            string
	Title           string
	Description     string
	ThumbnailPrompt string
}

func newStory(record structured.StoryRecord) *Story {
	return &Story{
		Text:            textnorm.Normalize(record.Story),
		Title:           strings.TrimSpace(record.Title),
		Description:     strings.TrimSpace(record.Description),
		ThumbnailPrompt: strings.TrimSpace(record.ThumbnailPrompt),
	}
}

func (s *Story) Mode() Mode { return ModeStory }

func (s *Story) Narration() []string { return []string{s.Text} }

func (s *Story) Words() int { return textnorm.WordCount(s.Text) }

type Turn struct {
	Speaker string
	Text    string
}

type Dialogue struct {
	Turns []Turn
}

func newDialogue(turns []structured.DialogueTurn) *Dialogue {
	d := &Dialogue{Turns: make([]Turn, len(turns))}
	for i, turn := range turns {
		d.Turns[i] = Turn{Speaker: turn.Speaker, Text: textnorm.Normalize(turn.Text)}
	}
	return d
}

func (d *Dialogue) Mode() Mode { return ModeDialogue }

func (d *Dialogue) Narration() []string {
	lines := make([]string, len(d.Turns))
	for i, turn := range d.Turns {
		lines[i] = turn.Text
	}
	return lines
}

func (d *Dialogue) TotalTurns() int { return len(d.Turns) }

func (d *Dialogue) TotalWords() int {
	total := 0
	for _, turn := range d.Turns {
		total += textnorm.WordCount(turn.Text)
	}
	return total
}
