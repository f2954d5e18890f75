package structured

import (
	"errors"
	"fmt"
	"strings"

	"storycast/internal/textnorm"
)

const (
	SpeakerAI1 = "ai1"
	SpeakerAI2 = "ai2"
)

var ErrValidation = errors.New("validation failed")

// ValidationError names the offending field. Index is the turn position for
// dialogue errors and -1 otherwise.
type ValidationError struct {
	Field  string
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("turn %d: %s %s", e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Field)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Index: -1, Reason: "missing field"}
}

type StoryRecord struct {
	Story           string `json:"story"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	ThumbnailPrompt string `json:"thumbnail_prompt"`
}

type DialogueTurn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type MetadataRecord struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	ThumbnailPrompt string `json:"thumbnail_prompt"`
}

// ValidateStory requires every field to be non-empty after trimming.
func ValidateStory(r *StoryRecord) error {
	if r == nil {
		return missingField("story")
	}
	return requireFields(
		field{"story", r.Story},
		field{"title", r.Title},
		field{"description", r.Description},
		field{"thumbnail_prompt", r.ThumbnailPrompt},
	)
}

func ValidateMetadata(r *MetadataRecord) error {
	if r == nil {
		return missingField("title")
	}
	return requireFields(
		field{"title", r.Title},
		field{"description", r.Description},
		field{"thumbnail_prompt", r.ThumbnailPrompt},
	)
}

// ValidateDialogue requires a non-empty script whose turns all name a known
// speaker and carry text that survives markup stripping. Alternation is not
// checked.
func ValidateDialogue(turns []DialogueTurn) error {
	if len(turns) == 0 {
		return &ValidationError{Field: "dialogue", Index: -1, Reason: "empty"}
	}

	for i, turn := range turns {
		switch turn.Speaker {
		case SpeakerAI1, SpeakerAI2:
		default:
			return &ValidationError{Field: "speaker", Index: i, Reason: fmt.Sprintf("unknown %q", turn.Speaker)}
		}
		if textnorm.Normalize(turn.Text) == "" {
			return &ValidationError{Field: "text", Index: i, Reason: "empty"}
		}
	}
	return nil
}

type field struct {
	name  string
	value string
}

func requireFields(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return missingField(f.name)
		}
	}
	return nil
}
