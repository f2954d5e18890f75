package publish

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 5000

	minTitleWords = 5
	disclaimerKey = "ai-generated"
)

var ErrInvalidPrivacy = errors.New("invalid privacy status")

type Privacy string

const (
	Public   Privacy = "public"
	Unlisted Privacy = "unlisted"
	Private  Privacy = "private"
)

func ParsePrivacy(s string) (Privacy, error) {
	switch p := Privacy(strings.ToLower(strings.TrimSpace(s))); p {
	case Public, Unlisted, Private:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPrivacy, s)
	}
}

// Metadata is what gets sent with an upload.
type Metadata struct {
	Title         string
	Description   string
	Tags          []string
	CategoryID    string
	PrivacyStatus Privacy
}

// ClampTitle limits title to MaxTitleLength characters. Titles shorter than
// five words get suffix appended and are clamped again.
func ClampTitle(title, suffix string) string {
	title = truncate(strings.TrimSpace(title), MaxTitleLength)
	if title == "" {
		return truncate(strings.TrimLeft(suffix, " |"), MaxTitleLength)
	}
	if len(strings.Fields(title)) < minTitleWords {
		title = truncate(title+suffix, MaxTitleLength)
	}
	return strings.TrimSpace(title)
}

// PrepareDescription appends disclaimer unless the description already says
// it is AI-generated, then clamps to MaxDescriptionLength characters.
func PrepareDescription(description, disclaimer string) string {
	description = strings.TrimSpace(description)
	if disclaimer != "" && !strings.Contains(strings.ToLower(description), disclaimerKey) {
		if description == "" {
			description = disclaimer
		} else {
			description += "\n\n" + disclaimer
		}
	}
	return truncate(description, MaxDescriptionLength)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
