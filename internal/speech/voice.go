// Package speech synthesizes narration segments and merges them into one
// track.
package speech

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"storycast/internal/structured"
)

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Voice is a synthesizer voice identifier such as "en-US-GuyNeural".
type Voice string

// Synthesizer writes speech for text to outputPath and returns once the file
// is complete.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice Voice, outputPath string) error
}

// Voices maps narrator genders and dialogue speakers to synthesizer voices.
type Voices struct {
	Male   Voice
	Female Voice
	AI1    Voice
	AI2    Voice
}

func (v Voices) ForGender(g Gender) Voice {
	if g == Female {
		return v.Female
	}
	return v.Male
}

// ForSpeaker returns the fixed voice of a dialogue speaker.
func (v Voices) ForSpeaker(speaker string) (Voice, error) {
	switch speaker {
	case structured.SpeakerAI1:
		return v.AI1, nil
	case structured.SpeakerAI2:
		return v.AI2, nil
	default:
		return "", fmt.Errorf("unknown speaker %q", speaker)
	}
}

type VoiceSelector interface {
	Choose(options []Gender) Gender
}

type RandomSelector struct{}

func (RandomSelector) Choose(options []Gender) Gender {
	if len(options) == 0 {
		return Male
	}
	return options[rand.IntN(len(options))]
}

// FixedSelector always picks the same gender.
type FixedSelector struct {
	Gender Gender
}

func (s FixedSelector) Choose([]Gender) Gender {
	return s.Gender
}

var ErrUnknownGender = errors.New("unknown voice gender")

// ParseGender accepts "male" or "female" in any case.
func ParseGender(s string) (Gender, error) {
	switch g := Gender(strings.ToLower(strings.TrimSpace(s))); g {
	case Male, Female:
		return g, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownGender, s)
	}
}
