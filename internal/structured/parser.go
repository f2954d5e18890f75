package structured

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storycast/internal/llm"
	"storycast/pkg/prompts"
)

var ErrRepairFailed = errors.New("repair failed")

type Shape int

const (
	ShapeArray Shape = iota
	ShapeObject
)

func (s Shape) String() string {
	if s == ShapeObject {
		return "object"
	}
	return "array"
}

// State is a step of the parse/repair machine.
type State int

const (
	StateParse State = iota
	StateRepair
	StateReparse
	StateDone
	StateFatal
)

func (s State) String() string {
	switch s {
	case StateParse:
		return "parse"
	case StateRepair:
		return "repair"
	case StateReparse:
		return "reparse"
	case StateDone:
		return "done"
	default:
		return "fatal"
	}
}

// Parser decodes model output and, when the first attempt fails, issues
// exactly one repair completion before giving up.
type Parser struct {
	completer llm.Completer
	prompts   *prompts.Prompts
	maxTokens int
}

func NewParser(completer llm.Completer, p *prompts.Prompts, maxTokens int) *Parser {
	return &Parser{
		completer: completer,
		prompts:   p,
		maxTokens: maxTokens,
	}
}

// Parse decodes raw into out according to shape. A nil error means out holds
// the value of exactly one reply; out is left untouched otherwise. Failures
// after the repair round wrap ErrRepairFailed.
func (p *Parser) Parse(ctx context.Context, raw string, shape Shape, out any) error {
	state := StateParse
	text := raw
	var lastErr error

	for {
		switch state {
		case StateParse, StateReparse:
			err := decodeShape(text, shape, out)
			switch {
			case err == nil:
				state = p.transition(state, StateDone)
			case state == StateParse:
				lastErr = err
				state = p.transition(state, StateRepair)
			default:
				lastErr = err
				state = p.transition(state, StateFatal)
			}

		case StateRepair:
			slog.Warn("Structured output malformed, requesting repair", "shape", shape, "error", lastErr)
			repaired, err := p.repair(ctx, raw, shape)
			if err != nil {
				lastErr = err
				state = p.transition(state, StateFatal)
				continue
			}
			text = repaired
			state = p.transition(state, StateReparse)

		case StateDone:
			return nil

		default:
			return fmt.Errorf("%w: %w", ErrRepairFailed, lastErr)
		}
	}
}

func (p *Parser) transition(from, to State) State {
	slog.Debug("Structured parser transition", "from", from, "to", to)
	return to
}

func (p *Parser) repair(ctx context.Context, raw string, shape Shape) (string, error) {
	render := p.prompts.RenderArrayRepair
	if shape == ShapeObject {
		render = p.prompts.RenderObjectRepair
	}

	prompt, err := render(prompts.RepairParams{Raw: raw})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	return p.completer.Complete(ctx, llm.Request{
		System:      p.prompts.System.Repair,
		Prompt:      prompt,
		Temperature: 0,
		MaxTokens:   p.maxTokens,
		JSON:        shape == ShapeObject,
	})
}

func decodeShape(text string, shape Shape, out any) error {
	if shape == ShapeObject {
		return DecodeObject(text, out)
	}
	return DecodeArray(text, out)
}
