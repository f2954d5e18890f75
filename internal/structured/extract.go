// Package structured coerces free-form model output into strict JSON records.
package structured

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

var (
	ErrParse           = errors.New("parse error")
	ErrNoArrayFound    = fmt.Errorf("%w: no JSON array found", ErrParse)
	ErrUnbalancedArray = fmt.Errorf("%w: unbalanced JSON array", ErrParse)
	ErrNoObjectFound   = fmt.Errorf("%w: no JSON object found", ErrParse)
	ErrMalformedJSON   = fmt.Errorf("%w: malformed JSON", ErrParse)
)

var objectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// ExtractArray returns the first balanced [...] span of text. Brackets inside
// JSON string literals do not count toward depth.
func ExtractArray(text string) (string, error) {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return "", ErrNoArrayFound
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", ErrUnbalancedArray
}

// ExtractObject returns text itself when it is a JSON object, otherwise the
// greedy span from the first '{' to the last '}'.
func ExtractObject(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	match := objectPattern.FindString(text)
	if match == "" {
		return "", ErrNoObjectFound
	}
	return match, nil
}

// DecodeArray extracts the first array from text and decodes it into out.
func DecodeArray(text string, out any) error {
	raw, err := ExtractArray(text)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// DecodeObject extracts a JSON object from text and decodes it into out.
func DecodeObject(text string, out any) error {
	raw, err := ExtractObject(text)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// decode unmarshals into a fresh value and stores it in out only on success;
// json.Unmarshal keeps filling fields after a type error.
func decode(raw string, out any) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer, got %T", out)
	}

	fresh := reflect.New(target.Elem().Type())
	if err := json.Unmarshal([]byte(raw), fresh.Interface()); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	target.Elem().Set(fresh.Elem())
	return nil
}
