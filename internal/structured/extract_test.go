package structured

import (
	"errors"
	"testing"
)

func TestExtractArray(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "nestedWithTrailing", input: "note [1,2,[3]] trailing [9]", want: "[1,2,[3]]"},
		{name: "plainArray", input: `[{"speaker":"ai1","text":"hi"}]`, want: `[{"speaker":"ai1","text":"hi"}]`},
		{name: "surroundedByProse", input: "Sure! Here it is:\n[1]\nEnjoy.", want: "[1]"},
		{name: "bracketInString", input: `[{"text":"a ] b [ c"}] tail`, want: `[{"text":"a ] b [ c"}]`},
		{name: "escapedQuoteInString", input: `[{"text":"say \"]\" now"}]`, want: `[{"text":"say \"]\" now"}]`},
		{name: "emptyArray", input: "x [] y", want: "[]"},
		{name: "noArray", input: "no brackets here", wantErr: ErrNoArrayFound},
		{name: "emptyInput", input: "", wantErr: ErrNoArrayFound},
		{name: "unbalanced", input: "[1, [2, 3]", wantErr: ErrUnbalancedArray},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractArray(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ExtractArray() error = %v, want %v", err, tt.wantErr)
				}
				if !errors.Is(err, ErrParse) {
					t.Errorf("ExtractArray() error should wrap ErrParse")
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractArray() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractArray() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "wholeText", input: ` {"title":"a"} `, want: `{"title":"a"}`},
		{name: "wrappedInProse", input: "Here:\n{\"title\":\"a\"}\nThanks", want: `{"title":"a"}`},
		{name: "greedySpan", input: `x {"a":{"b":1}} y {"c":2} z`, want: `{"a":{"b":1}} y {"c":2}`},
		{name: "codeFence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "noObject", input: "nothing to see", wantErr: ErrNoObjectFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractObject(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ExtractObject() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractObject() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractObject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeArray(t *testing.T) {
	var turns []DialogueTurn
	err := DecodeArray(`Output: [{"speaker":"ai1","text":"One."},{"speaker":"ai2","text":"Two."}] done`, &turns)
	if err != nil {
		t.Fatalf("DecodeArray() error: %v", err)
	}
	if len(turns) != 2 || turns[1].Speaker != "ai2" || turns[1].Text != "Two." {
		t.Errorf("DecodeArray() = %+v", turns)
	}
}

func TestDecodeMalformed(t *testing.T) {
	var turns []DialogueTurn
	err := DecodeArray(`[{"speaker":"ai1","text":}]`, &turns)
	if !errors.Is(err, ErrMalformedJSON) || !errors.Is(err, ErrParse) {
		t.Errorf("DecodeArray() error = %v, want ErrMalformedJSON", err)
	}

	var record StoryRecord
	err = DecodeObject(`{"story": "unterminated}`, &record)
	if !errors.Is(err, ErrParse) {
		t.Errorf("DecodeObject() error = %v, want ErrParse", err)
	}
}

func TestDecodeTypeMismatchLeavesTargetUntouched(t *testing.T) {
	record := StoryRecord{Story: "kept"}
	err := DecodeObject(`{"story":"replaced","title":"Partial","thumbnail_prompt":42}`, &record)
	if !errors.Is(err, ErrMalformedJSON) {
		t.Fatalf("DecodeObject() error = %v, want ErrMalformedJSON", err)
	}
	if record != (StoryRecord{Story: "kept"}) {
		t.Errorf("record = %+v, want it unchanged", record)
	}

	if err := DecodeObject(`{}`, StoryRecord{}); err == nil {
		t.Error("expected error for a non-pointer target")
	}
}
