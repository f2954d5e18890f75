// Package textnorm strips formatting artifacts from model output before it is
// handed to speech synthesis.
package textnorm

import (
	"regexp"
	"strings"
)

// markup covers markdown emphasis, headings, quotes, code fences, list
// dashes, colons and bracket symbols.
var markup = regexp.MustCompile("[*#_>`~:\\-\\[\\]{}|]")

// Normalize removes markup symbols, collapses whitespace runs to a single
// space and trims. Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	text = markup.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
