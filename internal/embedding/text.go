// Package embedding holds text preparation shared by the encoder implementations.
package embedding

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxInputRunes bounds how much of a single input is encoded.
const DefaultMaxInputRunes = 2048

// ErrInvalidUTF8 is returned for inputs that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("input is not valid UTF-8")

// Word tokens keep combining marks so that Tamil vowel signs and viramas stay
// inside the word they belong to.
var wordPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}]+`)

// Clean validates text, applies NFC normalization and truncates it to
// maxRunes runes. maxRunes <= 0 disables truncation.
func Clean(text string, maxRunes int) (string, error) {
	if !utf8.ValidString(text) {
		return "", ErrInvalidUTF8
	}
	return Truncate(norm.NFC.String(text), maxRunes), nil
}

// Normalize is Clean followed by lowercasing, for the local tokenizing encoders.
func Normalize(text string, maxRunes int) (string, error) {
	cleaned, err := Clean(text, maxRunes)
	if err != nil {
		return "", err
	}
	return strings.ToLower(cleaned), nil
}

// Truncate cuts text to at most maxRunes runes. The cut falls on a grapheme
// cluster boundary, so a consonant keeps its vowel sign or virama.
func Truncate(text string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	n, end := 0, 0
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		n += len(gr.Runes())
		if n > maxRunes {
			break
		}
		_, end = gr.Positions()
	}
	return text[:end]
}

// Words splits normalized text into word tokens.
func Words(text string) []string {
	return wordPattern.FindAllString(text, -1)
}
