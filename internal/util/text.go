package util

import (
	"regexp"
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	wordRe     = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)
	// URLPattern matches an http(s) link up to the next whitespace.
	URLPattern = regexp.MustCompile(`https?://\S+`)
)

// NormalizeWhitespace trims and collapses whitespace to single spaces.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Fold applies compatibility normalization and lowercases s.
func Fold(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

// Words returns the word tokens of s (letters, marks, digits, underscore).
// Case is preserved.
func Words(s string) []string {
	return wordRe.FindAllString(s, -1)
}

// WordCount is len(Words(s)) without allocating the tokens.
func WordCount(s string) int {
	return len(wordRe.FindAllStringIndex(s, -1))
}

// CountAll sums non-overlapping occurrences of each needle in text.
func CountAll(text string, needles []string) int {
	n := 0
	for _, k := range needles {
		n += strings.Count(text, k)
	}
	return n
}

// HasLink reports whether text contains an http(s) URL.
func HasLink(text string) bool { return URLPattern.MatchString(text) }

// IsEmojiRune reports whether r lies in one of the pictographic blocks we count.
func IsEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F600 && r <= 0x1F64F: // emoticons
		return true
	case r >= 0x1F300 && r <= 0x1F5FF: // symbols & pictographs
		return true
	case r >= 0x1F680 && r <= 0x1F6FF: // transport & map
		return true
	case r >= 0x1F1E0 && r <= 0x1F1FF: // regional indicators
		return true
	}
	return false
}

// Emojis returns every emoji in text, one entry per grapheme cluster whose
// leading rune is an emoji rune. A regional-indicator pair is a single entry.
func Emojis(text string) []string {
	var out []string
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		rs := gr.Runes()
		if len(rs) > 0 && IsEmojiRune(rs[0]) {
			out = append(out, gr.Str())
		}
	}
	return out
}

// EmojiCount is len(Emojis(text)).
func EmojiCount(text string) int {
	n := 0
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		rs := gr.Runes()
		if len(rs) > 0 && IsEmojiRune(rs[0]) {
			n++
		}
	}
	return n
}
