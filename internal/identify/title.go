package identify

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowerCaser = cases.Lower(language.Und)

// NormalizeTitle lowercases a title, strips punctuation, and collapses runs of
// whitespace into single spaces.
func NormalizeTitle(title string) string {
	lowered := lowerCaser.String(title)

	var builder strings.Builder
	builder.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			builder.WriteRune(r)
		case unicode.IsSpace(r):
			builder.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(builder.String()), " ")
}

// TitlePrefixWords returns the first n whitespace-separated words of a title,
// used as a cheap containment filter for fallback searches. The words keep
// their original casing and punctuation so the filter matches stored titles.
func TitlePrefixWords(title string, n int) string {
	words := strings.Fields(title)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
