package services

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// htmlTagPattern matches a single HTML tag.
var htmlTagPattern = regexp.MustCompile(`(?i)(<[^>]+>)`)

// tokenize splits text into lowercase words. Whitespace and punctuation end a
// word; apostrophes are kept inside words but trimmed from their edges.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(text, isEndOfWord)
	if len(fields) == 0 {
		return nil
	}

	caser := cases.Lower(language.Und)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f == "" {
			continue
		}
		tokens = append(tokens, caser.String(f))
	}
	return tokens
}

func isEndOfWord(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '.', ',', ':', ';', '!', '?', '&', '"', '<', '>', '-', '+', '=',
		'(', ')', '[', ']', '{', '}', '/', '\\', '^', '_', '`', '~', '|', '@':
		return true
	default:
		return false
	}
}

// lowercase folds s the same way tokens are folded.
func lowercase(s string) string {
	return cases.Lower(language.Und).String(s)
}

// stripHTML replaces every tag in s with a space.
func stripHTML(s string) string {
	return htmlTagPattern.ReplaceAllString(s, " ")
}
