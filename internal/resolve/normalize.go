package resolve

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// NormalizeTitle reduces a title to a comparison key: case-folded,
// punctuation stripped, whitespace collapsed, leading article dropped.
// The same normalization keys owned items and catalog entries so their
// sets diff cleanly.
func NormalizeTitle(title string) string {
	folded := foldCaser.String(strings.TrimSpace(title))

	var b strings.Builder
	b.Grow(len(folded))
	lastSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.' || r == ':' || r == '/':
			if !lastSpace && b.Len() > 0 {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}

	normalized := strings.TrimSpace(b.String())
	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(normalized, article) && len(normalized) > len(article) {
			normalized = normalized[len(article):]
			break
		}
	}
	return normalized
}

// ReleaseYear extracts the year from a catalog date string ("YYYY-MM-DD"
// or "YYYY"). Returns 0 when the date is absent or malformed.
func ReleaseYear(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	year := 0
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		year = year*10 + int(r-'0')
	}
	return year
}
