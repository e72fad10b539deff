// Package slug derives URL-safe identifiers from display names.
//
// Slugs are the lookup keys for books, authors and genres: two display
// names that normalize to the same slug are treated as the same entity.
package slug

import (
	"regexp"
	"strings"
	"unicode"
)

// Transliteration table for Vietnamese diacritics. The two strings are
// parallel rune sequences: vietnameseRunes[i] maps to asciiRunes[i].
const (
	vietnameseRunes = "àáạảãâầấậẩẫăằắặẳẵèéẹẻẽêềếệểễìíịỉĩòóọỏõôồốộổỗơờớợởỡùúụủũưừứựửữỳýỵỷỹđ"
	asciiRunes      = "aaaaaaaaaaaaaaaaaeeeeeeeeeeeiiiiiooooooooooooooooouuuuuuuuuuuyyyyyd"
)

var (
	translit = buildTranslitTable()

	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	separators   = regexp.MustCompile(`[\s-]+`)
)

func buildTranslitTable() map[rune]rune {
	src := []rune(vietnameseRunes)
	dst := []rune(asciiRunes)
	table := make(map[rune]rune, 2*len(src))
	for i, r := range src {
		table[r] = dst[i]
		table[unicode.ToUpper(r)] = dst[i]
	}
	return table
}

// Make converts free text into a lowercase ASCII slug. It is pure and
// total: garbage input yields an empty or short slug, never an error.
func Make(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if ascii, ok := translit[r]; ok {
			b.WriteRune(ascii)
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}

	s := nonSlugChars.ReplaceAllString(b.String(), "")
	s = separators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
