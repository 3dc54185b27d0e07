// Package lang names the languages the pipeline moves between and answers the
// script questions the pipeline asks about text.
package lang

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Code is a BCP 47 language tag in canonical form ("zh", "en", "th", "pt-BR").
type Code string

// Languages of the default dubbing pair and the pivot between them.
const (
	Chinese Code = "zh"
	English Code = "en"
	Thai    Code = "th"
)

// Parse validates s as a language tag and returns its canonical Code.
// Accepts "pt_BR", "PT-br" and similar spellings.
func Parse(s string) (Code, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", "-"))
	if s == "" {
		return "", fmt.Errorf("empty language code: %w", ErrInvalid)
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid language code %q (use ISO 639-1 codes like 'zh', 'en', 'th'): %w", s, ErrInvalid)
	}
	return Code(tag.String()), nil
}

// MustParse is like Parse but panics on error. For constants and tests.
func MustParse(s string) Code {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String implements fmt.Stringer.
func (c Code) String() string { return string(c) }

// Base returns the ISO 639-1 base language ("pt-BR" -> "pt").
// Transcription and translation APIs accept only base codes.
func (c Code) Base() string {
	tag, err := language.Parse(string(c))
	if err != nil {
		return strings.ToLower(string(c))
	}
	base, _ := tag.Base()
	return base.String()
}

// DisplayName returns the English name of the language ("Thai", "Brazilian Portuguese").
// Unknown tags fall back to the code itself.
func (c Code) DisplayName() string {
	tag, err := language.Parse(string(c))
	if err != nil {
		return string(c)
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return string(c)
}

// Script returns the Unicode script that text in c is written in, or nil when
// the language is not one the pipeline checks script for.
func (c Code) Script() *unicode.RangeTable {
	switch c.Base() {
	case "th":
		return unicode.Thai
	case "zh":
		return unicode.Han
	default:
		return nil
	}
}

// ContainsScript reports whether text contains at least one character of the
// script c is written in. For languages without a script table any non-blank
// text counts.
func (c Code) ContainsScript(text string) bool {
	table := c.Script()
	if table == nil {
		return strings.TrimSpace(text) != ""
	}
	for _, r := range text {
		if unicode.Is(table, r) {
			return true
		}
	}
	return false
}

// WordCount estimates the number of words in text:
//   - Chinese counts each Han character (no word delimiters)
//   - Thai counts runs of Thai characters (words are not space-separated)
//   - everything else counts whitespace-separated fields
func (c Code) WordCount(text string) int {
	switch c.Base() {
	case "zh":
		n := 0
		for _, r := range text {
			if unicode.Is(unicode.Han, r) {
				n++
			}
		}
		return n
	case "th":
		n := 0
		inRun := false
		for _, r := range text {
			thai := unicode.Is(unicode.Thai, r)
			if thai && !inRun {
				n++
			}
			inRun = thai
		}
		return n
	default:
		return len(strings.Fields(text))
	}
}
