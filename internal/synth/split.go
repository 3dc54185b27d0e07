package synth

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Split breaks text into pieces of at most limit runes. It cuts after
// punctuation or whitespace when it can, and mid-word only when a window has
// no break at all. Pieces are trimmed; blank pieces are dropped.
func Split(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" || limit <= 0 {
		return nil
	}

	var pieces []string
	for text != "" {
		if utf8.RuneCountInString(text) <= limit {
			pieces = appendPiece(pieces, text)
			break
		}
		cut := cutIndex(text, limit)
		pieces = appendPiece(pieces, text[:cut])
		text = strings.TrimSpace(text[cut:])
	}
	return pieces
}

func appendPiece(pieces []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		return append(pieces, s)
	}
	return pieces
}

// cutIndex returns the byte offset to cut text at so the head holds at most
// limit runes. A sentence end in the second half of the window wins; otherwise
// the last punctuation or whitespace does.
func cutIndex(text string, limit int) int {
	var sentence, other, end int
	var sentenceRunes int
	n := 0
	for i, r := range text {
		if n == limit {
			break
		}
		n++
		end = i + utf8.RuneLen(r)
		switch {
		case isSentenceEnd(r):
			sentence, sentenceRunes = end, n
			other = end
		case unicode.IsPunct(r), unicode.IsSpace(r):
			other = end
		}
	}
	if sentence > 0 && sentenceRunes*2 >= limit {
		return sentence
	}
	if other > 0 {
		return other
	}
	return end
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？', '\n':
		return true
	}
	return false
}
