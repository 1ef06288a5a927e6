package wordcache

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Find reports the first delimited occurrence of word in text. Both are
// expected to be lowercased already.
//
// An occurrence counts when it starts the text or follows whitespace, possibly
// with punctuation in between ("(release"). After the word, repeated letters
// from the word itself and a possessive or plural tail (s ' ") are accepted,
// then the text must end or continue with a rune that is not a letter or digit.
// This lets "cats!" and "release's" fire for "cat" and "release" while
// "scatter" and "catalog" do not fire for "cat".
func Find(text, word string) (start, end int, ok bool) {
	if word == "" {
		return 0, 0, false
	}
	offset := 0
	for offset <= len(text)-len(word) {
		idx := strings.Index(text[offset:], word)
		if idx < 0 {
			return 0, 0, false
		}
		start = offset + idx
		end = start + len(word)
		if leadingBoundary(text[:start]) && trailingBoundary(text[end:], word) {
			return start, end, true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return 0, 0, false
}

// Matches is Find without the position.
func Matches(text, word string) bool {
	_, _, ok := Find(text, word)
	return ok
}

func leadingBoundary(before string) bool {
	for before != "" {
		r, size := utf8.DecodeLastRuneInString(before)
		if unicode.IsSpace(r) {
			return true
		}
		if isWordRune(r) {
			return false
		}
		before = before[:len(before)-size]
	}
	return true
}

func trailingBoundary(after, word string) bool {
	after = strings.TrimLeftFunc(after, func(r rune) bool {
		return strings.ContainsRune(word, r)
	})
	after = strings.TrimLeft(after, `s'"`)
	if after == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(after)
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
