package utils

import (
	"regexp"
	"strings"
)

var (
	markdownReplacer = strings.NewReplacer(
		`\`, `\\`,
		`*`, `\*`,
		`_`, `\_`,
		`~`, `\~`,
		"`", "\\`",
		`|`, `\|`,
		`>`, `\>`,
	)
	mentionRegex = regexp.MustCompile(`@(everyone|here|[!&]?[0-9]{17,20})`)
)

// EscapeMarkdown neutralizes Discord formatting characters.
func EscapeMarkdown(text string) string {
	return markdownReplacer.Replace(text)
}

// EscapeMentions breaks @everyone, @here and raw id mentions with a zero width space.
func EscapeMentions(text string) string {
	return mentionRegex.ReplaceAllString(text, "@\u200b$1")
}

// HasMentions reports whether text would ping someone if sent as is.
func HasMentions(text string) bool {
	return mentionRegex.MatchString(text)
}

// Truncate shortens text to max runes, appending "..." when cut.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
