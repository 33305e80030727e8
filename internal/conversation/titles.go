package conversation

import (
	"strings"
	"unicode/utf8"
)

const (
	titleLimit       = 50
	lastMessageLimit = 100
	// DefaultTitle names a conversation whose first message is empty.
	DefaultTitle = "New Conversation"
)

// clipTitle keeps s within titleLimit characters, ending in "..." when cut.
func clipTitle(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTitle
	}
	if utf8.RuneCountInString(s) <= titleLimit {
		return s
	}
	return string([]rune(s)[:titleLimit-3]) + "..."
}

// clipPreview cuts s to lastMessageLimit characters and appends "..." when longer.
func clipPreview(s string) string {
	if utf8.RuneCountInString(s) <= lastMessageLimit {
		return s
	}
	return string([]rune(s)[:lastMessageLimit]) + "..."
}

// cleanTitle strips whitespace and wrapping quotes from a generated title.
func cleanTitle(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"'`))
}
