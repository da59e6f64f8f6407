package sanitize

import (
	"regexp"
	"strings"
)

var (
	newlinePattern    = regexp.MustCompile(`[\r\n]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Email lowercases and trims an address so lookups are case-insensitive
func Email(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Name trims a display name and collapses inner runs of whitespace
func Name(s string) string {
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(s), " ")
}

// LogString strips line breaks so user input cannot forge log lines
func LogString(s string) string {
	return newlinePattern.ReplaceAllString(s, " ")
}
