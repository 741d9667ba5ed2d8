package chat

import (
	"html"
	"strings"
)

const maxMessageLength = 4000

// SanitizeMessage trims, HTML-escapes and length-caps text content
// before it is persisted. Non-text message types bypass this entirely.
func SanitizeMessage(content string) string {
	escaped := html.EscapeString(strings.TrimSpace(content))
	if r := []rune(escaped); len(r) > maxMessageLength {
		return string(r[:maxMessageLength])
	}
	return escaped
}

// SanitizeSnippet escapes short display strings (reply snapshots,
// usernames) without the message length cap.
func SanitizeSnippet(text string) string {
	return html.EscapeString(strings.TrimSpace(text))
}
