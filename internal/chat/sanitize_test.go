package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeMessage(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "trims surrounding whitespace",
			input:    "  hello  ",
			expected: "hello",
		},
		{
			name:     "escapes html",
			input:    `<script>alert("x")</script>`,
			expected: "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;",
		},
		{
			name:     "whitespace-only collapses to empty",
			input:    " \t\n ",
			expected: "",
		},
		{
			name:     "plain text passes through",
			input:    "hello world",
			expected: "hello world",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitizeMessage(tc.input))
		})
	}
}

func TestSanitizeMessage_CapsLength(t *testing.T) {
	long := strings.Repeat("a", maxMessageLength+100)
	assert.Len(t, SanitizeMessage(long), maxMessageLength)

	// the cap counts runes, not bytes
	wide := strings.Repeat("日", maxMessageLength+1)
	assert.Equal(t, maxMessageLength, len([]rune(SanitizeMessage(wide))))
}

func TestSanitizeSnippet(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;quoted&lt;/b&gt;", SanitizeSnippet(" <b>quoted</b> "))

	long := strings.Repeat("a", maxMessageLength+100)
	assert.Len(t, SanitizeSnippet(long), maxMessageLength+100)
}
