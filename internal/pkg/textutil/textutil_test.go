package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text unchanged",
			input: "how do I reset my password",
			want:  "how do I reset my password",
		},
		{
			name:  "strips html tags",
			input: "hello <b>world</b><script>alert(1)</script>",
			want:  "hello worldalert(1)",
		},
		{
			name:  "collapses whitespace",
			input: "  multiple   \t spaces\n and newlines  ",
			want:  "multiple spaces and newlines",
		},
		{
			name:  "empty after sanitize",
			input: "<div>\n</div>",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "日本語...", Truncate("日本語テキスト", 3))
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "json fence",
			input: "Here is the result:\n```json\n{\"category\": \"other\"}\n```\nDone.",
			want:  `{"category": "other"}`,
		},
		{
			name:  "bare fence",
			input: "```\n{\"score\": 80}\n```",
			want:  `{"score": 80}`,
		},
		{
			name:  "embedded object",
			input: `The answer is {"passed": true} as requested.`,
			want:  `{"passed": true}`,
		},
		{
			name:  "raw json",
			input: `{"confidence": 0.9}`,
			want:  `{"confidence": 0.9}`,
		},
		{
			name:  "no json at all",
			input: "  sorry, I cannot answer that  ",
			want:  "sorry, I cannot answer that",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.input))
		})
	}
}
