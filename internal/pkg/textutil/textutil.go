// Package textutil holds text normalization helpers shared by the pipeline.
package textutil

import (
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	jsonFencePattern  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)

// Sanitize strips HTML tags, collapses runs of whitespace to single spaces,
// and trims the result. Applied to all user-supplied query text before
// validation so length limits measure the effective content.
func Sanitize(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Truncate shortens s to at most max runes, appending "..." when it cuts.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// ExtractJSON pulls a JSON document out of an LLM reply. Models often wrap
// JSON in markdown code fences or surround it with prose; this returns the
// fenced block when present, otherwise the outermost {...} span, otherwise
// the trimmed input.
func ExtractJSON(s string) string {
	if m := jsonFencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return strings.TrimSpace(s[start : end+1])
	}

	return strings.TrimSpace(s)
}
