package adapter

import (
	"strings"
)

// SplitFrontmatter splits a leading YAML frontmatter block (delimited by
// "---" lines) from a markdown document. It returns the raw frontmatter
// text, the remaining body, and the one-based file line on which the body's
// first split line falls, so adapters can report absolute source lines.
func SplitFrontmatter(text string) (frontmatter, body string, bodyStartLine int) {
	if !strings.HasPrefix(text, "---") {
		return "", text, 1
	}
	var end = strings.Index(text[3:], "\n---")
	if end == -1 {
		return "", text, 1
	}
	end += 3

	frontmatter = strings.TrimSpace(text[3:end])
	body = text[end+4:]
	bodyStartLine = strings.Count(text[:end+4], "\n") + 1
	return frontmatter, body, bodyStartLine
}
