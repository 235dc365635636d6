package adapter

import (
	"html"
	"regexp"
	"strings"
)

// Markdown-lite rendering shared by the built-in adapters: escape first, then
// rewrite fenced code blocks, inline code, bold, and italic spans. Full
// markdown is deliberately out of scope; card text is short.
var (
	fencedRe = regexp.MustCompile("(?s)```(\\w*)\n(.*?)```")
	inlineRe = regexp.MustCompile("`([^`]+)`")
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.+?)\*`)
	paraRe   = regexp.MustCompile(`\n{2,}`)
)

// MarkdownInline renders markdown-lite with every newline becoming <br>.
func MarkdownInline(text string) string {
	return strings.ReplaceAll(markdownSpans(text), "\n", "<br>")
}

// MarkdownParagraphs renders markdown-lite with blank lines becoming
// paragraph breaks and remaining single newlines collapsing to spaces.
func MarkdownParagraphs(text string) string {
	var out = paraRe.ReplaceAllString(markdownSpans(text), "<br><br>")
	return strings.ReplaceAll(out, "\n", " ")
}

func markdownSpans(text string) string {
	var out = html.EscapeString(text)
	out = fencedRe.ReplaceAllStringFunc(out, func(m string) string {
		var groups = fencedRe.FindStringSubmatch(m)
		return "<pre><code>" + strings.TrimSpace(groups[2]) + "</code></pre>"
	})
	out = inlineRe.ReplaceAllString(out, "<code>$1</code>")
	out = boldRe.ReplaceAllString(out, "<strong>$1</strong>")
	out = italicRe.ReplaceAllString(out, "<em>$1</em>")
	return out
}
