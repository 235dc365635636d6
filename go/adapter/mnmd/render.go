package mnmd

import (
	"github.com/srnotes/sr/go/adapter"
	"github.com/srnotes/sr/go/content"
)

// Rendering converts markdown to HTML first and substitutes cloze markers
// second, so that all card text is escaped before our own elements are
// injected. The {{ }} marker characters survive HTML escaping untouched.

// RenderFront implements adapter.Adapter: active clozes become blanks,
// showing the hint when one was given.
func (Adapter) RenderFront(c content.Value) (string, error) {
	var text, _ = c.GetString("text")
	var html = adapter.MarkdownParagraphs(text)

	html = clozeRe.ReplaceAllStringFunc(html, func(m string) string {
		var inner = clozeRe.FindStringSubmatch(m)[1]
		var _, _, hint = parseClozeInner(inner)
		if hint != "" {
			return `<span class="cloze-blank">[` + hint + `…]</span>`
		}
		return `<span class="cloze-blank">[…]</span>`
	})
	return "<div>" + html + "</div>", nil
}

// RenderBack implements adapter.Adapter: active clozes become highlighted
// answers.
func (Adapter) RenderBack(c content.Value) (string, error) {
	var text, _ = c.GetString("text")
	var html = adapter.MarkdownParagraphs(text)

	html = clozeRe.ReplaceAllStringFunc(html, func(m string) string {
		var inner = clozeRe.FindStringSubmatch(m)[1]
		var _, answer, _ = parseClozeInner(inner)
		return "<mark>" + answer + "</mark>"
	})
	return "<div>" + html + "</div>", nil
}
