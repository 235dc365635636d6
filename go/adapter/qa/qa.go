// Package qa implements the question/answer adapter: markdown files holding
// `Q:` / `A:` line pairs, one card per pair.
//
//	Q: What does `len()` return?
//	A: The number of items in a container.
//
// Multi-line questions and answers continue until a blank line or the next
// prefixed line. A `!Q:` prefix suspends the pair: it is parsed (and keeps
// its slot in the key sequence) but no card is emitted.
package qa

import (
	"fmt"
	"strings"

	"github.com/srnotes/sr/go/adapter"
	"github.com/srnotes/sr/go/content"
)

func init() {
	adapter.Register(Adapter{})
}

// Adapter is the qa adapter. Register it with adapter.Register(qa.Adapter{}).
type Adapter struct{}

// Name implements adapter.Adapter.
func (Adapter) Name() string { return "qa" }

type pair struct {
	question  string
	answer    string
	line      int
	suspended bool
}

// Parse implements adapter.Adapter.
func (a Adapter) Parse(text, path string, config adapter.SourceConfig) ([]adapter.ParsedCard, error) {
	var _, body, bodyStart = adapter.SplitFrontmatter(text)
	var tags = config.Tags()

	var cards []adapter.ParsedCard
	var cur *pair
	var index int

	var flush = func() {
		if cur != nil && cur.question != "" && cur.answer != "" {
			index++
			if !cur.suspended {
				cards = append(cards, makeCard(*cur, index, tags))
			}
		}
		cur = nil
	}

	var answering bool
	for i, line := range append(strings.Split(body, "\n"), "") {
		var stripped = strings.TrimSpace(line)
		var absLine = bodyStart + i

		var qRest, isQ, suspended = matchQuestion(stripped)
		switch {
		case isQ:
			flush()
			cur = &pair{question: qRest, line: absLine, suspended: suspended}
			answering = false
		case strings.HasPrefix(stripped, "A:") || strings.HasPrefix(stripped, "a:"):
			if cur != nil {
				cur.answer = strings.TrimSpace(stripped[2:])
				answering = true
			}
		case stripped == "":
			flush()
			answering = false
		default:
			// Continuation of whichever side is open.
			if cur != nil && answering {
				cur.answer += "\n" + stripped
			} else if cur != nil {
				cur.question += "\n" + stripped
			}
		}
	}
	flush()
	return cards, nil
}

func matchQuestion(stripped string) (rest string, isQ, suspended bool) {
	for _, prefix := range []string{"!Q:", "!q:", "Q:", "q:"} {
		if strings.HasPrefix(stripped, prefix) {
			return strings.TrimSpace(stripped[len(prefix):]), true, prefix[0] == '!'
		}
	}
	return "", false, false
}

func makeCard(p pair, index int, tags []string) adapter.ParsedCard {
	return adapter.ParsedCard{
		Key: fmt.Sprintf("qa_%d", index),
		Content: content.FromInterface(map[string]interface{}{
			"question":    p.question,
			"answer":      p.answer,
			"source_line": p.line,
		}),
		DisplayText: adapter.Truncate(p.question, 80),
		Gradable:    true,
		SourceLine:  p.line,
		Tags:        append([]string(nil), tags...),
	}
}

// RenderFront implements adapter.Adapter.
func (Adapter) RenderFront(c content.Value) (string, error) {
	var q, _ = c.GetString("question")
	return "<div>" + adapter.MarkdownInline(q) + "</div>", nil
}

// RenderBack implements adapter.Adapter.
func (Adapter) RenderBack(c content.Value) (string, error) {
	var ans, _ = c.GetString("answer")
	return "<div>" + adapter.MarkdownInline(ans) + "</div>", nil
}
