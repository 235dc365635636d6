package adapter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/srnotes/sr/go/content"
)

func TestSourceConfigAccessors(t *testing.T) {
	var cfg = SourceConfig{
		"sr_adapter": "qa",
		"suspended":  "true",
		"really":     true,
		"tags":       []interface{}{"math", "algebra"},
	}

	var s, ok = cfg.GetString("sr_adapter")
	require.True(t, ok)
	require.Equal(t, "qa", s)
	_, ok = cfg.GetString("missing")
	require.False(t, ok)

	require.True(t, cfg.GetBool("suspended"))
	require.True(t, cfg.GetBool("really"))
	require.False(t, cfg.GetBool("missing"))

	require.Equal(t, []string{"math", "algebra"}, cfg.Tags())
	require.Equal(t, []string{"a", "b"}, SourceConfig{"tags": "a, b,"}.Tags())
	require.Nil(t, SourceConfig{}.Tags())
}

func TestSplitFrontmatter(t *testing.T) {
	var fm, body, line = SplitFrontmatter("---\nsr_adapter: qa\ntags: [x]\n---\nQ: hi\n")
	require.Equal(t, "sr_adapter: qa\ntags: [x]", fm)
	// The body keeps the newline ending the closing delimiter line, so
	// line arithmetic in adapters stays simple: bodyStartLine + split index.
	require.Equal(t, "\nQ: hi\n", body)
	require.Equal(t, 4, line)
}

func TestSplitFrontmatterWithoutBlock(t *testing.T) {
	var fm, body, line = SplitFrontmatter("Q: hi\nA: there\n")
	require.Equal(t, "", fm)
	require.Equal(t, "Q: hi\nA: there\n", body)
	require.Equal(t, 1, line)

	// An opening delimiter without a closing one is body text.
	fm, body, line = SplitFrontmatter("---\nnot closed\n")
	require.Equal(t, "", fm)
	require.Equal(t, "---\nnot closed\n", body)
	require.Equal(t, 1, line)
}

func TestMarkdownInline(t *testing.T) {
	require.Equal(t,
		"a <strong>b</strong> <em>c</em> <code>d</code><br>e",
		MarkdownInline("a **b** *c* `d`\ne"))
}

func TestMarkdownEscapesHTML(t *testing.T) {
	require.Equal(t, "1 &lt; 2 &amp; 3", MarkdownInline("1 < 2 & 3"))
}

func TestMarkdownFencedCode(t *testing.T) {
	require.Equal(t,
		"<pre><code>x := 1</code></pre>",
		markdownSpans("```go\nx := 1\n```"))
}

func TestMarkdownParagraphs(t *testing.T) {
	require.Equal(t,
		"one two<br><br>three",
		MarkdownParagraphs("one\ntwo\n\nthree"))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", Truncate("abc", 5))
	require.Equal(t, "ab", Truncate("abcd", 2))
	require.Equal(t, "hél", Truncate("héllo", 3))
}

type stubAdapter struct{ name string }

func (a stubAdapter) Name() string { return a.name }
func (a stubAdapter) Parse(text, path string, config SourceConfig) ([]ParsedCard, error) {
	return nil, nil
}
func (a stubAdapter) RenderFront(c content.Value) (string, error) { return "", nil }
func (a stubAdapter) RenderBack(c content.Value) (string, error)  { return "", nil }

func TestRegistry(t *testing.T) {
	var _, err = Get("no-such-adapter")
	require.ErrorIs(t, err, ErrUnknownAdapter)

	Register(stubAdapter{name: "stub"})
	var a, errGet = Get("stub")
	require.NoError(t, errGet)
	require.Equal(t, "stub", a.Name())

	require.Panics(t, func() { Register(stubAdapter{name: "stub"}) })
}
