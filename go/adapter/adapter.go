// Package adapter defines the contract between the card lifecycle engine and
// the file-format adapters which translate source text into card records and
// render card content to HTML. Adapters are pure: Parse is deterministic in
// (text, config), and rendering never mutates content.
package adapter

import (
	"strings"

	"github.com/srnotes/sr/go/content"
)

// SourceConfig is the per-source configuration an adapter parses under:
// markdown frontmatter for file sources, or the .sr.config key=value set for
// directory sources. Keys not recognized by the engine are forwarded as-is.
type SourceConfig map[string]interface{}

// GetString returns a string-typed config value.
func (c SourceConfig) GetString(key string) (string, bool) {
	var s, ok = c[key].(string)
	return s, ok
}

// GetBool returns a bool-typed config value. String forms "true" and "false"
// are accepted because .sr.config files are untyped.
func (c SourceConfig) GetBool(key string) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

// Tags returns the source's tag list, accepting either a list or a
// comma-separated string.
func (c SourceConfig) Tags() []string {
	switch v := c["tags"].(type) {
	case []string:
		return v
	case []interface{}:
		var out []string
		for _, t := range v {
			if s, ok := t.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
		return out
	}
	return nil
}

// Relation is an adapter-declared edge from the carrying card to a target
// card. TargetSource defaults to the carrying card's source when empty.
type Relation struct {
	TargetKey    string
	Type         string
	TargetSource string
}

// ParsedCard is one card record produced by Parse. Keys must be unique
// within a single Parse invocation.
type ParsedCard struct {
	Key         string
	Content     content.Value
	DisplayText string
	Gradable    bool
	SourceLine  int
	Tags        []string
	Relations   []Relation
}

// Adapter translates one source file into card records and renders card
// content for review.
type Adapter interface {
	// Name is the adapter's registry name, stored on every card it parses.
	Name() string
	// Parse extracts card records from source text. It must be
	// deterministic in (text, config); path is advisory only.
	Parse(text, path string, config SourceConfig) ([]ParsedCard, error)
	// RenderFront renders the question side as an HTML fragment.
	RenderFront(c content.Value) (string, error)
	// RenderBack renders the answer side as an HTML fragment.
	RenderBack(c content.Value) (string, error)
}

// Truncate shortens display text to at most n runes.
func Truncate(s string, n int) string {
	var runes = []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
