package scanner

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/srnotes/sr/go/adapter"
)

// ParseFrontmatter parses a markdown document's YAML frontmatter into a
// source config. Documents without frontmatter yield an empty config.
// Recognized keys are sr_adapter, tags, and suspended; everything else is
// forwarded to the adapter untouched.
func ParseFrontmatter(text string) (adapter.SourceConfig, error) {
	var block, _, _ = adapter.SplitFrontmatter(text)
	if block == "" {
		return adapter.SourceConfig{}, nil
	}

	var meta map[string]interface{}
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	if meta == nil {
		meta = make(map[string]interface{})
	}
	return adapter.SourceConfig(meta), nil
}
