// Package scanner walks filesystem paths, resolves the adapter responsible
// for each source file, and emits parsed card records for synchronization.
//
// Resolution rules, applied in order per input path:
//  1. A markdown file opts in via frontmatter `sr_adapter: <name>`.
//  2. A directory holding a .sr.config file routes every regular file in it
//     through the configured adapter.
//  3. Any other directory is recursed, skipping hidden subdirectories.
//
// Read errors and adapter failures warn and skip the affected source; a scan
// never aborts because one file is broken.
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/srnotes/sr/go/adapter"
)

// Source is one scanned source file with its parsed cards.
type Source struct {
	Path    string
	Adapter string
	Cards   []adapter.ParsedCard
	Config  adapter.SourceConfig
}

// GetAdapter resolves an adapter by name. It defaults to the process-wide
// registry; tests substitute their own.
type GetAdapter func(name string) (adapter.Adapter, error)

// Scan walks paths and returns the parsed sources, each path emitted at
// most once regardless of input overlap.
func Scan(paths []string, getAdapter GetAdapter) []Source {
	if getAdapter == nil {
		getAdapter = adapter.Get
	}
	var s = &scan{getAdapter: getAdapter, seen: make(map[string]bool)}

	for _, path := range paths {
		var abs, err = filepath.Abs(path)
		if err != nil {
			log.WithFields(log.Fields{"path": path, "error": err}).Warn("cannot resolve scan path")
			continue
		}
		var info, statErr = os.Stat(abs)
		if statErr != nil {
			log.WithFields(log.Fields{"path": abs, "error": statErr}).Warn("cannot stat scan path")
			continue
		}
		if info.IsDir() {
			s.scanDirectory(abs)
		} else if isMarkdown(abs) {
			s.scanMarkdownFile(abs)
		}
	}
	return s.results
}

type scan struct {
	getAdapter GetAdapter
	results    []Source
	seen       map[string]bool
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func (s *scan) scanMarkdownFile(path string) {
	if s.seen[path] {
		return
	}
	s.seen[path] = true

	var text, err = os.ReadFile(path)
	if err != nil {
		log.WithFields(log.Fields{"path": path, "error": err}).Warn("cannot read source file")
		return
	}
	meta, err := ParseFrontmatter(string(text))
	if err != nil {
		log.WithFields(log.Fields{"path": path, "error": err}).Warn("cannot parse frontmatter")
		return
	}
	var name, ok = meta.GetString("sr_adapter")
	if !ok || name == "" {
		return // Not an sr source.
	}

	a, err := s.getAdapter(name)
	if err != nil {
		log.WithFields(log.Fields{"path": path, "adapter": name, "error": err}).
			Warn("cannot load adapter")
		return
	}
	cards, err := a.Parse(string(text), path, meta)
	if err != nil {
		log.WithFields(log.Fields{"path": path, "adapter": name, "error": err}).
			Warn("adapter failed on source")
		return
	}
	s.results = append(s.results, Source{Path: path, Adapter: name, Cards: cards, Config: meta})
}

func (s *scan) scanDirectory(dir string) {
	var configPath = filepath.Join(dir, srConfigName)
	if _, err := os.Stat(configPath); err == nil {
		s.scanConfiguredDirectory(dir, configPath)
		return
	}

	var entries, err = os.ReadDir(dir)
	if err != nil {
		log.WithFields(log.Fields{"path": dir, "error": err}).Warn("cannot read directory")
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		var path = filepath.Join(dir, entry.Name())
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			s.scanDirectory(path)
		} else if !entry.IsDir() && isMarkdown(path) {
			s.scanMarkdownFile(path)
		}
	}
}

// scanConfiguredDirectory routes every regular file of a .sr.config
// directory through the directory's configured adapter.
func (s *scan) scanConfiguredDirectory(dir, configPath string) {
	var config, err = readSRConfig(configPath)
	if err != nil {
		log.WithFields(log.Fields{"path": configPath, "error": err}).Warn("cannot read .sr.config")
		return
	}
	var name, ok = config.GetString("adapter")
	if !ok || name == "" {
		log.WithField("path", configPath).Warn(".sr.config is missing the adapter key")
		return
	}
	a, err := s.getAdapter(name)
	if err != nil {
		log.WithFields(log.Fields{"path": dir, "adapter": name, "error": err}).
			Warn("cannot load adapter")
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.WithFields(log.Fields{"path": dir, "error": err}).Warn("cannot read directory")
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == srConfigName {
			continue
		}
		var path = filepath.Join(dir, entry.Name())
		if s.seen[path] {
			continue
		}
		s.seen[path] = true

		text, err := os.ReadFile(path)
		if err != nil {
			log.WithFields(log.Fields{"path": path, "error": err}).Warn("cannot read source file")
			continue
		}
		cards, err := a.Parse(string(text), path, config)
		if err != nil {
			log.WithFields(log.Fields{"path": path, "adapter": name, "error": err}).
				Warn("adapter failed on source")
			continue
		}
		s.results = append(s.results, Source{Path: path, Adapter: name, Cards: cards, Config: config})
	}
}
