// Package deck aggregates per-source review statistics into a hierarchy
// mirroring the filesystem layout of the sources, for display as a deck tree.
package deck

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/srnotes/sr/go/catalog"
)

// Node is one deck: a source file (leaf) or a directory grouping (interior).
// Interior counts are sums over all descendant leaves.
type Node struct {
	// Name is the path segment, with collapsed chains joined by "/".
	Name string `json:"name"`
	// Path is the absolute source path for leaves, the directory for
	// interior nodes.
	Path     string  `json:"path"`
	Children []*Node `json:"children,omitempty"`
	Total    int     `json:"total"`
	Active   int     `json:"active"`
	Due      int     `json:"due"`
	IsLeaf   bool    `json:"is_leaf"`
}

// Build arranges source statistics into a deck tree. The shared leading
// directory of all sources is stripped, and interior nodes with a single
// child are collapsed into their child so the tree shows only the segments
// that distinguish sources.
func Build(stats []catalog.SourceStat) *Node {
	var root = &Node{}
	if len(stats) == 0 {
		return root
	}

	var paths = make([]string, len(stats))
	for i, st := range stats {
		paths[i] = st.SourcePath
	}
	var prefix = commonDir(paths)
	root.Path = prefix

	for _, st := range stats {
		var rel = strings.TrimPrefix(st.SourcePath, prefix)
		rel = strings.TrimPrefix(rel, "/")
		insert(root, strings.Split(rel, "/"), st)
	}

	collapse(root)
	sum(root)
	return root
}

// commonDir is the deepest directory containing every path. With a single
// source, or when the common prefix is itself a source, the parent directory
// is used so the source still appears as a child deck.
func commonDir(paths []string) string {
	var common = paths[0]
	for _, p := range paths[1:] {
		common = commonPrefix(common, p)
	}
	for _, p := range paths {
		if p == common {
			return filepath.Dir(common)
		}
	}
	return common
}

// commonPrefix is the longest shared leading path, on whole segments.
func commonPrefix(a, b string) string {
	var as, bs = strings.Split(a, "/"), strings.Split(b, "/")
	var n = 0
	for n < len(as) && n < len(bs) && as[n] == bs[n] {
		n++
	}
	return strings.Join(as[:n], "/")
}

func insert(root *Node, segments []string, st catalog.SourceStat) {
	var node = root
	for i, seg := range segments {
		var leaf = i == len(segments)-1
		var child = findChild(node, seg)
		if child == nil {
			child = &Node{
				Name: seg,
				Path: strings.TrimSuffix(node.Path, "/") + "/" + seg,
			}
			node.Children = append(node.Children, child)
		}
		if leaf {
			child.IsLeaf = true
			child.Path = st.SourcePath
			child.Total = st.Total
			child.Active = st.Active
			child.Due = st.Due
		}
		node = child
	}
}

func findChild(node *Node, name string) *Node {
	for _, c := range node.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// collapse merges interior nodes having exactly one child into that child,
// and sorts children by name.
func collapse(node *Node) {
	for i, c := range node.Children {
		collapse(c)
		for !c.IsLeaf && len(c.Children) == 1 {
			var only = c.Children[0]
			only.Name = c.Name + "/" + only.Name
			node.Children[i] = only
			c = only
		}
	}
	sort.Slice(node.Children, func(i, j int) bool {
		return node.Children[i].Name < node.Children[j].Name
	})
}

// sum fills interior counts from descendant leaves.
func sum(node *Node) (total, active, due int) {
	if node.IsLeaf {
		return node.Total, node.Active, node.Due
	}
	for _, c := range node.Children {
		var t, a, d = sum(c)
		total += t
		active += a
		due += d
	}
	node.Total, node.Active, node.Due = total, active, due
	return total, active, due
}
