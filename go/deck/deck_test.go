package deck

import (
	"encoding/json"
	"testing"

	"github.com/bradleyjkemp/cupaloy"
	"github.com/stretchr/testify/require"

	"github.com/srnotes/sr/go/catalog"
)

func stat(path string, total, active, due int) catalog.SourceStat {
	return catalog.SourceStat{SourcePath: path, Total: total, Active: active, Due: due}
}

func TestBuildStripsCommonPrefix(t *testing.T) {
	var root = Build([]catalog.SourceStat{
		stat("/home/u/notes/math/algebra.md", 4, 3, 2),
		stat("/home/u/notes/math/calculus.md", 2, 2, 1),
		stat("/home/u/notes/chem.md", 1, 1, 0),
	})

	require.Equal(t, "/home/u/notes", root.Path)
	require.Len(t, root.Children, 2)

	// Children sort by name.
	require.Equal(t, "chem.md", root.Children[0].Name)
	require.True(t, root.Children[0].IsLeaf)
	require.Equal(t, "/home/u/notes/chem.md", root.Children[0].Path)

	var math = root.Children[1]
	require.Equal(t, "math", math.Name)
	require.False(t, math.IsLeaf)
	require.Len(t, math.Children, 2)
	require.Equal(t, "algebra.md", math.Children[0].Name)
	require.Equal(t, "calculus.md", math.Children[1].Name)
}

func TestBuildSumsInteriorCounts(t *testing.T) {
	var root = Build([]catalog.SourceStat{
		stat("/n/math/algebra.md", 4, 3, 2),
		stat("/n/math/calculus.md", 2, 2, 1),
		stat("/n/chem.md", 1, 1, 0),
	})

	require.Equal(t, 7, root.Total)
	require.Equal(t, 6, root.Active)
	require.Equal(t, 3, root.Due)

	var math = root.Children[1]
	require.Equal(t, 6, math.Total)
	require.Equal(t, 5, math.Active)
	require.Equal(t, 3, math.Due)
}

func TestBuildCollapsesSingleChildChains(t *testing.T) {
	var root = Build([]catalog.SourceStat{
		stat("/n/a/b/c/deep.md", 1, 1, 1),
		stat("/n/top.md", 1, 1, 0),
	})

	require.Len(t, root.Children, 2)
	// The single-child chain shows as one node carrying the joined name.
	require.Equal(t, "a/b/c/deep.md", root.Children[0].Name)
	require.True(t, root.Children[0].IsLeaf)
	require.Equal(t, "/n/a/b/c/deep.md", root.Children[0].Path)
	require.Equal(t, "top.md", root.Children[1].Name)
}

func TestBuildSingleSourceUsesParentDirectory(t *testing.T) {
	var root = Build([]catalog.SourceStat{
		stat("/home/u/notes/math.md", 3, 2, 1),
	})

	require.Equal(t, "/home/u/notes", root.Path)
	require.Len(t, root.Children, 1)
	require.Equal(t, "math.md", root.Children[0].Name)
	require.True(t, root.Children[0].IsLeaf)
	require.Equal(t, 3, root.Total)
}

func TestTreeSnapshot(t *testing.T) {
	var root = Build([]catalog.SourceStat{
		stat("/home/u/notes/math/algebra.md", 4, 3, 2),
		stat("/home/u/notes/math/calculus.md", 2, 2, 1),
		stat("/home/u/notes/chem.md", 1, 1, 0),
	})

	var encoded, err = json.MarshalIndent(root, "", "  ")
	require.NoError(t, err)
	cupaloy.SnapshotT(t, string(encoded))
}

func TestBuildEmpty(t *testing.T) {
	var root = Build(nil)
	require.Empty(t, root.Children)
	require.Zero(t, root.Total)
}
