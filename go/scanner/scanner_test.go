package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/srnotes/sr/go/adapter"
	"github.com/srnotes/sr/go/content"
)

// echoAdapter emits one card per source so tests can observe routing.
type echoAdapter struct{ name string }

func (a echoAdapter) Name() string { return a.name }
func (a echoAdapter) Parse(text, path string, config adapter.SourceConfig) ([]adapter.ParsedCard, error) {
	return []adapter.ParsedCard{{
		Key:        "k1",
		Content:    content.FromInterface(map[string]interface{}{"text": text}),
		Gradable:   true,
		SourceLine: 1,
	}}, nil
}
func (a echoAdapter) RenderFront(content.Value) (string, error) { return "", nil }
func (a echoAdapter) RenderBack(content.Value) (string, error)  { return "", nil }

func getEcho(name string) (adapter.Adapter, error) { return echoAdapter{name: name}, nil }

func write(t *testing.T, path, text string) string {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestScanOptsInViaFrontmatter(t *testing.T) {
	var dir = t.TempDir()
	var in = write(t, filepath.Join(dir, "notes.md"),
		"---\nsr_adapter: qa\ntags: [math]\n---\nQ: hi\nA: there\n")
	write(t, filepath.Join(dir, "plain.md"), "No frontmatter here.\n")
	write(t, filepath.Join(dir, "other.md"), "---\ntags: [x]\n---\nNo adapter key.\n")

	var sources = Scan([]string{dir}, getEcho)
	require.Len(t, sources, 1)
	require.Equal(t, in, sources[0].Path)
	require.Equal(t, "qa", sources[0].Adapter)
	require.Len(t, sources[0].Cards, 1)
	require.Equal(t, []string{"math"}, sources[0].Config.Tags())
}

func TestScanConfiguredDirectory(t *testing.T) {
	var dir = t.TempDir()
	write(t, filepath.Join(dir, ".sr.config"), "adapter = qa\ntags = math\n")
	// Every regular file routes through the adapter, markdown or not.
	write(t, filepath.Join(dir, "a.md"), "Q: a\nA: b\n")
	write(t, filepath.Join(dir, "b.txt"), "Q: c\nA: d\n")

	var sources = Scan([]string{dir}, getEcho)
	require.Len(t, sources, 2)
	require.Equal(t, filepath.Join(dir, "a.md"), sources[0].Path)
	require.Equal(t, filepath.Join(dir, "b.txt"), sources[1].Path)
	for _, s := range sources {
		require.Equal(t, "qa", s.Adapter)
	}
}

func TestScanConfigWithoutAdapterKeyIsSkipped(t *testing.T) {
	var dir = t.TempDir()
	write(t, filepath.Join(dir, ".sr.config"), "tags = math\n")
	write(t, filepath.Join(dir, "a.md"), "---\nsr_adapter: qa\n---\nQ: a\nA: b\n")

	require.Empty(t, Scan([]string{dir}, getEcho))
}

func TestScanRecursesSkippingHiddenDirectories(t *testing.T) {
	var dir = t.TempDir()
	var deep = write(t, filepath.Join(dir, "x", "y", "notes.md"),
		"---\nsr_adapter: qa\n---\nQ: a\nA: b\n")
	write(t, filepath.Join(dir, ".git", "hidden.md"),
		"---\nsr_adapter: qa\n---\nQ: a\nA: b\n")

	var sources = Scan([]string{dir}, getEcho)
	require.Len(t, sources, 1)
	require.Equal(t, deep, sources[0].Path)
}

func TestScanDeduplicatesOverlappingPaths(t *testing.T) {
	var dir = t.TempDir()
	var in = write(t, filepath.Join(dir, "notes.md"),
		"---\nsr_adapter: qa\n---\nQ: a\nA: b\n")

	var sources = Scan([]string{dir, in, dir}, getEcho)
	require.Len(t, sources, 1)
}

func TestScanEmitsSortedWithinDirectory(t *testing.T) {
	var dir = t.TempDir()
	write(t, filepath.Join(dir, "z.md"), "---\nsr_adapter: qa\n---\nQ: z\nA: z\n")
	write(t, filepath.Join(dir, "a.md"), "---\nsr_adapter: qa\n---\nQ: a\nA: a\n")

	var sources = Scan([]string{dir}, getEcho)
	require.Len(t, sources, 2)
	require.Equal(t, filepath.Join(dir, "a.md"), sources[0].Path)
	require.Equal(t, filepath.Join(dir, "z.md"), sources[1].Path)
}

func TestScanIgnoresMissingPaths(t *testing.T) {
	require.Empty(t, Scan([]string{"/no/such/path"}, getEcho))
}

func TestParseFrontmatterTypes(t *testing.T) {
	var meta, err = ParseFrontmatter(
		"---\nsr_adapter: mnmd\nsuspended: true\ntags: [a, b]\n---\nbody\n")
	require.NoError(t, err)

	var name, _ = meta.GetString("sr_adapter")
	require.Equal(t, "mnmd", name)
	require.True(t, meta.GetBool("suspended"))
	require.Equal(t, []string{"a", "b"}, meta.Tags())
}

func TestReadSRConfigTyping(t *testing.T) {
	var path = write(t, filepath.Join(t.TempDir(), ".sr.config"),
		"# comment\nadapter = qa\nsuspended = true\nlimit = 3\nname = \"quoted\"\n\nnoequals\n")

	var config, err = readSRConfig(path)
	require.NoError(t, err)

	var a, _ = config.GetString("adapter")
	require.Equal(t, "qa", a)
	require.True(t, config.GetBool("suspended"))
	require.Equal(t, 3, config["limit"])
	var name, _ = config.GetString("name")
	require.Equal(t, "quoted", name)
	_, ok := config.GetString("noequals")
	require.False(t, ok)
}
