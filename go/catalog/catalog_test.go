package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/srnotes/sr/go/content"
)

// testClock is a manually advanced clock driving catalog timestamps.
type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCatalog(t *testing.T) (*Catalog, *testClock) {
	var clock = &testClock{now: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)}
	var cat, err = Open(":memory:", clock.Now)
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	return cat, clock
}

// testCard builds a minimal gradable card for source and key.
func testCard(source, key string) *Card {
	return &Card{
		SourcePath: source,
		CardKey:    key,
		Adapter:    "qa",
		Content: content.FromInterface(map[string]interface{}{
			"question": "question of " + key,
			"answer":   "answer of " + key,
		}),
		DisplayText: "question of " + key,
		Gradable:    true,
		SourceLine:  1,
	}
}

func mustInsert(t *testing.T, cat *Catalog, card *Card, status Status) int64 {
	var id, err = cat.InsertCard(cat.DB(), card, status)
	require.NoError(t, err)
	return id
}

func TestTimeRoundTrip(t *testing.T) {
	var in = time.Date(2026, 8, 25, 16, 4, 5, 0, time.UTC)
	var s = FormatTime(in)
	require.Equal(t, "2026-08-25 16:04:05", s)

	var out, err = ParseTime(s)
	require.NoError(t, err)
	require.True(t, in.Equal(out))
}

func TestTimeComparesLexicallyInChronologicalOrder(t *testing.T) {
	var a = FormatTime(time.Date(2026, 1, 2, 23, 59, 59, 0, time.UTC))
	var b = FormatTime(time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC))
	require.Less(t, a, b)
}
