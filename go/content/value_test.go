package content

import (
	"testing"

	"github.com/nsf/jsondiff"
	"github.com/stretchr/testify/require"
)

func TestCanonicalSortsKeysAtEveryLevel(t *testing.T) {
	var v, err = Decode([]byte(`{"q": "x", "a": {"z": 1, "m": [{"b": 2, "a": 3}]}}`))
	require.NoError(t, err)

	canonical, err := v.Canonical()
	require.NoError(t, err)
	require.Equal(t, `{"a":{"m":[{"a":3,"b":2}],"z":1},"q":"x"}`, string(canonical))
}

func TestCanonicalIsSemanticallyEqualToInput(t *testing.T) {
	var input = []byte(`{
		"question": "what <em>is</em> 1 + 1?",
		"answer":   "2",
		"meta":     {"difficulty": 0.25, "seen": 17, "unicode": "héllo"}
	}`)

	var v, err = Decode(input)
	require.NoError(t, err)

	canonical, err := v.Canonical()
	require.NoError(t, err)

	var diff, _ = jsondiff.Compare(input, canonical, &jsonDiffOptions)
	require.Equal(t, jsondiff.FullMatch, diff)
}

func TestCanonicalPreservesNumberLiterals(t *testing.T) {
	var v, err = Decode([]byte(`{"int": 42, "big": 9007199254740993, "frac": 0.1}`))
	require.NoError(t, err)

	canonical, err := v.Canonical()
	require.NoError(t, err)
	require.Equal(t, `{"big":9007199254740993,"frac":0.1,"int":42}`, string(canonical))
}

func TestCanonicalDoesNotEscapeHTML(t *testing.T) {
	var v = FromInterface(map[string]interface{}{"q": "<b>2 & 3</b>"})

	var canonical, err = v.Canonical()
	require.NoError(t, err)
	require.Equal(t, `{"q":"<b>2 & 3</b>"}`, string(canonical))
}

func TestFingerprintIsStableAcrossFieldOrder(t *testing.T) {
	var a, err = Decode([]byte(`{"q":"x","a":"y"}`))
	require.NoError(t, err)
	b, err := Decode([]byte(`{"a":"y","q":"x"}`))
	require.NoError(t, err)

	fpA, err := a.Fingerprint()
	require.NoError(t, err)
	fpB, err := b.Fingerprint()
	require.NoError(t, err)

	require.Equal(t, fpA, fpB)
	require.Len(t, fpA, 64)
}

func TestFingerprintDiffersOnContentChange(t *testing.T) {
	var a = FromInterface(map[string]interface{}{"q": "x", "a": "y"})
	var b = FromInterface(map[string]interface{}{"q": "x", "a": "Y"})

	var fpA, err = a.Fingerprint()
	require.NoError(t, err)
	fpB, err := b.Fingerprint()
	require.NoError(t, err)
	require.NotEqual(t, fpA, fpB)
}

func TestZeroValue(t *testing.T) {
	var v Value
	require.True(t, v.IsZero())

	var canonical, err = v.Canonical()
	require.NoError(t, err)
	require.Equal(t, `null`, string(canonical))
}

func TestFieldAccessors(t *testing.T) {
	var v, err = Decode([]byte(`{"question":"q","source_line":12}`))
	require.NoError(t, err)

	q, ok := v.GetString("question")
	require.True(t, ok)
	require.Equal(t, "q", q)

	line, ok := v.GetInt("source_line")
	require.True(t, ok)
	require.Equal(t, int64(12), line)

	_, ok = v.GetString("missing")
	require.False(t, ok)
}

var jsonDiffOptions = jsondiff.DefaultJSONOptions()
