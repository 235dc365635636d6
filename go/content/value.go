// Package content models opaque card content: a structured JSON value which
// the engine canonicalizes and fingerprints, but never interprets. Only
// adapters look inside a Value.
package content

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Value is an adapter-opaque content payload, logically a JSON document.
// The zero Value is empty and canonicalizes to JSON null.
type Value struct {
	doc interface{}
}

// Decode parses raw JSON into a Value. Numbers are retained as their source
// literals so that canonicalization round-trips them exactly.
func Decode(raw []byte) (Value, error) {
	var dec = json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return Value{}, fmt.Errorf("decoding content: %w", err)
	}
	return Value{doc: doc}, nil
}

// FromInterface wraps an already-built document, typically a
// map[string]interface{} assembled by an adapter.
func FromInterface(doc interface{}) Value { return Value{doc: doc} }

// Interface returns the underlying document for rendering.
func (v Value) Interface() interface{} { return v.doc }

// IsZero reports whether the Value holds no document.
func (v Value) IsZero() bool { return v.doc == nil }

// Canonical encodes the Value in canonical JSON: UTF-8, minimal whitespace,
// and object keys sorted lexicographically at every nesting level.
func (v Value) Canonical() ([]byte, error) {
	// First marshal whatever shape we hold, then re-decode into maps and
	// marshal again. Map re-encoding is what sorts keys at every level,
	// independent of how the document was originally built.
	var first, err = encodeCompact(v.doc)
	if err != nil {
		return nil, err
	}

	var dec = json.NewDecoder(bytes.NewReader(first))
	dec.UseNumber()

	var doc interface{}
	if err = dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("re-decoding content: %w", err)
	}
	return encodeCompact(doc)
}

// Fingerprint is the SHA-256 hex digest of the canonical encoding.
// Equal fingerprints imply identical content.
func (v Value) Fingerprint() (string, error) {
	var canonical, err = v.Canonical()
	if err != nil {
		return "", err
	}
	var sum = sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// GetString returns the named top-level field if it's a string.
func (v Value) GetString(key string) (string, bool) {
	var m, ok = v.doc.(map[string]interface{})
	if !ok {
		return "", false
	}
	s, ok := m[key].(string)
	return s, ok
}

// GetInt returns the named top-level field if it's a JSON number with an
// integral value.
func (v Value) GetInt(key string) (int64, bool) {
	var m, ok = v.doc.(map[string]interface{})
	if !ok {
		return 0, false
	}
	switch n := m[key].(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func encodeCompact(doc interface{}) ([]byte, error) {
	var buf bytes.Buffer
	var enc = json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding content: %w", err)
	}
	// Encoder appends a newline, which is not part of the canonical form.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
