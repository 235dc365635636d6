package adapter

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/srnotes/sr/go/content"
)

// Rendering is referentially transparent, so rendered HTML is memoized by
// (adapter, content fingerprint, side). The cache is process-wide and safe
// for concurrent use.
var renderCache, _ = lru.New[renderKey, string](1024)

type renderKey struct {
	adapter     string
	fingerprint string
	back        bool
}

// RenderFront renders the front of a card through the memo cache.
func RenderFront(a Adapter, c content.Value) (string, error) {
	return render(a, c, false)
}

// RenderBack renders the back of a card through the memo cache.
func RenderBack(a Adapter, c content.Value) (string, error) {
	return render(a, c, true)
}

func render(a Adapter, c content.Value, back bool) (string, error) {
	var fingerprint, err = c.Fingerprint()
	if err != nil {
		// Content which can't be fingerprinted can't be cached,
		// but may still render.
		return renderSide(a, c, back)
	}
	var key = renderKey{adapter: a.Name(), fingerprint: fingerprint, back: back}

	if html, ok := renderCache.Get(key); ok {
		return html, nil
	}
	html, err := renderSide(a, c, back)
	if err != nil {
		return "", err
	}
	renderCache.Add(key, html)
	return html, nil
}

func renderSide(a Adapter, c content.Value, back bool) (string, error) {
	if back {
		return a.RenderBack(c)
	}
	return a.RenderFront(c)
}
