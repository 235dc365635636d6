package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/srnotes/sr/go/catalog"
	"github.com/srnotes/sr/go/config"
)

func newBrowseFixture(t *testing.T) (*mux.Router, *catalog.Catalog, int64, int64) {
	var cat = newTestCatalog(t)
	var a = insertTestCard(t, cat, "qa_1")
	var b = insertTestCard(t, cat, "qa_2")
	require.NoError(t, cat.AddTag(cat.DB(), a, "math"))
	require.NoError(t, cat.AddFlag(cat.DB(), b, "needs-work", ""))

	var router = mux.NewRouter()
	RegisterBrowseAPIs(router, cat, config.Settings{})
	return router, cat, a, b
}

func TestBrowseListCards(t *testing.T) {
	var router, _, a, b = newBrowseFixture(t)

	var code, reply = do(t, router, "GET", "/api/cards", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(2), reply["total"])
	require.Equal(t, float64(50), reply["limit"])

	var cards = reply["cards"].([]interface{})
	require.Len(t, cards, 2)
	// Newest first.
	require.Equal(t, float64(b), cards[0].(map[string]interface{})["id"])
	require.Equal(t, float64(a), cards[1].(map[string]interface{})["id"])
}

func TestBrowseListFilters(t *testing.T) {
	var router, _, a, b = newBrowseFixture(t)

	var code, reply = do(t, router, "GET", "/api/cards?tag=math", "", nil)
	require.Equal(t, http.StatusOK, code)
	var cards = reply["cards"].([]interface{})
	require.Len(t, cards, 1)
	require.Equal(t, float64(a), cards[0].(map[string]interface{})["id"])

	code, reply = do(t, router, "GET", "/api/cards?flag=needs-work", "", nil)
	require.Equal(t, http.StatusOK, code)
	cards = reply["cards"].([]interface{})
	require.Len(t, cards, 1)
	require.Equal(t, float64(b), cards[0].(map[string]interface{})["id"])

	// The page size is capped.
	code, reply = do(t, router, "GET", "/api/cards?limit=9999", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(200), reply["limit"])
}

func TestBrowseCardDetail(t *testing.T) {
	var router, _, a, _ = newBrowseFixture(t)

	var code, reply = do(t, router, "GET", fmt.Sprintf("/api/cards/%d", a), "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(a), reply["id"])
	require.Equal(t, "/notes/a.md", reply["source_path"])
	require.Equal(t, "qa", reply["adapter"])
	require.Equal(t, "active", reply["status"])
	require.Equal(t, []interface{}{"math"}, reply["tags"])
	require.Contains(t, reply["front_html"], "front of qa_1")
	require.Contains(t, reply["back_html"], "back of qa_1")
	require.Equal(t, []interface{}{}, reply["reviews"])

	var fields = reply["content"].(map[string]interface{})
	require.Equal(t, "front of qa_1", fields["question"])
}

func TestBrowseCardDetailNotFound(t *testing.T) {
	var router, _, _, _ = newBrowseFixture(t)

	var code, reply = do(t, router, "GET", "/api/cards/999", "", nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Card not found", reply["error"])
}

func TestBrowseStatusAction(t *testing.T) {
	var router, cat, a, _ = newBrowseFixture(t)
	require.NoError(t, cat.UpsertRecommendation(cat.DB(), "sm2", catalog.Recommendation{
		CardID: a, Time: testStart, PrecisionSeconds: 60,
	}))

	var code, reply = do(t, router, "POST", fmt.Sprintf("/api/cards/%d/status", a),
		"", map[string]string{"status": "deleted"})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "status must be 'active' or 'inactive'", reply["error"])

	code, _ = do(t, router, "POST", fmt.Sprintf("/api/cards/%d/status", a),
		"", map[string]string{"status": "inactive"})
	require.Equal(t, http.StatusOK, code)

	var _, status, err = cat.LoadCard(cat.DB(), a)
	require.NoError(t, err)
	require.Equal(t, catalog.StatusInactive, status)

	// Suspension clears pending recommendations.
	_, err = cat.LoadRecommendation(cat.DB(), a, "sm2")
	require.ErrorIs(t, err, catalog.ErrNotFound)

	code, _ = do(t, router, "POST", fmt.Sprintf("/api/cards/%d/status", a),
		"", map[string]string{"status": "active"})
	require.Equal(t, http.StatusOK, code)
	_, status, err = cat.LoadCard(cat.DB(), a)
	require.NoError(t, err)
	require.Equal(t, catalog.StatusActive, status)
}

func TestBrowseTagActions(t *testing.T) {
	var router, cat, a, _ = newBrowseFixture(t)

	var code, reply = do(t, router, "POST", fmt.Sprintf("/api/cards/%d/tag", a),
		"", map[string]string{})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "tag is required", reply["error"])

	code, _ = do(t, router, "POST", fmt.Sprintf("/api/cards/%d/tag", a),
		"", map[string]string{"tag": "physics"})
	require.Equal(t, http.StatusOK, code)

	tags, err := cat.ListTags(cat.DB(), a)
	require.NoError(t, err)
	require.Equal(t, []string{"math", "physics"}, tags)

	code, _ = do(t, router, "POST", fmt.Sprintf("/api/cards/%d/untag", a),
		"", map[string]string{"tag": "math"})
	require.Equal(t, http.StatusOK, code)

	tags, err = cat.ListTags(cat.DB(), a)
	require.NoError(t, err)
	require.Equal(t, []string{"physics"}, tags)
}

func TestBrowseUnknownAction(t *testing.T) {
	var router, _, a, _ = newBrowseFixture(t)

	var code, _ = do(t, router, "POST", fmt.Sprintf("/api/cards/%d/explode", a), "", nil)
	require.Equal(t, http.StatusNotFound, code)
}

func TestBrowseTagAndFlagLists(t *testing.T) {
	var router, _, _, _ = newBrowseFixture(t)

	var list = func(path string) []string {
		var req = httptest.NewRequest("GET", path, nil)
		var rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var out []string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
		return out
	}

	require.Equal(t, []string{"math"}, list("/api/tags"))
	require.Equal(t, []string{"needs-work"}, list("/api/flags"))
}
