package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialEvents(t *testing.T, srv *httptest.Server, query string) (*websocket.Conn, *http.Response, error) {
	var wsURL = "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events" + query
	return websocket.DefaultDialer.Dial(wsURL, nil)
}

func TestSessionEventsStreamsProgress(t *testing.T) {
	var router, _, token = newReviewFixture(t)
	var srv = httptest.NewServer(router)
	defer srv.Close()

	// Browsers can't set headers on the handshake, so the token rides the
	// query string.
	var conn, _, err = dialEvents(t, srv, "?token="+url.QueryEscape(token))
	require.NoError(t, err)
	defer conn.Close()

	var event sessionEvent
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, 0, event.Reviewed)
	require.Equal(t, 2, event.Remaining)
	require.False(t, event.Done)
}

func TestSessionEventsRequiresToken(t *testing.T) {
	var router, _, _ = newReviewFixture(t)
	var srv = httptest.NewServer(router)
	defer srv.Close()

	var _, resp, err = dialEvents(t, srv, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}
