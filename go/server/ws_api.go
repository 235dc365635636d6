package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Maximum time we'll wait for a write we initiate to complete.
const wsWriteTimeout = 10 * time.Second

// Interval between session progress snapshots.
const wsEventInterval = time.Second

var wsUpgrader = websocket.Upgrader{
	// The server is loopback-only, so cross-origin pages can't reach it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// sessionEvent is one progress snapshot streamed over /api/events.
type sessionEvent struct {
	Reviewed  int  `json:"reviewed"`
	Remaining int  `json:"remaining"`
	Done      bool `json:"done"`
}

// serveSessionEvents streams session progress snapshots to the review UI
// until the client disconnects.
func serveSessionEvents(a reviewArgs, w http.ResponseWriter, r *http.Request) {
	var conn, err = wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithField("error", err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Drain reads so close frames are processed.
	var closed = make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var ticker = time.NewTicker(wsEventInterval)
	defer ticker.Stop()

	for {
		var remaining, err = a.session.Remaining()
		if err != nil {
			log.WithField("error", err).Warn("counting remaining cards failed")
			return
		}
		var event = sessionEvent{
			Reviewed:  a.session.Reviewed(),
			Remaining: remaining,
			Done:      remaining == 0 && a.session.Current() == nil,
		}

		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err = conn.WriteJSON(event); err != nil {
			return
		}

		select {
		case <-closed:
			return
		case <-ticker.C:
		}
	}
}
