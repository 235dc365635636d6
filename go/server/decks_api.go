package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/srnotes/sr/go/catalog"
	"github.com/srnotes/sr/go/config"
	"github.com/srnotes/sr/go/deck"
	"github.com/srnotes/sr/go/review"
	"github.com/srnotes/sr/go/scheduler"
)

type decksArgs struct {
	cat      *catalog.Catalog
	settings config.Settings
	srDir    string
	launcher *reviewLauncher
}

// RegisterDecksAPIs registers the deck tree UI and its API. POST /api/review
// starts a review server scoped to one deck, or reports the one already
// running.
func RegisterDecksAPIs(router *mux.Router, cat *catalog.Catalog, settings config.Settings, srDir string) {
	var a = decksArgs{cat: cat, settings: settings, srDir: srDir, launcher: &reviewLauncher{}}

	router.Path("/").Methods("GET").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveTemplate(w, "decks.html") })
	router.Path("/api/tree").Methods("GET").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveDeckTree(a, w, r) })
	router.Path("/api/review").Methods("POST").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveLaunchReview(a, w, r) })
}

func serveDeckTree(a decksArgs, w http.ResponseWriter, r *http.Request) {
	var stats, err = a.cat.SourceStats(a.cat.DB(), a.cat.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, deck.Build(stats))
}

func serveLaunchReview(a decksArgs, w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path string `json:"path"`
	}
	if err := readBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var url, already, err = a.launcher.start(a, body.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if already {
		writeJSON(w, http.StatusOK, map[string]string{
			"url":  url,
			"note": "Review server already running",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// reviewLauncher runs at most one deck-scoped review server at a time.
type reviewLauncher struct {
	mu      sync.Mutex
	running *Server
	done    chan struct{}
}

// start launches a review server scoped to deckPath, returning its URL.
// If one is already serving, its URL is returned with already set.
func (l *reviewLauncher) start(a decksArgs, deckPath string) (url string, already bool, _ error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running != nil {
		select {
		case <-l.done:
			l.running = nil
		default:
			return l.running.URL(), true, nil
		}
	}

	var sched scheduler.Scheduler
	if s, err := scheduler.Open(a.settings.Scheduler, a.srDir, nil); err != nil {
		log.WithFields(log.Fields{"scheduler": a.settings.Scheduler, "error": err}).
			Warn("opening scheduler failed; reviewing without one")
	} else {
		sched = s
	}

	var session, err = review.New(review.Config{
		Catalog:   a.cat,
		Scheduler: sched,
		Filters:   catalog.ReviewFilters{PathPrefix: deckPath},
	})
	if err != nil {
		return "", false, err
	}

	srv, err := New(a.settings.ReviewPort)
	if err != nil {
		return "", false, err
	}
	RegisterReviewAPIs(srv.Router, session, a.cat, a.settings)

	var done = make(chan struct{})
	l.running, l.done = srv, done

	go func() {
		defer close(done)
		if err := srv.Serve(context.Background()); err != nil {
			log.WithField("error", err).Warn("deck review server failed")
		}
		if sched != nil {
			sched.Close()
		}
	}()
	return srv.URL(), false, nil
}
