package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/srnotes/sr/go/catalog"
	"github.com/srnotes/sr/go/config"
	"github.com/srnotes/sr/go/content"
	"github.com/srnotes/sr/go/review"
)

type reviewArgs struct {
	session  *review.Session
	cat      *catalog.Catalog
	settings config.Settings
}

// RegisterReviewAPIs registers the review UI and its API on the router.
// Every /api endpoint except /api/session requires the session token in the
// X-Session-Token header.
func RegisterReviewAPIs(router *mux.Router, session *review.Session, cat *catalog.Catalog, settings config.Settings) {
	var a = reviewArgs{session: session, cat: cat, settings: settings}

	router.Path("/").Methods("GET").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveTemplate(w, "review.html") })
	router.Path("/metrics").Methods("GET").Handler(promhttp.Handler())
	router.Path("/api/session").Methods("GET").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveSessionToken(a, w, r) })

	var apis = []struct {
		path    string
		methods []string
		fn      func(reviewArgs, http.ResponseWriter, *http.Request)
	}{
		{"/api/next", []string{"GET"}, serveNext},
		{"/api/status", []string{"GET"}, serveSessionStatus},
		{"/api/events", []string{"GET"}, serveSessionEvents},
		{"/api/flip", []string{"POST"}, serveFlip},
		{"/api/grade", []string{"POST"}, serveGrade},
		{"/api/skip", []string{"POST"}, serveSkip},
		{"/api/undo", []string{"POST"}, serveUndo},
		{"/api/flag", []string{"POST"}, serveSessionFlag},
		{"/api/unflag", []string{"POST"}, serveSessionUnflag},
		{"/api/edit", []string{"POST"}, serveSessionEdit},
		{"/api/suspend", []string{"POST"}, serveSuspend},
	}
	for _, api := range apis {
		var fn = api.fn
		router.Path(api.path).Methods(api.methods...).
			HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := a.session.VerifyToken(sessionToken(r)); err != nil {
					writeError(w, http.StatusForbidden, "Invalid session token")
					return
				}
				fn(a, w, r)
			})
	}
}

// sessionToken extracts the presented session token. Browsers can't set
// headers on a websocket handshake, so /api/events passes it as a query
// parameter instead.
func sessionToken(r *http.Request) string {
	if token := r.Header.Get("X-Session-Token"); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

func serveSessionToken(a reviewArgs, w http.ResponseWriter, r *http.Request) {
	var token, err = a.session.Token()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_token": token})
}

func serveNext(a reviewArgs, w http.ResponseWriter, r *http.Request) {
	var card, err = a.session.Next()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if card == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"done": true,
			"session_stats": map[string]int{
				"reviewed":  a.session.Reviewed(),
				"remaining": 0,
			},
		})
		return
	}

	remaining, err := a.session.Remaining()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	flags, err := a.cat.ListFlags(a.cat.DB(), card.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"done":       false,
		"id":         card.ID,
		"gradable":   card.Gradable,
		"front_html": renderFrontHTML(a.session, card),
		"flags":      flagNames(flags),
		"session_stats": map[string]int{
			"reviewed":  a.session.Reviewed(),
			"remaining": remaining,
		},
	})
}

func serveSessionStatus(a reviewArgs, w http.ResponseWriter, r *http.Request) {
	var remaining, err = a.session.Remaining()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"reviewed":  a.session.Reviewed(),
		"remaining": remaining,
	})
}

func serveFlip(a reviewArgs, w http.ResponseWriter, r *http.Request) {
	var back, err = a.session.Flip()
	if err == review.ErrNoCurrentCard {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	} else if err != nil {
		back = renderErrorHTML(a.session.Current(), err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"back_html": back})
}

func serveGrade(a reviewArgs, w http.ResponseWriter, r *http.Request) {
	var body struct {
		Grade    *int                   `json:"grade"`
		Feedback string                 `json:"feedback"`
		Response map[string]interface{} `json:"response"`
	}
	if err := readBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Grade == nil || (*body.Grade != 0 && *body.Grade != 1) {
		writeError(w, http.StatusBadRequest, "grade must be 0 or 1")
		return
	}

	var response content.Value
	if body.Response != nil {
		response = content.FromInterface(body.Response)
	}
	if err := a.session.Grade(*body.Grade, body.Feedback, response); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func serveSkip(a reviewArgs, w http.ResponseWriter, r *http.Request) {
	if err := a.session.Skip(); err != nil && err != review.ErrNoCurrentCard {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func serveUndo(a reviewArgs, w http.ResponseWriter, r *http.Request) {
	var card, err = a.session.Undo()
	if err == review.ErrNothingToUndo {
		writeError(w, http.StatusBadRequest, "Nothing to undo")
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var back, backErr = a.session.RenderBack(card)
	if backErr != nil {
		back = renderErrorHTML(card, backErr)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"front_html": renderFrontHTML(a.session, card),
		"back_html":  back,
	})
}

func serveSessionFlag(a reviewArgs, w http.ResponseWriter, r *http.Request) {
	var body struct {
		Flag string `json:"flag"`
		Note string `json:"note"`
	}
	if err := readBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Flag == "" {
		writeError(w, http.StatusBadRequest, "flag is required")
		return
	}
	var card = a.session.Current()
	if card == nil {
		writeError(w, http.StatusBadRequest, "No current card")
		return
	}
	if err := a.cat.AddFlag(a.cat.DB(), card.ID, body.Flag, body.Note); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	flags, err := a.cat.ListFlags(a.cat.DB(), card.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "flags": flagNames(flags)})
}

func serveSessionUnflag(a reviewArgs, w http.ResponseWriter, r *http.Request) {
	var body struct {
		Flag string `json:"flag"`
	}
	if err := readBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Flag == "" {
		writeError(w, http.StatusBadRequest, "flag is required")
		return
	}
	var card = a.session.Current()
	if card == nil {
		writeError(w, http.StatusBadRequest, "No current card")
		return
	}
	if err := a.cat.RemoveFlag(a.cat.DB(), card.ID, body.Flag); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	flags, err := a.cat.ListFlags(a.cat.DB(), card.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "flags": flagNames(flags)})
}

func serveSessionEdit(a reviewArgs, w http.ResponseWriter, r *http.Request) {
	var card = a.session.Current()
	if card == nil {
		writeError(w, http.StatusBadRequest, "No current card")
		return
	}
	var line = card.SourceLine
	if line < 1 {
		line = 1
	}
	if err := spawnEdit(a.settings, card.SourcePath, line); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func serveSuspend(a reviewArgs, w http.ResponseWriter, r *http.Request) {
	var err = a.session.Suspend()
	if err == review.ErrNoCurrentCard {
		writeError(w, http.StatusBadRequest, "No current card")
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "suspended": true})
}

// renderFrontHTML renders a card front, substituting an inline error notice
// when the adapter fails so the session can continue.
func renderFrontHTML(session *review.Session, card *catalog.Card) string {
	var html, err = session.RenderFront(card)
	if err != nil {
		log.WithFields(log.Fields{"card": card.ID, "error": err}).Warn("rendering card front failed")
		return renderErrorHTML(card, err)
	}
	return html
}

func renderErrorHTML(card *catalog.Card, err error) string {
	var id int64
	if card != nil {
		id = card.ID
	}
	return fmt.Sprintf(`<div style="color:var(--wrong)">Render error (card %d): %s</div>`, id, err)
}

func flagNames(flags []catalog.Flag) []string {
	var out = []string{}
	for _, f := range flags {
		out = append(out, f.Flag)
	}
	return out
}
