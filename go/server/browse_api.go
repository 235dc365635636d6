package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/srnotes/sr/go/adapter"
	"github.com/srnotes/sr/go/catalog"
	"github.com/srnotes/sr/go/config"
)

type browseArgs struct {
	cat      *catalog.Catalog
	settings config.Settings
}

// RegisterBrowseAPIs registers the card browser UI and its API.
func RegisterBrowseAPIs(router *mux.Router, cat *catalog.Catalog, settings config.Settings) {
	var a = browseArgs{cat: cat, settings: settings}

	router.Path("/").Methods("GET").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveTemplate(w, "browse.html") })
	router.Path("/api/cards").Methods("GET").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveCardList(a, w, r) })
	router.Path("/api/cards/{id:[0-9]+}").Methods("GET").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveCardDetail(a, w, r) })
	router.Path("/api/cards/{id:[0-9]+}/{action}").Methods("POST").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveCardAction(a, w, r) })
	router.Path("/api/tags").Methods("GET").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveTagList(a, w, r) })
	router.Path("/api/flags").Methods("GET").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serveFlagList(a, w, r) })
}

func serveCardList(a browseArgs, w http.ResponseWriter, r *http.Request) {
	var qs = r.URL.Query()
	var filter = catalog.BrowseFilter{
		Status: catalog.Status(qs.Get("status")),
		Tag:    qs.Get("tag"),
		Flag:   qs.Get("flag"),
		Query:  qs.Get("q"),
		Limit:  50,
	}
	if v, err := strconv.Atoi(qs.Get("offset")); err == nil && v > 0 {
		filter.Offset = v
	}
	if v, err := strconv.Atoi(qs.Get("limit")); err == nil && v > 0 {
		filter.Limit = v
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}

	var cards, total, err = a.cat.ListCards(a.cat.DB(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cards == nil {
		cards = []catalog.CardSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cards":  cards,
		"total":  total,
		"offset": filter.Offset,
		"limit":  filter.Limit,
	})
}

func serveCardDetail(a browseArgs, w http.ResponseWriter, r *http.Request) {
	var cardID, _ = strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	var card, status, err = a.cat.LoadCard(a.cat.DB(), cardID)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Card not found")
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	tags, err := a.cat.ListTags(a.cat.DB(), cardID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tags == nil {
		tags = []string{}
	}
	flags, err := a.cat.ListFlags(a.cat.DB(), cardID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	reviews, err := a.cat.ListReviews(a.cat.DB(), cardID, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if reviews == nil {
		reviews = []catalog.ReviewRow{}
	}

	var frontHTML, backHTML string
	if ad, err := adapter.Get(card.Adapter); err != nil {
		frontHTML = renderErrorHTML(card, err)
	} else {
		if frontHTML, err = adapter.RenderFront(ad, card.Content); err != nil {
			frontHTML = renderErrorHTML(card, err)
		}
		if backHTML, err = adapter.RenderBack(ad, card.Content); err != nil {
			backHTML = ""
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":           card.ID,
		"display_text": card.DisplayText,
		"source_path":  card.SourcePath,
		"adapter":      card.Adapter,
		"content":      card.Content.Interface(),
		"status":       status,
		"tags":         tags,
		"flags":        flagNames(flags),
		"reviews":      reviews,
		"front_html":   frontHTML,
		"back_html":    backHTML,
	})
}

func serveCardAction(a browseArgs, w http.ResponseWriter, r *http.Request) {
	var vars = mux.Vars(r)
	var cardID, _ = strconv.ParseInt(vars["id"], 10, 64)

	var body struct {
		Status string `json:"status"`
		Flag   string `json:"flag"`
		Note   string `json:"note"`
		Tag    string `json:"tag"`
	}
	if err := readBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch vars["action"] {
	case "status":
		var status = catalog.Status(body.Status)
		if status != catalog.StatusActive && status != catalog.StatusInactive {
			writeError(w, http.StatusBadRequest, "status must be 'active' or 'inactive'")
			return
		}
		if err := a.cat.UpdateStatus(a.cat.DB(), cardID, status); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if status == catalog.StatusInactive {
			if err := a.cat.DeleteRecommendations(a.cat.DB(), cardID); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}

	case "flag":
		if body.Flag == "" {
			writeError(w, http.StatusBadRequest, "flag is required")
			return
		}
		if err := a.cat.AddFlag(a.cat.DB(), cardID, body.Flag, body.Note); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

	case "unflag":
		if body.Flag == "" {
			writeError(w, http.StatusBadRequest, "flag is required")
			return
		}
		if err := a.cat.RemoveFlag(a.cat.DB(), cardID, body.Flag); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

	case "tag":
		if body.Tag == "" {
			writeError(w, http.StatusBadRequest, "tag is required")
			return
		}
		if err := a.cat.AddTag(a.cat.DB(), cardID, body.Tag); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

	case "untag":
		if body.Tag == "" {
			writeError(w, http.StatusBadRequest, "tag is required")
			return
		}
		if err := a.cat.RemoveTag(a.cat.DB(), cardID, body.Tag); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

	case "edit":
		var card, _, err = a.cat.LoadCard(a.cat.DB(), cardID)
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Card not found")
			return
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		var line = card.SourceLine
		if line < 1 {
			line = 1
		}
		if err = spawnEdit(a.settings, card.SourcePath, line); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

	default:
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func serveTagList(a browseArgs, w http.ResponseWriter, r *http.Request) {
	var tags, err = a.cat.DistinctTags(a.cat.DB())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func serveFlagList(a browseArgs, w http.ResponseWriter, r *http.Request) {
	var flags, err = a.cat.DistinctFlags(a.cat.DB())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if flags == nil {
		flags = []string{}
	}
	writeJSON(w, http.StatusOK, flags)
}
