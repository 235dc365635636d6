// Package server hosts the three local web UIs: review (the session
// surface), browse (card listing and management), and decks (the deck tree
// with review launching). Each binds its own loopback port; browse and decks
// sit one and two ports above the review port.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Server is one loopback HTTP server.
type Server struct {
	listener net.Listener
	srv      *http.Server
	Router   *mux.Router
}

// New binds a loopback listener on the given port.
func New(port int) (*Server, error) {
	var listener, err = net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("binding 127.0.0.1:%d: %w", port, err)
	}
	var router = mux.NewRouter()
	return &Server{
		listener: listener,
		srv:      &http.Server{Handler: router},
		Router:   router,
	}, nil
}

// URL is the server's base URL.
func (s *Server) URL() string {
	return fmt.Sprintf("http://%s", s.listener.Addr())
}

// Serve runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	var group, groupCtx = errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := s.srv.Serve(s.listener); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		return s.srv.Shutdown(context.Background())
	})
	return group.Wait()
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithField("error", err).Warn("writing JSON response failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readBody(r *http.Request, into interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(into)
}

func serveTemplate(w http.ResponseWriter, name string) {
	var body, err = templates.ReadFile("templates/" + name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
