// Package api exposes the analysis and rewrite engine over HTTP. Every
// request builds a throwaway engine around its own parsed document; the
// assist service, idiom scanner, and fetch client are shared.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/easeread/easeread/internal/assist"
	"github.com/easeread/easeread/internal/fetch"
	"github.com/easeread/easeread/internal/idiom"
)

// MaxRequestBytes caps request bodies. Pages bigger than this are not
// worth analyzing anyway.
const MaxRequestBytes = 10 << 20

// Server is the HTTP front of the engine.
type Server struct {
	router  chi.Router
	assist  assist.Service
	scanner *idiom.Scanner
	fetcher *fetch.Client
	log     zerolog.Logger
}

// NewServer wires routes and middleware around the shared services.
// fetcher may be nil to disable URL input.
func NewServer(svc assist.Service, scanner *idiom.Scanner, fetcher *fetch.Client, log zerolog.Logger) *Server {
	s := &Server{
		assist:  svc,
		scanner: scanner,
		fetcher: fetcher,
		log:     log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/rewrite", s.handleRewrite)
		r.Post("/idioms", s.handleIdioms)
		r.Post("/explain", s.handleExplain)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"assist": s.assist.Probe(r.Context()).String(),
	})
}
