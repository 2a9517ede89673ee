// Package api provides a read-only REST facade over the resource
// registries, a second named consumer alongside internal/mcpfacade
// (spec.md §1: this repo provides thin adapters, not the MCP dispatch
// surface or a CRUD UI).
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ternarybob/promptd/internal/config"
	"github.com/ternarybob/promptd/internal/env"
)

// Server represents the API server.
type Server struct {
	cfg         *config.Config
	router      chi.Router
	environment *env.Environment
}

// NewServer creates a new API server over environment's registries.
func NewServer(cfg *config.Config, environment *env.Environment) *Server {
	s := &Server{
		cfg:         cfg,
		environment: environment,
	}

	s.setupRouter()
	return s
}

// setupRouter configures all routes.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.API.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "X-API-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if s.cfg.API.APIKey != "" {
		r.Use(s.apiKeyAuth)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/resources", func(r chi.Router) {
		r.Get("/{type}", s.handleListResources)
		r.Get("/{type}/status", s.handleReloadStatus)
		r.Get("/{type}/{id}", s.handleGetResource)
	})

	s.router = r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// apiKeyAuth is middleware that validates API key.
func (s *Server) apiKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/version" {
			next.ServeHTTP(w, r)
			return
		}

		if s.cfg.API.APIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey != s.cfg.API.APIKey {
			writeError(w, http.StatusUnauthorized, "Invalid or missing API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}
