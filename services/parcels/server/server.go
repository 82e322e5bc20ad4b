// Package server exposes batch scraping over REST for the county
// staff dashboard. One run at a time: the scraper is strictly serial,
// so concurrent runs would only fight over the same session.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cvdnnn/clark-county-apn-scraper/services/parcels"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Options struct {
	// bearer token required on every /api route, empty disables the
	// check for local use
	AccessToken string
}

type Server struct {
	service parcels.Service
	options Options

	// runs spawned by the api outlive their request, they inherit
	// this context instead
	baseCtx context.Context

	runMu   sync.Mutex
	running bool
	runWg   sync.WaitGroup
}

// Wait blocks until any background run has finished its bookkeeping.
// Callers shut the database down only after this returns.
func (s *Server) Wait() {
	s.runWg.Wait()
}

func New(ctx context.Context, service parcels.Service, options Options) *Server {
	return &Server{
		service: service,
		options: options,
		baseCtx: ctx,
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireAccessToken)
		r.Post("/runs", s.handleCreateRun)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/runs/{id}/records", s.handleListRecords)
		r.Get("/runs/{id}/export.csv", s.handleExportCSV)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.InfoContext(
			r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"seconds", time.Since(start).Seconds(),
		)
	})
}

func (s *Server) requireAccessToken(next http.Handler) http.Handler {
	if s.options.AccessToken == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.Split(r.Header.Get("Authorization"), " ")
		if len(token) != 2 || token[1] != s.options.AccessToken {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		slog.Warn("failed to encode response", "err", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
