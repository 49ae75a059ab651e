// Package server provides the HTTP server and routing for Radar.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/quiverlabs/radar/internal/analysis"
	"github.com/quiverlabs/radar/internal/pipeline"
	"github.com/quiverlabs/radar/internal/portfolio"
	"github.com/quiverlabs/radar/internal/risk"
)

// Version is reported by the health endpoints.
const Version = "1.0.0"

// Config holds server configuration.
type Config struct {
	Port          int
	DevMode       bool
	Log           zerolog.Logger
	Pipeline      *pipeline.Pipeline
	AnalysisRepo  *analysis.Repository
	PortfolioRepo *portfolio.Repository
	Validator     *risk.Validator
}

// Server is the HTTP surface over the analysis pipeline and its stores.
type Server struct {
	router        *chi.Mux
	server        *http.Server
	log           zerolog.Logger
	pipeline      *pipeline.Pipeline
	analysisRepo  *analysis.Repository
	portfolioRepo *portfolio.Repository
	validator     *risk.Validator
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		log:           cfg.Log.With().Str("component", "server").Logger(),
		pipeline:      cfg.Pipeline,
		analysisRepo:  cfg.AnalysisRepo,
		portfolioRepo: cfg.PortfolioRepo,
		validator:     cfg.Validator,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/analysis", func(r chi.Router) {
			r.Post("/start", s.handleAnalysisStart)
			r.Get("/progress", s.handleAnalysisProgress)
			r.Get("/status", s.handleAnalysisStatus)
			r.Get("/latest", s.handleAnalysisLatest)
		})

		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/", s.handlePortfolio)
			r.Get("/validate", s.handlePortfolioValidate)
		})

		r.Get("/universe", s.handleUniverse)
	})
}

// Start starts the HTTP server. Blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
