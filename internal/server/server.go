package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spacesedan/sentimas/config"
	"github.com/spacesedan/sentimas/internal/db"
	"github.com/spacesedan/sentimas/internal/pipeline"
	"github.com/spacesedan/sentimas/internal/server/handlers"
)

type Server struct {
	server *http.Server
	router *chi.Mux
}

type options struct {
	health handlers.StatusReporter
}

type Option func(*options)

// WithHealth makes /health report the state of the monitored dependencies.
func WithHealth(reporter handlers.StatusReporter) Option {
	return func(o *options) { o.health = reporter }
}

func NewServer(cfg config.ServerConfig, cleaner pipeline.Cleaner, analyzer pipeline.Analyzer, store db.Store, opts ...Option) *Server {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	router := chi.NewRouter()

	router.Use(ResponseTime)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CorsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{responseTimeHeader, "X-Request-Id"},
		MaxAge:         300,
	}))

	analysisHandler := handlers.NewAnalysisHandler(cleaner, analyzer, store)

	router.Get("/health", handlers.Health(o.health))
	router.Post("/analizar", analysisHandler.Analyze)
	router.Route("/analisis", func(r chi.Router) {
		r.Get("/", analysisHandler.ListAnalyses)
		r.Get("/resumen", analysisHandler.Summary)
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{server: httpServer, router: router}
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Addr() string { return s.server.Addr }

func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
