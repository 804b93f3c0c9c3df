// Package server exposes the aggregated statistics and contributor datasets as a JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/naka-gawa/namespace-stats/internal/domain"
	"github.com/naka-gawa/namespace-stats/internal/usecase"
)

// StatsService publishes statistics snapshots.
type StatsService interface {
	Load(ctx context.Context) (*domain.StatsSnapshot, error)
	Refresh(ctx context.Context) (*domain.StatsSnapshot, error)
	State() domain.StatsState
}

// ContributorService aggregates and caches contributor datasets.
type ContributorService interface {
	Aggregate(ctx context.Context, user string, forceRefresh bool) (*usecase.ContributorResult, error)
	Cached(ctx context.Context, user string) (*usecase.ContributorResult, error)
	ClearCache(ctx context.Context, user string) error
	CacheTimeRemaining(ctx context.Context, user string) (time.Duration, error)
}

// Config holds server configuration.
type Config struct {
	Address        string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// Server represents the HTTP server and its dependencies.
type Server struct {
	router       *chi.Mux
	config       Config
	stats        StatsService
	contributors ContributorService
	logger       zerolog.Logger
}

// New creates a Server with every route wired.
func New(cfg Config, stats StatsService, contributors ContributorService, logger zerolog.Logger) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		config:       cfg,
		stats:        stats,
		contributors: contributors,
		logger:       logger.With().Str("component", "server").Logger(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	if s.config.RequestTimeout > 0 {
		s.router.Use(chimiddleware.Timeout(s.config.RequestTimeout))
	}

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Post("/stats/refresh", s.handleRefreshStats)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/offchain-names", s.handleOffchainNames)

		r.Route("/contributors/{user}", func(r chi.Router) {
			r.Get("/", s.handleContributors)
			r.Get("/cached", s.handleCachedContributors)
			r.Get("/cache", s.handleCacheStatus)
			r.Delete("/cache", s.handleClearCache)
		})
	})
}

// ServeHTTP makes the Server usable as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", s.config.Address).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
