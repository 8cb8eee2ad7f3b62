// Package server wires configuration, storage, cache, services and HTTP
// routes together and runs the HTTP server with graceful shutdown.
//
// Route layout:
//
//	GET  /healthz                         database reachability
//	GET  /metrics                         Prometheus scrape endpoint
//	     /api/templates/...               template authoring and rendering (bearer token)
//	POST /api/admin/templates/seed        idempotent built-in catalog seeding (admin key)
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/wapanel/internal/auth"
	"github.com/sakif/wapanel/internal/cache"
	"github.com/sakif/wapanel/internal/config"
	"github.com/sakif/wapanel/internal/handler"
	"github.com/sakif/wapanel/internal/middleware"
	sqliteRepo "github.com/sakif/wapanel/internal/repository/sqlite"
	"github.com/sakif/wapanel/internal/service"
)

// Server owns the database connection and the optional Redis cache; both are
// closed when Start returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	cache  *cache.SystemTemplates
}

// New opens the database, connects to Redis when configured and builds the
// router. A Redis outage at startup downgrades to running without a cache.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	admin, err := auth.NewAdminVerifier(cfg.AdminKeyHash)
	if err != nil {
		return nil, fmt.Errorf("creating admin verifier: %w", err)
	}
	if !admin.Enabled() {
		logger.Warn("ADMIN_KEY_HASH not set, admin routes are disabled")
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	opts := service.Options{MissingOptional: cfg.MissingOptional}
	if cfg.CacheEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		c, err := cache.Connect(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, serving system templates without cache",
				slog.String("addr", cfg.RedisAddr),
				slog.String("error", err.Error()),
			)
		} else {
			s.cache = c
			opts.Cache = c
		}
	}

	templateService := service.NewTemplateService(db, logger, opts)
	s.setupRoutes(tokens, admin, templateService)

	return s, nil
}

func (s *Server) setupRoutes(tokens *auth.TokenService, admin *auth.AdminVerifier, svc *service.TemplateService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	health := handler.NewHealthHandler(s.db, s.logger)
	s.router.Get("/healthz", health.HandleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	templates := handler.NewTemplateHandler(svc, s.config.SystemOwnerTag, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Use(auth.DetectAdmin(admin))

		templates.Mount(r)
		r.With(auth.RequireAdmin).Post("/admin/templates/seed", templates.HandleSeed)
	})
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the cache client and the database.
func (s *Server) Close() error {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn("closing redis client", slog.String("error", err.Error()))
		}
	}
	return s.db.Close()
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for up
// to 30 seconds before closing the database and cache.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.Bool("cache", s.cache != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
