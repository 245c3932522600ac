// Package server wires the application together: router, middleware,
// routes, and lifecycle. It is the composition root — every dependency is
// assembled here (and in main.go), nowhere else.
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

	"github.com/sakif/traction/internal/auth"
	"github.com/sakif/traction/internal/handler"
	"github.com/sakif/traction/internal/middleware"
	"github.com/sakif/traction/internal/model"
	sqliteRepo "github.com/sakif/traction/internal/repository/sqlite"
	"github.com/sakif/traction/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port          int
	TemplateDir   string
	DBPath        string
	SessionSecret string
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates the server and assembles the dependency chain:
// DB → repositories → services → handlers → routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
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

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and all routes.
//
// Route map:
//
//	GET  /                 → redirect to /dashboard
//	GET  /login /register  → forms; POST submits them
//	POST /auth/logout      → clear session cookie
//	GET  /dashboard        → dashboard page (session, redirect to login)
//	GET  /healthz          → store probe
//	/api/*                 → JSON, session required (401 without):
//	  GET  /api/me
//	  GET+POST /api/{scorecards,rocks,headlines,todos,ids,conclusions}
//	  PATCH /api/rocks/{id}/status, /api/todos/{id}/status
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	recordService := service.NewRecordService(s.db, s.logger)

	pages, err := handler.NewPageHandler(s.config.TemplateDir, authService, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}
	authHandler := handler.NewAuthHandler(authService, pages, s.logger)
	recordHandler := handler.NewRecordHandler(recordService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	// Public pages and auth flow
	s.router.Get("/", pages.HandleIndex)
	s.router.Get("/login", pages.HandleLoginPage)
	s.router.Post("/login", authHandler.HandleLoginSubmit)
	s.router.Get("/register", pages.HandleRegisterPage)
	s.router.Post("/register", authHandler.HandleRegisterSubmit)
	s.router.Post("/auth/logout", authHandler.HandleLogout)
	s.router.Get("/healthz", healthHandler.HandleHealth)

	// Pages behind the session gate — anonymous browsers go to /login
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireSessionRedirect(tokens))
		r.Get("/dashboard", pages.HandleDashboard)
	})

	// JSON API behind the session gate — anonymous callers get 401
	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireSession(tokens))

		r.Get("/me", authHandler.HandleMe)

		mount := func(r chi.Router, path string, kind model.Kind) {
			r.Get(path, recordHandler.List(kind))
			r.Post(path, recordHandler.Create(kind))
		}
		mount(r, "/scorecards", model.KindScorecard)
		mount(r, "/rocks", model.KindRock)
		mount(r, "/headlines", model.KindPeopleHeadline)
		mount(r, "/todos", model.KindToDo)
		mount(r, "/ids", model.KindIDS)
		mount(r, "/conclusions", model.KindConclude)

		r.Patch("/rocks/{id}/status", recordHandler.UpdateStatus(model.KindRock))
		r.Patch("/todos/{id}/status", recordHandler.UpdateStatus(model.KindToDo))
	})

	return nil
}

// Handler exposes the assembled router, mainly for httptest in handler
// tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the server's resources without going through Start's
// signal loop. Tests use this; production shutdown happens inside Start.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database (flushes the WAL, releases the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

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
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
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
