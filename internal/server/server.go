// Package server wires handlers, middleware, and routes, and owns the HTTP
// server lifecycle. It is the composition root: every dependency is
// constructed here, in one place.
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

	"github.com/campusboard/showcase/internal/auth"
	"github.com/campusboard/showcase/internal/handler"
	"github.com/campusboard/showcase/internal/middleware"
	sqliteRepo "github.com/campusboard/showcase/internal/repository/sqlite"
	"github.com/campusboard/showcase/internal/service"
)

// Config holds server configuration, loaded from the environment in
// cmd/server.
type Config struct {
	Port               int
	DBPath             string
	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
	AllowedEmailDomain string // e.g. "anu.edu.in"; empty allows any account
	AdminEmail         string // the single administrator address
}

// Server holds the router and the resources it owns. The database
// connection is owned by the server and closed on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the dependency chain: database → services → handlers →
// routes. Each layer receives only what it needs; handlers never touch the
// database and services never see HTTP.
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

// setupRoutes configures middleware and all route handlers.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	google := auth.NewGoogleProvider(
		s.config.GoogleClientID,
		s.config.GoogleClientSecret,
		s.config.GoogleCallbackURL,
		s.config.AllowedEmailDomain,
	)

	access := auth.Access{AdminEmail: s.config.AdminEmail}

	users := s.db.Users()
	buckets := s.db.Buckets()
	items := s.db.Items()

	authService := service.NewAuthService(users, tokens, s.logger)
	contributionService := service.NewContributionService(users, buckets, items, s.logger)
	itemService := service.NewItemService(items, users, contributionService, access, s.logger)

	authHandler := handler.NewAuthHandler(google, authService, s.logger)
	itemHandler := handler.NewItemHandler(itemService, s.logger)
	boardHandler := handler.NewBoardHandler(contributionService, s.logger)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// OAuth flow
	s.router.Get("/auth/google", authHandler.HandleGoogleLogin)
	s.router.Get("/auth/google/callback", authHandler.HandleGoogleCallback)
	s.router.Get("/auth/logout", authHandler.HandleLogout)

	s.router.Route("/api", func(r chi.Router) {
		// Public: session state and leaderboards.
		r.With(auth.OptionalAuth(tokens)).Get("/user", authHandler.HandleCurrentUser)
		r.Get("/leaderboard", boardHandler.HandleLeaderboard)

		// Everything else requires a signed-in user. Admin-only
		// operations additionally check the acting user in the service.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/user/stats", boardHandler.HandleUserStats)

			r.Get("/items", itemHandler.HandleList)
			r.Post("/items", itemHandler.HandleCreate)
			r.Delete("/items/delete-all", itemHandler.HandleDeleteAll)
			r.Post("/items/{id}/upvote", itemHandler.HandleUpvote)
			r.Get("/items/{id}/upvoters", itemHandler.HandleListUpvoters)
			r.Delete("/items/{id}", itemHandler.HandleDelete)

			r.Get("/items/{id}/comments", itemHandler.HandleListComments)
			r.Post("/items/{id}/comments", itemHandler.HandleAddComment)
			r.Delete("/items/{itemId}/comments/{commentId}", itemHandler.HandleDeleteComment)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests (30s
// limit), close the database.
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
