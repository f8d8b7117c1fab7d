// Package main is the entry point for the showcase board server.
//
// main's job is small: load configuration, build the logger, and hand off
// to internal/server. All actual logic lives in the imported packages.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/campusboard/showcase/internal/server"
)

func main() {
	// A .env file is a development convenience; in deployment the
	// variables come from the environment directly.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading config from environment")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/showcase.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Required settings — refuse to start without them rather than limp
	// along with auth silently broken.
	jwtSecret := os.Getenv("JWT_SECRET")
	googleClientID := os.Getenv("GOOGLE_CLIENT_ID")
	googleClientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")

	var missing []string
	if jwtSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if googleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if googleClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		logger.Error("missing required environment variables",
			slog.String("vars", strings.Join(missing, ", ")),
		)
		os.Exit(1)
	}

	googleCallbackURL := os.Getenv("GOOGLE_CALLBACK_URL")
	if googleCallbackURL == "" {
		googleCallbackURL = fmt.Sprintf("http://localhost:%d/auth/google/callback", port)
	}

	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		JWTSecret:          jwtSecret,
		GoogleClientID:     googleClientID,
		GoogleClientSecret: googleClientSecret,
		GoogleCallbackURL:  googleCallbackURL,
		AllowedEmailDomain: os.Getenv("ALLOWED_EMAIL_DOMAIN"),
		AdminEmail:         os.Getenv("ADMIN_EMAIL"),
	}

	if cfg.AllowedEmailDomain == "" {
		logger.Warn("ALLOWED_EMAIL_DOMAIN not set — any Google account can sign in")
	}
	if cfg.AdminEmail == "" {
		logger.Warn("ADMIN_EMAIL not set — admin operations are disabled")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// logLevel reads LOG_LEVEL (debug, info, warn, error), defaulting to debug.
func logLevel() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
