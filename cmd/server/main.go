// Package main is the entry point for the traction server.
//
// main stays minimal: load configuration, build the logger, hand everything
// to internal/server. All actual logic lives in the imported packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sakif/traction/internal/server"
)

func main() {
	// A .env file is a convenience for local development; in production the
	// variables come from the real environment and the file doesn't exist.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
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

	templateDir := "web/templates"
	if envDir := os.Getenv("TEMPLATE_DIR"); envDir != "" {
		templateDir = envDir
	}

	dbPath := "data/traction.db"
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

	// The signing secret is not optional: without it no session can be
	// issued or validated, and every route past login is dead. Rotating it
	// invalidates all outstanding sessions, which is the intended way to
	// force a global logout.
	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		logger.Error("SESSION_SECRET is required (try: openssl rand -hex 32)")
		os.Exit(1)
	}

	cfg := server.Config{
		Port:          port,
		TemplateDir:   templateDir,
		DBPath:        dbPath,
		SessionSecret: sessionSecret,
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// logLevel maps a LOG_LEVEL value to a slog level, defaulting to Info.
func logLevel(value string) slog.Level {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
