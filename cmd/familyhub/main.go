package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/familyhub/familyhub/internal/database"
	"github.com/familyhub/familyhub/internal/logging"
	"github.com/familyhub/familyhub/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("FAMILYHUB_LOG_LEVEL"))

	port := os.Getenv("FAMILYHUB_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("FAMILYHUB_DB_PATH")
	if dbPath == "" {
		dbPath = "familyhub.db"
	}

	var undoWindow time.Duration
	if v := os.Getenv("FAMILYHUB_UNDO_WINDOW_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 0 {
			logger.Error("invalid FAMILYHUB_UNDO_WINDOW_SECONDS", "value", v)
			os.Exit(1)
		}
		undoWindow = time.Duration(secs) * time.Second
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, server.Config{UndoWindow: undoWindow}, logger)

	// Background cleanup of expired sessions and stale rate limit entries
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("session cleanup", "error", err)
			} else if n > 0 {
				logger.Info("expired sessions removed", "count", n)
			}
			srv.RateLimiter().Cleanup()
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("familyhub listening", "port", port, "db", dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
