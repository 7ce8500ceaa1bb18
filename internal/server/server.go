package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/replicatedhq/kots-sub006/internal/logging"
)

// Config holds the server configuration
type Config struct {
	Host     string
	Port     int
	LogLevel string
	AppSlug  string // Slug the seed config is registered under
	SeedPath string // Path to a YAML/JSON config tree to serve
}

// Server represents the reference console API server
type Server struct {
	config     *Config
	store      *Store
	hub        *Hub
	httpServer *http.Server
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	// Initialize logging
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	store := NewStore()
	if config.SeedPath != "" {
		if err := store.SeedFromFile(config.AppSlug, config.SeedPath); err != nil {
			return nil, fmt.Errorf("failed to seed store: %w", err)
		}
		logging.Info("Seeded app config",
			zap.String("app_slug", config.AppSlug),
			zap.String("seed_path", config.SeedPath),
		)
	}

	return &Server{
		config: config,
		store:  store,
		hub:    NewHub(),
	}, nil
}

// Store exposes the app store, mainly for seeding in tests.
func (s *Server) Store() *Store {
	return s.store
}

// Start starts the server and blocks until shutdown
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	logging.Info("Starting console API server",
		zap.String("addr", addr),
		zap.String("app_slug", s.config.AppSlug),
		zap.String("log_level", s.config.LogLevel),
	)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
			return
		}
		errChan <- nil
	}()

	logging.Info("Server listening for connections",
		zap.String("addr", addr),
	)

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	// Disconnect websocket subscribers first so Shutdown isn't held open by
	// long-lived streams.
	s.hub.Close()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
			_ = s.httpServer.Close()
		}
	}

	logging.Info("Server stopped")
	logging.Sync()

	return nil
}
