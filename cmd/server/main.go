package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"sentiscope/internal/analysis"
	"sentiscope/internal/config"
	"sentiscope/internal/domain"
	"sentiscope/internal/handler"
	"sentiscope/internal/intake"
	"sentiscope/internal/logging"
	"sentiscope/internal/preview"
	"sentiscope/internal/router"
	"sentiscope/internal/session"
	"sentiscope/internal/storage"
	"sentiscope/internal/workflow"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logging.SetLevel(cfg.Log.Level); err != nil {
		log.Printf("Warning: %v, using info", err)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Analysis service
	analysisClient := analysis.NewService(&cfg.Analysis)

	// Preview storage
	objects, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", cfg.Storage.Provider, err)
	}
	previews := preview.NewProvider(objects, cfg.Storage.KeyPrefix, time.Duration(cfg.Storage.PresignExpiry)*time.Second)

	// Sessions
	policy := func(mode domain.SelectionMode) intake.Policy {
		return intake.PolicyFromConfig(&cfg.Intake, mode)
	}
	sessions, err := session.NewManager(cfg.Session.CacheSize, analysisClient, previews, policy,
		workflow.WithStageDelay(cfg.Analysis.StageDelay()))
	if err != nil {
		return fmt.Errorf("failed to initialize sessions: %w", err)
	}
	defer sessions.Close()

	// Handlers
	r := router.Setup(router.Handlers{
		Health:   handler.NewHealthHandler(analysisClient),
		Session:  handler.NewSessionHandler(sessions),
		Analysis: handler.NewAnalysisHandler(sessions, cfg.Server.Locale),
		Stream:   handler.NewStreamHandler(sessions, cfg.CORS.AllowedOrigins),
	}, cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s (storage=%s, analysis=%s)", cfg.Server.Port, cfg.Storage.Provider, cfg.Analysis.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
