package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"formdrop/internal/config"
	"formdrop/internal/drive"
	"formdrop/internal/endpoints"
	"formdrop/internal/foldercache"
	"formdrop/internal/history"
	"formdrop/internal/server"
)

func main() {
	// Initialize structured logging
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(jsonHandler))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clientOpts := []drive.Option{
		drive.WithHTTPClient(&http.Client{Timeout: cfg.UploadTimeout}),
	}

	if cfg.RedisAddr != "" {
		cache, err := foldercache.New(ctx, cfg.RedisAddr)
		if err != nil {
			slog.Error("Failed to connect to folder cache", "error", err, "addr", cfg.RedisAddr)
			os.Exit(1)
		}
		defer cache.Close()
		clientOpts = append(clientOpts, drive.WithFolderCache(cache))
	}

	// The private key is imported here, so malformed credentials fail at
	// startup rather than on the first upload.
	uploader, err := drive.NewClient(drive.ServiceAccount{
		ClientEmail:   cfg.ServiceAccountEmail,
		PrivateKeyPEM: cfg.PrivateKey,
	}, clientOpts...)
	if err != nil {
		slog.Error("Failed to create Drive client", "error", err)
		os.Exit(1)
	}

	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		slog.Error("Failed to open history store", "error", err, "path", cfg.HistoryDB)
		os.Exit(1)
	}
	defer store.Close()

	// Create HTTP server
	srv := server.NewServer(cfg.Port, endpoints.Deps{
		Uploader:   uploader,
		Store:      store,
		Lister:     store,
		FolderID:   cfg.FolderID,
		FolderName: cfg.FolderName,
	})

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed to start", "error", err)
			cancel()
		}
	}()

	slog.Info("Formdrop HTTP server started", "port", cfg.Port)

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("Context cancelled")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	} else {
		slog.Info("Server exited gracefully")
	}
}
