/*
Package main is the entry point for the Roomcast chat server.

It is responsible for loading configuration, initializing the global logging system,
opening the history backend and rehydrating the message history, starting the chat
Manager and the HTTP server, and gracefully handling operating system interrupt
signals (SIGINT, SIGTERM) so that connections are released and history is flushed.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomcast/internal/app/chat"
	"roomcast/internal/app/storage"
	"roomcast/internal/configs"
	"roomcast/internal/handler"
	"roomcast/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(logx.Options{
		Development: cfg.IsDevelopment(),
		Level:       cfg.LogLevel,
	})
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("storage_driver", cfg.StorageDriver).
		Int("history_limit", cfg.HistoryLimit).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the history backend and rehydrate the message store
	backend, err := storage.NewSnapshotStore(ctx, storageConfig(cfg))
	if err != nil {
		logx.Fatal(err, "Failed to open history storage", "driver", cfg.StorageDriver)
	}

	history := chat.LoadMessageStore(ctx, backend, cfg.HistoryLimit)

	// Initialize Chat Manager
	manager := chat.NewManager(history, backend)

	// Setup HTTP server and routes
	router := handler.Router(&handler.AppDeps{
		Manager: manager,
		Config:  cfg,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Roomcast server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	// Release every websocket connection and flush the history
	manager.Shutdown()

	if backend != nil {
		if err := backend.Close(); err != nil {
			logx.Error(err, "Failed to close history storage")
		}
	}

	logx.Info("Server gracefully stopped.")
}

// storageConfig maps the application configuration onto the storage factory settings.
func storageConfig(cfg *configs.AppConfig) storage.ServiceConfig {
	return storage.ServiceConfig{
		Driver:            cfg.StorageDriver,
		FilePath:          cfg.HistoryFile,
		DatabaseDSN:       cfg.DatabaseDSN,
		SQLitePath:        cfg.SQLitePath,
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3Region:          cfg.S3Region,
		S3ObjectKey:       cfg.S3ObjectKey,
	}
}
