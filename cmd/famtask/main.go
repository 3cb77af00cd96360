package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"famtask/internal/config"
	"famtask/internal/ledger"
	"famtask/internal/logging"
	"famtask/internal/server"
	"famtask/internal/store"
)

func main() {
	configPath := os.Getenv("FAMTASK_CONFIG")
	if configPath == "" {
		configPath = "famtask.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.File)

	st := store.Open(cfg.Store.DBPath, logger.With("component", "store"))
	defer st.Close()

	l, err := ledger.New(st, logger.With("component", "ledger"))
	if err != nil {
		logger.Error("ledger init", "error", err)
		os.Exit(1)
	}

	srv := server.New(l, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.RateLimiter().CleanupEvery(ctx, 5*time.Minute)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("famtask listening", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
