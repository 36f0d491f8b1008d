package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwise1/comment_service/config"
	deps "github.com/bwise1/comment_service/internal/debs"
	api "github.com/bwise1/comment_service/internal/http/rest"
	"go.uber.org/zap"
)

const (
	allowConnectionsAfterShutdown = 1 * time.Second
	shutdownPeriod                = 30 * time.Second
)

func main() {
	cfg := config.New()

	deps, err := deps.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize dependencies: %v", err)
	}
	logger := deps.Logger

	a := api.New(cfg, deps)
	go func() {
		logger.Info("server running", zap.Int("port", cfg.Port), zap.String("store", cfg.StoreDriver))
		if err := a.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-stopChan

	logger.Info("request to shutdown server", zap.Duration("grace", allowConnectionsAfterShutdown))
	waitTimer := time.NewTimer(allowConnectionsAfterShutdown)
	<-waitTimer.C

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
	err = a.Shutdown(ctx)
	cancel()
	if err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	log.Println("server gracefully stopped")
}
