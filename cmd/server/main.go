// Command untilthen-server starts the content proxy HTTP server: the
// private-upload endpoint used by clients and a local runner for the oracle
// publication function.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/untilthen/untilthen-go/internal/config"
	"github.com/untilthen/untilthen-go/internal/content/pinata"
	"github.com/untilthen/untilthen-go/internal/logging"
	"github.com/untilthen/untilthen-go/internal/oracle"
	"github.com/untilthen/untilthen-go/internal/server/httpapi"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration and starts the HTTP server.
func main() {
	// Flags
	addr := flag.String("addr", ":8080", "listen address")
	cfgPath := flag.String("config", "", "config file (optional)")
	flag.Parse()

	// .env is optional; environment always wins.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err) // no logger yet
	}

	logger, err := logging.New(cfg.NoisyLogSubstrings)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
	)

	store, err := pinata.New(cfg.Pinata, logger)
	if err != nil {
		logger.Fatal("pinata client", zap.Error(err))
	}
	publisher := oracle.NewPublisher(store, logger)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           httpapi.New(store, publisher, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
