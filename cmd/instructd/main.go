package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-instructform/internal/backend"
	"github.com/goliatone/go-instructform/internal/config"
	"github.com/goliatone/go-instructform/internal/logging"
	"github.com/goliatone/go-instructform/internal/store"
)

func main() {
	configPath := flag.String("config", "instruct.yaml", "config file")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Parse()

	if err := run(*configPath, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "instructd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, verbose bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Verbose(cfg.Logging, verbose))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	srv, err := backend.New(db,
		backend.WithLogger(logger),
		backend.WithAttachmentPolicy(cfg.Attachments),
		backend.WithSignatureLimit(cfg.SignatureMaxBytes()),
		backend.WithTimeouts(cfg.ReadTimeout(), cfg.WriteTimeout()),
		backend.WithBodyLimit(cfg.Server.BodyLimit),
	)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("shutdown", zap.Error(err))
	}
	return nil
}
