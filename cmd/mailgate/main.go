// Mailgate is an HTTP gateway for reading and sending mail through a
// remote mailbox over IMAP and SMTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pr-poehali-dev/mailgate/internal/account"
	"github.com/pr-poehali-dev/mailgate/internal/api"
	"github.com/pr-poehali-dev/mailgate/internal/config"
	"github.com/pr-poehali-dev/mailgate/internal/mail"
)

func main() {
	configPath := flag.String("config", "mailgate.yaml", "Path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log.Level)
	slog.SetDefault(logger)
	logger.Info("starting mailgate",
		"addr", cfg.HTTP.Addr,
		"imap", cfg.IMAP.Host,
		"smtp", cfg.SMTP.Host,
	)

	store, err := account.NewStore(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("opening account store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing account store", "err", err)
		}
	}()

	handler := api.NewHandler(
		mail.NewFetcher(cfg.IMAP.Host, cfg.IMAP.Port),
		mail.NewSender(cfg.SMTP.Host, cfg.SMTP.Port),
		store,
		logger,
	)

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: handler.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	logger.Info("mailgate stopped")
	return nil
}

func setupLogger(level string) *slog.Logger {
	lvl := new(slog.LevelVar)
	switch level {
	case "debug":
		lvl.Set(slog.LevelDebug)
	case "warn":
		lvl.Set(slog.LevelWarn)
	case "error":
		lvl.Set(slog.LevelError)
	default:
		lvl.Set(slog.LevelInfo)
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
