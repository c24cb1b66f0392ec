package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/run"

	"github.com/user/indexnow-service/internal/app"
	"github.com/user/indexnow-service/internal/delivery/http/handler"
	"github.com/user/indexnow-service/internal/delivery/http/router"
	"github.com/user/indexnow-service/pkg/config"
	"github.com/user/indexnow-service/pkg/logger"
	"github.com/user/indexnow-service/pkg/metrics"
)

const shutdownGracePeriod = 10 * time.Second

func main() {
	if err := serve(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func serve() error {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		logger.Init(os.Stdout, slog.LevelInfo)
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// --- Logger ---
	logLevel, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Init(os.Stdout, slog.LevelInfo)
		return err
	}
	logger.Init(os.Stdout, logLevel)
	slog.Info("Logger initialized", "level", logLevel.String())

	// --- Metrics ---
	metrics.Init()
	slog.Info("Metrics initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Stores, collaborators and use cases ---
	components, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer components.Close()

	watcher, err := components.NewWatcher(cfg)
	if err != nil {
		return err
	}

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(handler.Dependencies{
		Sites:      components.Sites,
		Reconciler: components.Reconciler,
		Submitter:  components.Submitter,
		Sitemaps:   components.Sitemaps,
		Pages:      components.Pages,
		IndexNow:   components.IndexNow,
	})
	httpRouter := router.New(apiHandler, router.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		RequestTimeout: 5 * time.Minute,
	})

	server := &http.Server{
		Handler:           httpRouter,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ln, err := net.Listen("tcp", ":"+cfg.ServerPort)
	if err != nil {
		return fmt.Errorf("could not listen on port %s: %w", cfg.ServerPort, err)
	}

	var g run.Group

	g.Add(func() error {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(c)
		select {
		case sig := <-c:
			return signalError{sig: sig}
		case <-ctx.Done():
			return ctx.Err()
		}
	}, func(error) {
		cancel()
	})

	if watcher != nil {
		slog.Info("Watcher enabled", "schedule", cfg.WatchSchedule, "auto_submit", cfg.AutoSubmit)
		g.Add(func() error { return watcher.Start(ctx) }, func(error) { cancel() })
	}

	g.Add(func() error {
		slog.Info("Starting server", "port", cfg.ServerPort)
		return server.Serve(ln)
	}, func(error) {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	})

	err = g.Run()
	slog.Info("Exiting", "reason", err.Error())
	if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	var sigErr signalError
	if errors.As(err, &sigErr) {
		return nil
	}
	return err
}

type signalError struct {
	sig os.Signal
}

func (e signalError) Error() string {
	return fmt.Sprintf("received signal %v", e.sig)
}
