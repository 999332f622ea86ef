package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/dgallion1/md2docx/internal/api"
	"github.com/dgallion1/md2docx/internal/config"
	"github.com/dgallion1/md2docx/internal/convert"
	"github.com/dgallion1/md2docx/internal/images"
	"github.com/dgallion1/md2docx/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		log.Info(fmt.Sprintf(format, args...))
	}))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Style configuration arrives from callers, so logos must be remote
	// and allowlisted.
	resolver := images.NewResolver(
		images.NewAllowlist(cfg.AllowedImageHosts...),
		log,
		images.WithTimeout(cfg.ImageTimeout),
		images.WithoutLocalFiles(),
	)
	conv := convert.NewService(resolver, cfg.MaxMarkdownBytes, log)

	orch := pipeline.NewOrchestrator(cfg, conv, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, conv, log, cfg)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}
		orch.Stop()
	}()

	log.Info("starting md2docx", "port", cfg.Port, "workers", cfg.WorkerCount, "version", api.Version)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
