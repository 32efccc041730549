package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/extractor"
	"github.com/docufield/extractor/internal/ingest"
	"github.com/docufield/extractor/internal/repository"
	"github.com/docufield/extractor/internal/server"
)

// extractd serves the extraction API and, when INGEST_ROOTS is set, watches
// inbox directories for new documents.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := repository.New(ctx, cfg.Repository, logger)
	if err != nil {
		logger.Error("open repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	engine := extractor.NewEngine(cfg, logger)
	if err := engine.Initialize(ctx); err != nil {
		logger.Error("initialize engine", "error", err)
		os.Exit(1)
	}
	for _, msg := range engine.DiscoveryErrors() {
		logger.Warn("discovery.partial", "error", msg)
	}

	if len(cfg.Ingest.Roots) > 0 {
		svc := ingest.NewService(engine, repo, cfg.Ingest.Template, logger)
		go func() {
			err := svc.Run(ctx, ingest.WatchConfig{
				Roots:       cfg.Ingest.Roots,
				InitialScan: true,
				Debounce:    cfg.Ingest.Debounce,
			})
			if err != nil && ctx.Err() == nil {
				logger.Error("ingest stopped", "error", err)
			}
		}()
	}

	srv := server.New(cfg.Server.Addr, engine, repo, logger)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			logger.Error("serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}
