package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/export"
	"github.com/docufield/extractor/internal/repository"
)

// exportresults dumps stored extraction results to an XLSX workbook.
func main() {
	out := flag.String("out", "./extractions.xlsx", "output workbook path")
	reviewOnly := flag.Bool("review", false, "export only results flagged for manual review")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg := common.LoadConfig()
	repo, err := repository.New(ctx, cfg.Repository, logger)
	if err != nil {
		logger.Error("open repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	svc := export.NewService(repo, logger)
	var n int
	if *reviewOnly {
		n, err = svc.ExportReviewQueue(ctx, *out)
	} else {
		n, err = svc.ExportAll(ctx, *out)
	}
	if err != nil {
		logger.Error("export", "error", err)
		os.Exit(1)
	}
	logger.Info("done", "path", *out, "rows", n)
}
