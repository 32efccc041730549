package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/entity"
	"github.com/docufield/extractor/internal/extractor"
)

// extract runs one document through the pipeline and prints the result as
// JSON. Intended for scripting and quick checks against a single file.
func main() {
	templateName := flag.String("template", "accessory-label", "template to extract against")
	strategyName := flag.String("strategy", "", "force a strategy: local, cloud or hybrid")
	providerName := flag.String("provider", "", "prefer a specific provider by name")
	rawText := flag.Bool("raw", false, "include the backend's raw text in the result")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall run timeout")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		logger.Error("usage: extract [flags] <file>")
		os.Exit(2)
	}

	doc, err := entity.NewDocumentFromFile(flag.Arg(0))
	if err != nil {
		logger.Error("load document", "path", flag.Arg(0), "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	engine := extractor.NewEngine(common.LoadConfig(), logger)
	opts := extractor.ExtractionOptions{
		Strategy:          constants.StrategyName(*strategyName),
		PreferredProvider: *providerName,
		ReturnRawText:     *rawText,
	}

	result, err := engine.ExtractByName(ctx, doc, *templateName, opts)
	if err != nil {
		logger.Error("extract", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
}
