package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/discovery"
)

// modelscan lists every extraction backend discovery can find on this
// machine and which one it would pick first.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc := discovery.NewService(common.LoadConfig(), logger)
	report := svc.DiscoverAll(ctx)

	if len(report.Models) == 0 {
		fmt.Println("no models found")
	}
	for _, m := range report.Models {
		size := ""
		if m.SizeBytes > 0 {
			size = fmt.Sprintf("  %.1f GB", float64(m.SizeBytes)/(1<<30))
		}
		fmt.Printf("%-10s %-40s %s%s\n", m.Kind, m.Name, m.Location, size)
	}
	if rec := discovery.RecommendModel(report.Models); rec != nil {
		fmt.Printf("\nrecommended: %s (%s)\n", rec.Name, rec.Kind)
	}
	for _, msg := range report.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
	}
}
