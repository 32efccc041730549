package provider

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/document"
	"github.com/docufield/extractor/internal/entity"
)

// LlamaCpp runs generation over weight files on the local disk through a
// llama.cpp multimodal runner. Zero cost, no network, throughput bounded by
// local hardware. The runner binary and the weight bundle are both verified
// at initialization; the external command goes through Runner so tests can
// stub it.
type LlamaCpp struct {
	binary    string
	modelDir  string
	modelName string
	threads   int
	runner    Runner
	cfg       entity.ProviderConfig
	log       *slog.Logger
	stats     Stats

	mu          sync.Mutex
	initialized bool
	weightsPath string
	mmprojPath  string
}

// NewLlamaCpp builds a provider over one discovered weight bundle.
func NewLlamaCpp(binary string, model entity.AvailableModel, threads int, logger *slog.Logger) *LlamaCpp {
	if binary == "" {
		binary = "llama-mtmd-cli"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LlamaCpp{
		binary:    binary,
		modelDir:  model.Location,
		modelName: model.Name,
		threads:   threads,
		runner:    execRunner{},
		log:       logger,
		cfg: entity.ProviderConfig{
			Name:                 "llamacpp:" + model.Name,
			Kind:                 constants.ProviderLlamaCpp,
			SupportsTables:       false,
			SupportsHandwriting:  false,
			SupportsMultilingual: false,
			MaxImageBytes:        10 << 20,
			CostPerCall:          0,
			AvgLatency:           15 * time.Second,
		},
	}
}

func (l *LlamaCpp) Name() string                  { return l.cfg.Name }
func (l *LlamaCpp) Model() string                 { return l.modelName }
func (l *LlamaCpp) Config() entity.ProviderConfig { return l.cfg }
func (l *LlamaCpp) Stats() *Stats                 { return &l.stats }

// SetRunner replaces the command runner. Tests use this to avoid spawning
// real processes.
func (l *LlamaCpp) SetRunner(r Runner) { l.runner = r }

// Initialize locates the runner binary and the weight files. Idempotent;
// failures may be retried.
func (l *LlamaCpp) Initialize(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.initialized {
		return nil
	}

	if _, err := exec.LookPath(l.binary); err != nil {
		return common.NewProviderError(l.Name(), "initialize",
			fmt.Errorf("%w: runner binary %q not found", common.ErrProviderUnavailable, l.binary))
	}
	weights, mmproj, err := resolveWeights(l.modelDir)
	if err != nil {
		return common.NewProviderError(l.Name(), "initialize",
			fmt.Errorf("%w: %v", common.ErrProviderUnavailable, err))
	}
	l.weightsPath = weights
	l.mmprojPath = mmproj
	l.initialized = true
	l.log.Info("provider.llamacpp.ready",
		"model", l.modelName, "weights", weights, "mmproj", mmproj)
	return nil
}

// CheckHealth reports whether the binary and weights are still present.
func (l *LlamaCpp) CheckHealth(_ context.Context) bool {
	if _, err := exec.LookPath(l.binary); err != nil {
		return false
	}
	_, _, err := resolveWeights(l.modelDir)
	return err == nil
}

// Extract writes the normalized image to a temp file and runs one bounded
// generation over it.
func (l *LlamaCpp) Extract(ctx context.Context, doc *entity.Document, prompt string, opts Options) (map[string]any, string, error) {
	l.mu.Lock()
	weights, mmproj, ready := l.weightsPath, l.mmprojPath, l.initialized
	l.mu.Unlock()
	if !ready {
		return nil, "", common.NewProviderError(l.Name(), "extract",
			fmt.Errorf("%w: not initialized", common.ErrProviderUnavailable))
	}

	raw, err := doc.GetBytes()
	if err != nil {
		return nil, "", err
	}
	pngData, _, _, err := document.PrepareImage(raw, doc.ContentType)
	if err != nil {
		return nil, "", common.NewProviderError(l.Name(), "prepare image", err)
	}

	tmp, err := os.CreateTemp("", "extract-*.png")
	if err != nil {
		return nil, "", fmt.Errorf("temp image: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if rerr := os.Remove(tmpPath); rerr != nil {
			l.log.Warn("temp image remove failed", "path", tmpPath, "error", rerr)
		}
	}()
	if _, err := tmp.Write(pngData); err != nil {
		_ = tmp.Close()
		return nil, "", fmt.Errorf("write temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, "", fmt.Errorf("close temp image: %w", err)
	}

	args := []string{
		"-m", weights,
		"--image", tmpPath,
		"-p", prompt,
		"--temp", "0",
		"-n", "768",
	}
	if mmproj != "" {
		args = append(args, "--mmproj", mmproj)
	}
	if l.threads > 0 {
		args = append(args, "--threads", strconv.Itoa(l.threads))
	}

	stdout, stderr, err := l.runner.Run(ctx, l.binary, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", common.NewProviderError(l.Name(), "extract", common.ErrProviderTimeout)
		}
		return nil, "", common.NewProviderError(l.Name(), "extract",
			fmt.Errorf("%w: runner: %v: %s", common.ErrProviderUnavailable, err, truncate(string(stderr), 512)))
	}

	text := strings.TrimSpace(string(stdout))
	fields, err := ParseFieldJSON(text)
	if err != nil {
		return nil, text, common.NewProviderError(l.Name(), "extract", err)
	}
	return fields, text, nil
}

// resolveWeights finds the main weight file and an optional multimodal
// projector inside a model directory.
func resolveWeights(dir string) (weights, mmproj string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", fmt.Errorf("read model dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		full := filepath.Join(dir, e.Name())
		switch {
		case strings.HasPrefix(name, "mmproj") && strings.HasSuffix(name, ".gguf"):
			mmproj = full
		case strings.HasSuffix(name, ".gguf"):
			if weights == "" {
				weights = full
			}
		case name == "pytorch_model.bin" || strings.HasSuffix(name, ".safetensors"):
			if weights == "" {
				weights = full
			}
		}
	}
	if weights == "" {
		return "", "", fmt.Errorf("no weight file in %s", dir)
	}
	return weights, mmproj, nil
}
