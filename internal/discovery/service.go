package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/entity"
)

// visionPatterns marks model names that are vision-capable. The local
// catalog lists every installed model; only these families can read images.
var visionPatterns = []string{
	"llava",
	"bakllava",
	"qwen2-vl",
	"qwen2.5vl",
	"minicpm-v",
	"moondream",
	"llama3.2-vision",
	"gemma3",
	"granite3.2-vision",
}

// weightFileNames are the bundle markers a local model directory must carry:
// a config plus at least one recognized weight file.
var weightConfigNames = []string{"config.json", "params.json"}

func isWeightFile(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".gguf") ||
		strings.HasSuffix(name, ".safetensors") ||
		name == "pytorch_model.bin"
}

// Report is the outcome of one discovery pass: every usable model found,
// plus per-source errors. One source failing never hides the others.
type Report struct {
	Models []entity.AvailableModel `json:"models"`
	Errors []string                `json:"errors,omitempty"`
}

// Service scans the runtime environment for usable backends: the
// local-network endpoint's catalog, the weights directory on disk, and the
// hosted credential. It is the only component that maps what it finds to
// provider kinds.
type Service struct {
	ollamaBaseURL string
	modelsDir     string
	geminiAPIKey  string
	geminiModel   string
	client        *http.Client
	log           *slog.Logger
}

func NewService(cfg *common.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ollamaBaseURL: strings.TrimRight(cfg.Ollama.BaseURL, "/"),
		modelsDir:     cfg.Discovery.ModelsDir,
		geminiAPIKey:  cfg.Gemini.APIKey,
		geminiModel:   cfg.Gemini.Model,
		client:        &http.Client{Timeout: 5 * time.Second},
		log:           logger,
	}
}

// DiscoverAll probes every source and returns the union of what worked.
func (s *Service) DiscoverAll(ctx context.Context) Report {
	start := time.Now()
	var report Report

	if models, err := s.discoverOllama(ctx); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("ollama: %v", err))
		s.log.Warn("discovery.ollama.failed", "base_url", s.ollamaBaseURL, "error", err)
	} else {
		report.Models = append(report.Models, models...)
	}

	if models, err := s.discoverLocalWeights(); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("weights dir: %v", err))
		s.log.Warn("discovery.weights.failed", "dir", s.modelsDir, "error", err)
	} else {
		report.Models = append(report.Models, models...)
	}

	if model := s.discoverHostedCredential(); model != nil {
		report.Models = append(report.Models, *model)
	}

	s.log.Info("discovery.done",
		"models", len(report.Models),
		"errors", len(report.Errors),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return report
}

// discoverOllama pulls the endpoint's model catalog and keeps the
// vision-capable entries.
func (s *Service) discoverOllama(ctx context.Context) ([]entity.AvailableModel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.ollamaBaseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("endpoint not reachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog status %d", resp.StatusCode)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
			Size int64  `json:"size"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	now := time.Now().UTC()
	var out []entity.AvailableModel
	for _, m := range tags.Models {
		if !IsVisionModel(m.Name) {
			continue
		}
		out = append(out, entity.AvailableModel{
			Name:         m.Name,
			Kind:         constants.ProviderOllama,
			Location:     s.ollamaBaseURL,
			SizeBytes:    m.Size,
			DiscoveredAt: now,
			IsLoaded:     true,
		})
	}
	return out, nil
}

// discoverLocalWeights scans the weights directory for model bundles: a
// directory holding a config file and at least one weight file, possibly
// one level deep (HF-style owner/model layout).
func (s *Service) discoverLocalWeights() ([]entity.AvailableModel, error) {
	entries, err := os.ReadDir(s.modelsDir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.modelsDir, err)
	}

	var out []entity.AvailableModel
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(s.modelsDir, e.Name())
		if m, ok := s.probeModelDir(dir, e.Name()); ok {
			out = append(out, m)
			continue
		}
		// One level deeper: owner/model.
		subEntries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, sub := range subEntries {
			if !sub.IsDir() {
				continue
			}
			subDir := filepath.Join(dir, sub.Name())
			if m, ok := s.probeModelDir(subDir, e.Name()+"/"+sub.Name()); ok {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// probeModelDir checks one directory for a complete bundle and sums its
// on-disk size.
func (s *Service) probeModelDir(dir, name string) (entity.AvailableModel, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return entity.AvailableModel{}, false
	}
	hasConfig, hasWeights := false, false
	var size int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, c := range weightConfigNames {
			if e.Name() == c {
				hasConfig = true
			}
		}
		if isWeightFile(e.Name()) {
			hasWeights = true
		}
		if info, err := e.Info(); err == nil {
			size += info.Size()
		}
	}
	// GGUF bundles are self-describing; a config file is only mandatory for
	// split-weight layouts.
	if !hasWeights {
		return entity.AvailableModel{}, false
	}
	if !hasConfig && !hasGGUF(entries) {
		return entity.AvailableModel{}, false
	}
	return entity.AvailableModel{
		Name:         name,
		Kind:         constants.ProviderLlamaCpp,
		Location:     dir,
		SizeBytes:    size,
		DiscoveredAt: time.Now().UTC(),
	}, true
}

func hasGGUF(entries []os.DirEntry) bool {
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".gguf") {
			return true
		}
	}
	return false
}

// discoverHostedCredential reports the hosted backend when a credential is
// present in the environment.
func (s *Service) discoverHostedCredential() *entity.AvailableModel {
	if s.geminiAPIKey == "" {
		return nil
	}
	return &entity.AvailableModel{
		Name:         s.geminiModel,
		Kind:         constants.ProviderGemini,
		Location:     "generativelanguage.googleapis.com",
		DiscoveredAt: time.Now().UTC(),
	}
}

// IsVisionModel reports whether a catalog model name looks vision-capable.
func IsVisionModel(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range visionPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
