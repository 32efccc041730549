package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/document"
	"github.com/docufield/extractor/internal/entity"
)

// Ollama extracts fields through a local-network generation endpoint's chat
// API. Free, moderate accuracy, bounded by whatever hardware the endpoint
// runs on.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
	cfg     entity.ProviderConfig
	log     *slog.Logger
	stats   Stats

	mu          sync.Mutex
	initialized bool
}

// NewOllama builds a provider for one model served at baseURL.
func NewOllama(baseURL, model string, logger *slog.Logger) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llava"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 150 * time.Second},
		log:     logger,
		cfg: entity.ProviderConfig{
			Name:                 "ollama:" + model,
			Kind:                 constants.ProviderOllama,
			SupportsTables:       true,
			SupportsHandwriting:  false,
			SupportsMultilingual: true,
			MaxImageBytes:        20 << 20,
			CostPerCall:          0,
			AvgLatency:           8 * time.Second,
		},
	}
}

func (o *Ollama) Name() string                  { return o.cfg.Name }
func (o *Ollama) Model() string                 { return o.model }
func (o *Ollama) Config() entity.ProviderConfig { return o.cfg }
func (o *Ollama) Stats() *Stats                 { return &o.stats }

// Initialize verifies the endpoint is reachable and serves the model.
func (o *Ollama) Initialize(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.initialized {
		return nil
	}

	names, err := o.listModels(ctx)
	if err != nil {
		return common.NewProviderError(o.Name(), "initialize",
			fmt.Errorf("%w: %v", common.ErrProviderUnavailable, err))
	}
	found := false
	for _, n := range names {
		if n == o.model || strings.SplitN(n, ":", 2)[0] == o.model {
			found = true
			break
		}
	}
	if !found {
		return common.NewProviderError(o.Name(), "initialize",
			fmt.Errorf("%w: model %q not in endpoint catalog", common.ErrProviderUnavailable, o.model))
	}
	o.initialized = true
	o.log.Info("provider.ollama.ready", "base_url", o.baseURL, "model", o.model)
	return nil
}

// CheckHealth reports whether the endpoint answers its catalog request.
func (o *Ollama) CheckHealth(ctx context.Context) bool {
	_, err := o.listModels(ctx)
	return err == nil
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Extract sends the normalized document image plus the prompt through the
// chat API and parses the returned field map.
func (o *Ollama) Extract(ctx context.Context, doc *entity.Document, prompt string, opts Options) (map[string]any, string, error) {
	raw, err := doc.GetBytes()
	if err != nil {
		return nil, "", err
	}
	pngData, _, _, err := document.PrepareImage(raw, doc.ContentType)
	if err != nil {
		return nil, "", common.NewProviderError(o.Name(), "prepare image", err)
	}

	reqBody := ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Messages: []ollamaMessage{
			{
				Role:    "system",
				Content: "You are an expert at reading photographed and scanned documents. Read all visible text carefully and extract accurate values.",
			},
			{
				Role:    "user",
				Content: prompt,
				Images:  []string{base64.StdEncoding.EncodeToString(pngData)},
			},
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", common.NewProviderError(o.Name(), "extract", common.ErrProviderTimeout)
		}
		return nil, "", common.NewProviderError(o.Name(), "extract",
			fmt.Errorf("%w: %v", common.ErrProviderUnavailable, err))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			o.log.Warn("ollama response body close error", "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", common.NewProviderError(o.Name(), "extract",
			fmt.Errorf("%w: status %d: %s", common.ErrProviderUnavailable, resp.StatusCode, truncate(string(body), 512)))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, "", common.NewProviderError(o.Name(), "extract", fmt.Errorf("decoding response: %w", err))
	}

	text := strings.TrimSpace(chatResp.Message.Content)
	fields, err := ParseFieldJSON(text)
	if err != nil {
		return nil, text, common.NewProviderError(o.Name(), "extract", err)
	}
	return fields, text, nil
}

func (o *Ollama) listModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog status %d", resp.StatusCode)
	}
	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	names := make([]string, len(tags.Models))
	for i, m := range tags.Models {
		names[i] = m.Name
	}
	return names, nil
}
