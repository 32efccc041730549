package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/document"
	"github.com/docufield/extractor/internal/entity"
)

// Gemini extracts fields through the hosted API. Accuracy is the highest of
// the three backends but every call consumes free-tier quota, so the tracker
// is consulted before any request leaves the process.
type Gemini struct {
	apiKey    string
	modelName string
	quota     *QuotaTracker
	cfg       entity.ProviderConfig
	log       *slog.Logger
	stats     Stats

	mu     sync.Mutex
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini builds the hosted provider. perMinute/perDay of zero disable
// the respective ceiling.
func NewGemini(apiKey, modelName string, perMinute, perDay int, logger *slog.Logger) *Gemini {
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{
		apiKey:    apiKey,
		modelName: modelName,
		quota:     NewQuotaTracker(perMinute, perDay),
		log:       logger,
		cfg: entity.ProviderConfig{
			Name:                 "gemini:" + modelName,
			Kind:                 constants.ProviderGemini,
			SupportsTables:       true,
			SupportsHandwriting:  true,
			SupportsMultilingual: true,
			MaxImageBytes:        20 << 20,
			CostPerCall:          0, // free tier; the cost is quota
			AvgLatency:           2 * time.Second,
			RequestsPerMinute:    perMinute,
			RequestsPerDay:       perDay,
		},
	}
}

func (g *Gemini) Name() string                  { return g.cfg.Name }
func (g *Gemini) Model() string                 { return g.modelName }
func (g *Gemini) Config() entity.ProviderConfig { return g.cfg }
func (g *Gemini) Stats() *Stats                 { return &g.stats }
func (g *Gemini) Quota() *QuotaTracker          { return g.quota }

// Initialize creates the API client. Idempotent; a missing key fails fast.
func (g *Gemini) Initialize(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return nil
	}
	if g.apiKey == "" {
		return common.NewProviderError(g.Name(), "initialize",
			fmt.Errorf("%w: api key is required", common.ErrProviderUnavailable))
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return common.NewProviderError(g.Name(), "initialize",
			fmt.Errorf("%w: creating client: %v", common.ErrProviderUnavailable, err))
	}
	g.client = client
	g.model = client.GenerativeModel(g.modelName)
	g.log.Info("provider.gemini.ready", "model", g.modelName,
		"rpm", g.cfg.RequestsPerMinute, "rpd", g.cfg.RequestsPerDay)
	return nil
}

// CheckHealth reports whether the client is usable without spending quota.
func (g *Gemini) CheckHealth(_ context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.apiKey != "" && g.client != nil
}

// Extract runs one hosted generation. The quota reservation happens before
// the request; when either ceiling would be exceeded the call fails with a
// rate-limit error and nothing is sent.
func (g *Gemini) Extract(ctx context.Context, doc *entity.Document, prompt string, opts Options) (map[string]any, string, error) {
	g.mu.Lock()
	model := g.model
	g.mu.Unlock()
	if model == nil {
		return nil, "", common.NewProviderError(g.Name(), "extract",
			fmt.Errorf("%w: not initialized", common.ErrProviderUnavailable))
	}

	if err := g.quota.Reserve(); err != nil {
		return nil, "", common.NewProviderError(g.Name(), "extract", err)
	}

	raw, err := doc.GetBytes()
	if err != nil {
		return nil, "", err
	}
	pngData, _, _, err := document.PrepareImage(raw, doc.ContentType)
	if err != nil {
		return nil, "", common.NewProviderError(g.Name(), "prepare image", err)
	}

	parts := []genai.Part{
		genai.ImageData("png", pngData),
		genai.Text(prompt),
	}
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, "", common.NewProviderError(g.Name(), "extract", g.classify(err, ctx))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, "", common.NewProviderError(g.Name(), "extract",
			fmt.Errorf("%w: empty response", common.ErrProviderUnavailable))
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	text := strings.TrimSpace(b.String())

	fields, err := ParseFieldJSON(text)
	if err != nil {
		return nil, text, common.NewProviderError(g.Name(), "extract", err)
	}
	return fields, text, nil
}

// classify maps API failures onto the shared taxonomy.
func (g *Gemini) classify(err error, ctx context.Context) error {
	if ctx.Err() == context.DeadlineExceeded {
		return common.ErrProviderTimeout
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return fmt.Errorf("%w: %v", common.ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %v", common.ErrProviderUnavailable, err)
}

// Close releases the API client.
func (g *Gemini) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	g.model = nil
	return err
}
