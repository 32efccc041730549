package extractor

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// engineConfig builds a config whose only discoverable backend is a fake
// weights bundle on disk; the catalog endpoint is unreachable and no hosted
// credential is set.
func engineConfig(t *testing.T) *common.Config {
	t.Helper()
	modelsDir := t.TempDir()
	bundle := filepath.Join(modelsDir, "llava-gguf")
	require.NoError(t, os.MkdirAll(bundle, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bundle, "model.gguf"), []byte("gguf"), 0o644))

	cfg := &common.Config{}
	cfg.Ollama.BaseURL = "http://127.0.0.1:1"
	cfg.Discovery.ModelsDir = modelsDir
	cfg.LlamaCpp.Binary = "definitely-not-on-path"
	return cfg
}

func TestEngine_InitializeBuildsLocalStrategy(t *testing.T) {
	e := NewEngine(engineConfig(t), testLogger())
	require.NoError(t, e.Initialize(context.Background()))

	require.Len(t, e.Providers(), 1)
	assert.Equal(t, constants.ProviderLlamaCpp, e.Providers()[0].Config().Kind)

	require.NotNil(t, e.RecommendedModel())
	assert.Equal(t, "llava-gguf", e.RecommendedModel().Name)

	// the catalog endpoint being down is reported, not fatal
	assert.NotEmpty(t, e.DiscoveryErrors())
}

func TestEngine_InitializeFailsWithNoBackends(t *testing.T) {
	cfg := &common.Config{}
	cfg.Ollama.BaseURL = "http://127.0.0.1:1"
	cfg.Discovery.ModelsDir = t.TempDir()

	e := NewEngine(cfg, testLogger())
	err := e.Initialize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoStrategy)
}

func TestEngine_ExtractByName_UnknownTemplate(t *testing.T) {
	e := NewEngine(engineConfig(t), testLogger())
	doc, err := entity.NewDocumentFromBytes([]byte("img"), "image/png")
	require.NoError(t, err)

	_, err = e.ExtractByName(context.Background(), doc, "no-such-template", ExtractionOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTemplateNotFound)
}

func TestEngine_ExtractSurfacesProviderExhaustion(t *testing.T) {
	// the only provider's runner binary does not exist, so the local
	// strategy exhausts and the failure names the strategy
	e := NewEngine(engineConfig(t), testLogger())
	doc, err := entity.NewDocumentFromBytes([]byte("img"), "image/png")
	require.NoError(t, err)

	_, err = e.ExtractByName(context.Background(), doc, "accessory-label", ExtractionOptions{
		MaxRetries: 1,
		Timeout:    time.Second,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAllProvidersExhausted)

	var exErr *common.ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, "local", exErr.Strategy)
}

func TestEngine_HasBuiltinTemplates(t *testing.T) {
	e := NewEngine(engineConfig(t), testLogger())
	assert.Equal(t, []string{"accessory-label", "purchase-order"}, e.Templates().Names())
}

func TestExtractionOptions_Normalize(t *testing.T) {
	o := ExtractionOptions{}.Normalize()
	assert.Equal(t, 3, o.MaxRetries)
	assert.Equal(t, 30*time.Second, o.Timeout)
	assert.Zero(t, o.ConfidenceThreshold, "unset threshold defers to the strategy's own")
	assert.False(t, o.SkipValidation, "validation runs unless explicitly skipped")

	custom := ExtractionOptions{MaxRetries: 1, Timeout: time.Second, ConfidenceThreshold: 0.9}.Normalize()
	assert.Equal(t, 1, custom.MaxRetries)
	assert.Equal(t, time.Second, custom.Timeout)
	assert.InDelta(t, 0.9, custom.ConfidenceThreshold, 1e-9)
}

func TestExtractionOptions_Conversions(t *testing.T) {
	o := ExtractionOptions{
		Strategy:          constants.StrategyHybrid,
		PreferredProvider: "ollama:llava",
		ReturnRawText:     true,
	}.Normalize()

	po := o.providerOptions()
	assert.Equal(t, o.MaxRetries, po.MaxRetries)
	assert.Equal(t, o.Timeout, po.Timeout)
	assert.True(t, po.ReturnRawText)
	assert.InDelta(t, o.ConfidenceThreshold, po.ConfidenceThreshold, 1e-9)

	so := o.selectionOptions()
	assert.Equal(t, constants.StrategyHybrid, so.Strategy)
	assert.Equal(t, "ollama:llava", so.PreferredProvider)
}
