package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/extractor"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &common.Config{}
	cfg.Ollama.BaseURL = "http://127.0.0.1:1"
	cfg.Discovery.ModelsDir = t.TempDir()
	engine := extractor.NewEngine(cfg, logger)
	return New(":0", engine, nil, logger)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	rec := do(t, testServer(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestServer_Templates(t *testing.T) {
	rec := do(t, testServer(t), http.MethodGet, "/v1/templates", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "accessory-label")
	assert.Contains(t, rec.Body.String(), "purchase-order")
}

func TestServer_ExtractRejectsBadRequests(t *testing.T) {
	s := testServer(t)

	rec := do(t, s, http.MethodPost, "/v1/extract", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/v1/extract", `{"file_path":"/tmp/x.png"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "template is required")

	rec = do(t, s, http.MethodPost, "/v1/extract", `{"template":"accessory-label"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file_path or content")
}

func TestServer_ExtractMissingFileIs404(t *testing.T) {
	rec := do(t, testServer(t), http.MethodPost, "/v1/extract",
		`{"template":"accessory-label","file_path":"/nonexistent/label.png"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentFromRequest(t *testing.T) {
	_, err := documentFromRequest(extractRequest{})
	assert.ErrorIs(t, err, common.ErrInvalidDocument)

	_, err = documentFromRequest(extractRequest{FilePath: "/tmp/x.png", Content: []byte("data")})
	assert.ErrorIs(t, err, common.ErrInvalidDocument)

	doc, err := documentFromRequest(extractRequest{Content: []byte("data"), ContentType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "image/png", doc.ContentType)
}

func TestParseStrategy(t *testing.T) {
	assert.Equal(t, constants.StrategyLocal, parseStrategy("local"))
	assert.Equal(t, constants.StrategyHybrid, parseStrategy("hybrid"))
	assert.Equal(t, constants.StrategyAuto, parseStrategy("fastest-please"))
}
