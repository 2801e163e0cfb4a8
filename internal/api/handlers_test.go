package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planlens/blueprint-qa/internal/config"
	"github.com/planlens/blueprint-qa/internal/domain"
	"github.com/planlens/blueprint-qa/internal/observability"
)

func mockRouter() http.Handler {
	cfg := config.DefaultConfig()
	cfg.Analysis.Provider = "mock"
	return NewRouter(observability.Nop(), cfg)
}

func analyzeBody(t *testing.T, pageCount int) *bytes.Buffer {
	t.Helper()
	pages := make([]PageDTO, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		pages = append(pages, PageDTO{PageNumber: i, Image: "data:image/jpeg;base64,AAAA"})
	}
	body, err := json.Marshal(AnalyzeRequestDTO{Pages: pages})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestAnalyzeEndpoint_Success(t *testing.T) {
	router := mockRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", analyzeBody(t, 3))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result domain.DocumentResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	require.Len(t, result.PageResults, 3)
	for i, pr := range result.PageResults {
		assert.Equal(t, i+1, pr.PageNumber)
	}
	assert.Equal(t, 3, result.Metadata.TotalPages)
	assert.Equal(t, result.Metadata.TotalPages,
		result.Metadata.AnalyzedPages+result.Metadata.FailedPages)
	assert.NotEmpty(t, result.Metadata.RequestID)

	// The mock flags one issue per odd page.
	assert.Len(t, result.Issues, 2)
	assert.False(t, result.Metadata.EmptyIssues)
}

func TestAnalyzeEndpoint_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"pages": [`},
		{"empty pages", `{"pages": []}`},
		{"missing image", `{"pages": [{"pageNumber": 1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mockRouter().ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)

			var errBody map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
			assert.NotEmpty(t, errBody["message"])
		})
	}
}

func TestAnalyzeEndpoint_TooManyPages(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", analyzeBody(t, 21))
	rec := httptest.NewRecorder()
	mockRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errBody map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, fmt.Sprintf("Too many pages: %d (maximum %d)", 21, 20), errBody["message"])
}

func TestAnalyzeEndpoint_BadBatchBeforeCredentialCheck(t *testing.T) {
	// Admission failures are 400s even when the gemini key is also missing.
	cfg := config.DefaultConfig()
	cfg.Analysis.Provider = "gemini"
	router := NewRouter(observability.Nop(), cfg)

	tests := []struct {
		name string
		body *bytes.Buffer
	}{
		{"empty batch", bytes.NewBufferString(`{"pages":[]}`)},
		{"too many pages", analyzeBody(t, 21)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", tt.body)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)

			var errBody map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
			assert.NotContains(t, errBody["message"], "GEMINI_API_KEY")
		})
	}
}

func TestAnalyzeEndpoint_MissingCredentials(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Analysis.Provider = "gemini"
	router := NewRouter(observability.Nop(), cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", analyzeBody(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var errBody map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Contains(t, errBody["message"], "GEMINI_API_KEY")
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mockRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"blueprint-qa"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	mockRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}
