// Package analysis implements the per-page analysis pipeline: providers,
// response validation, and the concurrent orchestrator.
package analysis

import (
	"context"
	"encoding/json"

	"github.com/planlens/blueprint-qa/internal/config"
	"github.com/planlens/blueprint-qa/internal/domain"
	"github.com/planlens/blueprint-qa/internal/observability"
)

// PageInput is one page handed to a provider for analysis.
type PageInput struct {
	PageNumber int
	Image      string // base64 data URL
	RequestID  string // correlation id for upstream tracing, may be empty
}

// Provider performs one page's analysis. The returned payload is the raw,
// untrusted JSON the upstream produced; the mapper validates it before use.
type Provider interface {
	Name() string
	AnalyzePage(ctx context.Context, in PageInput) (json.RawMessage, error)
}

// NewProvider selects and constructs the provider variant from configuration.
// Explicit "mock" selection or the mock flag wins over credential presence.
func NewProvider(cfg *config.Config, logger *observability.Logger) (Provider, error) {
	useMock := cfg.Analysis.Provider == "mock" || cfg.Analysis.MockAnalysis
	if useMock {
		return NewMockProvider(), nil
	}

	if cfg.Gemini.APIKey == "" {
		return nil, domain.ConfigurationError(
			"GEMINI_API_KEY is not configured. Set it in your .env file.", nil)
	}

	return NewGeminiProvider(cfg.Gemini, logger), nil
}
