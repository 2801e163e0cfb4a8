package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/planlens/blueprint-qa/internal/config"
	"github.com/planlens/blueprint-qa/internal/domain"
	"github.com/planlens/blueprint-qa/internal/observability"
)

// GeminiProvider submits one page image per request to the Gemini
// generateContent endpoint and retries rate-limited responses with
// exponential backoff.
type GeminiProvider struct {
	apiKey         string
	model          string
	endpoint       string
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	httpClient     *http.Client
	logger         *observability.Logger
}

// NewGeminiProvider creates a live provider from configuration.
func NewGeminiProvider(cfg config.GeminiConfig, logger *observability.Logger) *GeminiProvider {
	return &GeminiProvider{
		apiKey:         cfg.APIKey,
		model:          cfg.Model,
		endpoint:       cfg.Endpoint,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		httpClient:     &http.Client{},
		logger:         logger,
	}
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Request/response shapes for the generateContent API.
type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiThinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string               `json:"response_mime_type"`
	Temperature      float64              `json:"temperature"`
	ThinkingConfig   geminiThinkingConfig `json:"thinkingConfig"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

var dataURLRe = regexp.MustCompile(`^data:(image/[a-zA-Z0-9.+-]+);base64,(.+)$`)

func parseImageDataURL(image string) (mimeType, data string, err error) {
	m := dataURLRe.FindStringSubmatch(image)
	if m == nil {
		return "", "", domain.PageAnalysisError(
			"Invalid image payload. Expected a base64 data URL.", nil)
	}
	return m[1], m[2], nil
}

var retryDelayRe = regexp.MustCompile(`(?i)retry in ([\d.]+)s`)

// parseRetryDelay extracts an upstream-suggested retry delay from an error
// body, or 0 when none is present.
func parseRetryDelay(body string) time.Duration {
	m := retryDelayRe.FindStringSubmatch(body)
	if m == nil {
		return 0
	}
	secs, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return time.Duration(math.Ceil(secs*1000)) * time.Millisecond
}

// AnalyzePage sends one page to Gemini and returns its raw JSON payload.
// 429/503 responses are retried with a doubling backoff, preferring an
// upstream-suggested delay when the error body carries one.
func (p *GeminiProvider) AnalyzePage(ctx context.Context, in PageInput) (json.RawMessage, error) {
	mimeType, data, err := parseImageDataURL(in.Image)
	if err != nil {
		return nil, err
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{
					{Text: BuildPrompt(in.PageNumber)},
					{InlineData: &geminiInlineData{MimeType: mimeType, Data: data}},
				},
			},
		},
		GenerationConfig: geminiGenerationConfig{
			ResponseMIMEType: "application/json",
			Temperature:      0.1,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, domain.APIError("Failed to marshal request", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.endpoint, p.model)

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := p.doRequest(ctx, url, body, in.RequestID)
		if err != nil {
			return nil, domain.APIError("Failed to send request", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			errText, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			if attempt == p.maxRetries {
				return nil, domain.RateLimitError(
					fmt.Sprintf("Gemini API rate limit after %d attempts", p.maxRetries+1), nil)
			}

			backoff := parseRetryDelay(string(errText))
			if backoff == 0 {
				backoff = p.initialBackoff << attempt
			}
			if p.maxBackoff > 0 && backoff > p.maxBackoff {
				backoff = p.maxBackoff
			}

			p.logger.Warn().
				Int("page", in.PageNumber).
				Int("status", resp.StatusCode).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Msg("Gemini rate limited, retrying")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			errText, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, domain.APIError(
				fmt.Sprintf("Gemini API error (%d): %s", resp.StatusCode, string(errText)), nil)
		}

		var parsed geminiResponse
		err = json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if err != nil {
			return nil, domain.MalformedResponseError("Failed to decode Gemini response", err)
		}

		text := candidateText(parsed)
		if text == "" {
			return nil, domain.MalformedResponseError("No text in Gemini response", nil)
		}

		if !json.Valid([]byte(text)) {
			return nil, domain.MalformedResponseError("Gemini returned malformed JSON", nil)
		}

		return json.RawMessage(text), nil
	}

	return nil, domain.RateLimitError("Gemini API: exhausted retries", nil)
}

func (p *GeminiProvider) doRequest(ctx context.Context, url string, body []byte, requestID string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	return p.httpClient.Do(req)
}

func candidateText(resp geminiResponse) string {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return resp.Candidates[0].Content.Parts[0].Text
}
