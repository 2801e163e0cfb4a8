package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/planlens/blueprint-qa/internal/config"
	"github.com/planlens/blueprint-qa/internal/domain"
	"github.com/planlens/blueprint-qa/internal/observability"
)

// User-facing failure messages. Per-page errors are sanitized to these
// before they reach the response.
const (
	msgInvalidDocument   = "Unable to analyze this document. Please upload a valid construction blueprint PDF."
	msgMalformedResponse = "Analysis failed: malformed AI response for this page."
	msgUpstreamFailure   = "Analysis failed due to an upstream AI service error."
)

// Orchestrator fans a batch of pages out to the provider concurrently and
// aggregates the settled per-page outcomes into a document-level result.
type Orchestrator struct {
	provider       Provider
	mapper         *Mapper
	logger         *observability.Logger
	maxPages       int
	maxConcurrency int
}

// NewOrchestrator creates an orchestrator for one provider.
func NewOrchestrator(provider Provider, cfg config.AnalysisConfig, logger *observability.Logger) *Orchestrator {
	return &Orchestrator{
		provider:       provider,
		mapper:         NewMapper(cfg.UnrecognizedThreshold),
		logger:         logger,
		maxPages:       cfg.MaxPages,
		maxConcurrency: cfg.MaxConcurrency,
	}
}

// settledPage is the captured outcome of one provider call: either a raw
// result with its duration, or the error that failed it. One page's failure
// never aborts its siblings.
type settledPage struct {
	raw        json.RawMessage
	durationMs int64
	err        error
}

// Analyze runs the full pipeline for one batch of pages. It returns an
// invalid-request error for admission violations, a configuration error
// never (the provider already exists), and an invalid-document error when
// every page fails; single-page failures only surface in the result.
func (o *Orchestrator) Analyze(ctx context.Context, pages []domain.PageRequest) (*domain.DocumentResult, error) {
	requestID := uuid.NewString()
	startedAt := time.Now()
	logger := o.logger.WithRequestID(requestID)

	if err := ValidateBatch(pages, o.maxPages); err != nil {
		return nil, err
	}

	logger.Info().
		Str("provider", o.provider.Name()).
		Int("page_count", len(pages)).
		Msg("analysis request received")

	settled := o.dispatch(ctx, requestID, pages)

	allCriteria := []domain.Criterion{}
	allIssues := []domain.Issue{}
	pageResults := make([]domain.PageOutcome, 0, len(pages))
	counter := NewIssueCounter()
	failedPages := 0

	// Reassemble in input order regardless of completion order.
	for i, page := range pages {
		s := settled[i]

		mapped, err := o.settleToMapped(s, page.PageNumber, counter)
		if err != nil {
			userMessage := userFacingMessage(err)
			logger.Error().
				Int("page", page.PageNumber).
				Err(err).
				Msg("page analysis failed")
			allCriteria = append(allCriteria, MakePageErrorCriterion(page.PageNumber, userMessage))
			pageResults = append(pageResults, domain.PageOutcome{
				PageNumber:     page.PageNumber,
				Status:         domain.PageError,
				CriterionCount: 1,
				Error:          userMessage,
			})
			failedPages++
			continue
		}

		allCriteria = append(allCriteria, mapped.Criteria...)
		allIssues = append(allIssues, mapped.Issues...)
		pageResults = append(pageResults, mapped.Outcome)
		if mapped.Unrecognized {
			failedPages++
		}
	}

	// A document that fails analysis on every page is not a valid input of
	// the expected type, not merely unlucky on one page.
	if failedPages == len(pages) {
		logger.Warn().
			Str("provider", o.provider.Name()).
			Int("page_count", len(pages)).
			Msg("all pages failed analysis")
		return nil, domain.InvalidDocumentError(msgInvalidDocument, nil)
	}

	totalMs := time.Since(startedAt).Milliseconds()
	var durationSum int64
	for _, p := range pageResults {
		durationSum += p.DurationMs
	}
	avgPageMs := int64(0)
	if len(pageResults) > 0 {
		avgPageMs = durationSum / int64(len(pageResults))
	}

	logger.Info().
		Str("provider", o.provider.Name()).
		Int("total_pages", len(pages)).
		Int("failed_pages", failedPages).
		Int("issue_count", len(allIssues)).
		Int64("duration_ms", totalMs).
		Msg("analysis request completed")

	return &domain.DocumentResult{
		Criteria:    allCriteria,
		Issues:      allIssues,
		PageResults: pageResults,
		Metadata: domain.ResultMetadata{
			RequestID:     requestID,
			TotalPages:    len(pages),
			AnalyzedPages: len(pages) - failedPages,
			FailedPages:   failedPages,
			EmptyIssues:   len(allIssues) == 0,
			Timings: domain.Timings{
				TotalMs:   totalMs,
				AvgPageMs: avgPageMs,
			},
		},
	}, nil
}

// ValidateBatch checks batch admission rules: a non-empty batch within the
// page ceiling, every page with a positive number and a non-empty image.
// Callers run it before any provider work so admission failures never depend
// on provider configuration.
func ValidateBatch(pages []domain.PageRequest, maxPages int) error {
	if len(pages) == 0 {
		return domain.InvalidRequestError("Invalid analysis request payload.", nil)
	}
	if len(pages) > maxPages {
		return domain.InvalidRequestError(
			fmt.Sprintf("Too many pages: %d (maximum %d)", len(pages), maxPages), nil)
	}
	for _, p := range pages {
		if p.PageNumber <= 0 || p.Image == "" {
			return domain.InvalidRequestError("Invalid analysis request payload.", nil)
		}
	}
	return nil
}

// dispatch runs one provider call per page on a bounded worker pool and
// returns the settled outcomes keyed by input index.
func (o *Orchestrator) dispatch(ctx context.Context, requestID string, pages []domain.PageRequest) []settledPage {
	type workItem struct {
		index int
		page  domain.PageRequest
	}

	workChan := make(chan workItem, len(pages))
	for i, page := range pages {
		workChan <- workItem{index: i, page: page}
	}
	close(workChan)

	results := make([]settledPage, len(pages))
	workers := o.concurrencyFor(len(pages))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workChan {
				started := time.Now()
				raw, err := o.provider.AnalyzePage(ctx, PageInput{
					PageNumber: item.page.PageNumber,
					Image:      item.page.Image,
					RequestID:  requestID,
				})
				// Workers write disjoint indices; no further
				// synchronization is needed.
				results[item.index] = settledPage{
					raw:        raw,
					durationMs: time.Since(started).Milliseconds(),
					err:        err,
				}
			}
		}()
	}
	wg.Wait()

	return results
}

// settleToMapped turns a settled provider outcome into a mapped page,
// running the validator/mapper on successes.
func (o *Orchestrator) settleToMapped(s settledPage, pageNumber int, counter *IssueCounter) (*MappedPage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return o.mapper.MapPageResult(pageNumber, s.raw, counter, s.durationMs)
}

// concurrencyFor bounds the worker count: an explicit configuration wins,
// otherwise half the cores clamped to [2,4], and never more workers than
// pages.
func (o *Orchestrator) concurrencyFor(pageCount int) int {
	preferred := o.maxConcurrency
	if preferred <= 0 {
		preferred = runtime.NumCPU() / 2
		if preferred < 2 {
			preferred = 2
		}
		if preferred > 4 {
			preferred = 4
		}
	}
	if preferred > pageCount {
		preferred = pageCount
	}
	if preferred < 1 {
		preferred = 1
	}
	return preferred
}

// userFacingMessage sanitizes a per-page failure into the message surfaced
// in the error criterion and page outcome.
func userFacingMessage(err error) string {
	switch domain.TypeOf(err) {
	case domain.ErrorTypeMalformedResponse:
		return msgMalformedResponse
	case domain.ErrorTypeAPI:
		return msgUpstreamFailure
	default:
		return "Analysis failed: " + domain.MessageOf(err)
	}
}
