package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planlens/blueprint-qa/internal/config"
	"github.com/planlens/blueprint-qa/internal/domain"
	"github.com/planlens/blueprint-qa/internal/observability"
)

// fakeProvider delegates to fn and counts invocations.
type fakeProvider struct {
	fn    func(in PageInput) (json.RawMessage, error)
	calls atomic.Int64
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) AnalyzePage(_ context.Context, in PageInput) (json.RawMessage, error) {
	p.calls.Add(1)
	return p.fn(in)
}

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		MaxPages:              20,
		MaxConcurrency:        4,
		UnrecognizedThreshold: 0.7,
	}
}

func makePages(n int) []domain.PageRequest {
	pages := make([]domain.PageRequest, 0, n)
	for i := 1; i <= n; i++ {
		pages = append(pages, domain.PageRequest{
			PageNumber: i,
			Image:      "data:image/jpeg;base64,AAAA",
		})
	}
	return pages
}

func okResult(t *testing.T, issueCount int) json.RawMessage {
	t.Helper()
	issues := make([]rawIssue, 0, issueCount)
	for i := 0; i < issueCount; i++ {
		issues = append(issues, rawIssue{
			Title:        fmt.Sprintf("Issue %d", i+1),
			Description:  "A deficiency worth flagging.",
			Severity:     "medium",
			Category:     "clash",
			CriterionKey: "EQ",
			Box2D:        []float64{100, 100, 200, 200},
		})
	}
	return mustRaw(t, rawPageResult{
		SheetType: "architectural",
		Criteria:  []rawCriterion{passCriterion("EQ", "Equipment/Element Labels")},
		Issues:    issues,
	})
}

func TestAnalyze_OrderedResults(t *testing.T) {
	provider := &fakeProvider{fn: func(in PageInput) (json.RawMessage, error) {
		return okResult(t, 1), nil
	}}
	o := NewOrchestrator(provider, testAnalysisConfig(), observability.Nop())

	result, err := o.Analyze(context.Background(), makePages(4))
	require.NoError(t, err)

	require.Len(t, result.PageResults, 4)
	for i, pr := range result.PageResults {
		assert.Equal(t, i+1, pr.PageNumber)
		assert.Equal(t, domain.PageOK, pr.Status)
	}

	assert.Equal(t, 4, result.Metadata.TotalPages)
	assert.Equal(t, 4, result.Metadata.AnalyzedPages)
	assert.Equal(t, 0, result.Metadata.FailedPages)
	assert.False(t, result.Metadata.EmptyIssues)
	assert.NotEmpty(t, result.Metadata.RequestID)
	assert.Equal(t, int64(4), provider.calls.Load())
}

func TestAnalyze_SinglePageFailureDoesNotAbortBatch(t *testing.T) {
	provider := &fakeProvider{fn: func(in PageInput) (json.RawMessage, error) {
		if in.PageNumber == 2 {
			return nil, domain.APIError("Gemini API error (500): boom", nil)
		}
		return okResult(t, 1), nil
	}}
	o := NewOrchestrator(provider, testAnalysisConfig(), observability.Nop())

	result, err := o.Analyze(context.Background(), makePages(2))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Metadata.AnalyzedPages)
	assert.Equal(t, 1, result.Metadata.FailedPages)
	assert.Equal(t, 2, result.Metadata.TotalPages)

	require.Len(t, result.PageResults, 2)
	assert.Equal(t, domain.PageOK, result.PageResults[0].Status)
	assert.Equal(t, domain.PageError, result.PageResults[1].Status)
	assert.Equal(t, msgUpstreamFailure, result.PageResults[1].Error)

	var errCriterion *domain.Criterion
	for i := range result.Criteria {
		if result.Criteria[i].ID == "ERR-2" {
			errCriterion = &result.Criteria[i]
		}
	}
	require.NotNil(t, errCriterion, "expected an ERR-2 criterion for the failed page")
	assert.Equal(t, domain.ResultNotApplicable, errCriterion.Result)
	assert.Equal(t, msgUpstreamFailure, errCriterion.Summary)

	// The surviving page keeps its results.
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 1, result.Issues[0].Page)
}

func TestAnalyze_MalformedResultBecomesPageError(t *testing.T) {
	provider := &fakeProvider{fn: func(in PageInput) (json.RawMessage, error) {
		if in.PageNumber == 1 {
			return json.RawMessage(`{"criteria":[{"criterionKey":"EQ","name":"Labels","result":"maybe"}]}`), nil
		}
		return okResult(t, 0), nil
	}}
	o := NewOrchestrator(provider, testAnalysisConfig(), observability.Nop())

	result, err := o.Analyze(context.Background(), makePages(2))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Metadata.FailedPages)
	assert.Equal(t, domain.PageError, result.PageResults[0].Status)
	assert.Equal(t, msgMalformedResponse, result.PageResults[0].Error)
}

func TestAnalyze_AllPagesFailed(t *testing.T) {
	provider := &fakeProvider{fn: func(in PageInput) (json.RawMessage, error) {
		return nil, domain.APIError("Gemini API error (503): overloaded", nil)
	}}
	o := NewOrchestrator(provider, testAnalysisConfig(), observability.Nop())

	_, err := o.Analyze(context.Background(), makePages(3))
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeInvalidDocument, domain.TypeOf(err))
	assert.Equal(t, msgInvalidDocument, domain.MessageOf(err))
}

func TestAnalyze_AllPagesUnrecognized(t *testing.T) {
	na := rawCriterion{CriterionKey: "EQ", Name: "Labels", Result: "not-applicable"}
	provider := &fakeProvider{fn: func(in PageInput) (json.RawMessage, error) {
		return mustRaw(t, rawPageResult{Criteria: []rawCriterion{na, na, na}}), nil
	}}
	o := NewOrchestrator(provider, testAnalysisConfig(), observability.Nop())

	_, err := o.Analyze(context.Background(), makePages(2))
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeInvalidDocument, domain.TypeOf(err))
}

func TestAnalyze_BatchValidation(t *testing.T) {
	tests := []struct {
		name  string
		pages []domain.PageRequest
	}{
		{"empty batch", nil},
		{"too many pages", makePages(21)},
		{"zero page number", []domain.PageRequest{{PageNumber: 0, Image: "data:image/jpeg;base64,AAAA"}}},
		{"empty image", []domain.PageRequest{{PageNumber: 1, Image: ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{fn: func(in PageInput) (json.RawMessage, error) {
				return okResult(t, 0), nil
			}}
			o := NewOrchestrator(provider, testAnalysisConfig(), observability.Nop())

			_, err := o.Analyze(context.Background(), tt.pages)
			require.Error(t, err)
			assert.Equal(t, domain.ErrorTypeInvalidRequest, domain.TypeOf(err))
			assert.Zero(t, provider.calls.Load(), "provider must not run for a rejected batch")
		})
	}
}

func TestAnalyze_IssueIDsUniqueUnderConcurrency(t *testing.T) {
	provider := &fakeProvider{fn: func(in PageInput) (json.RawMessage, error) {
		return okResult(t, 3), nil
	}}
	o := NewOrchestrator(provider, testAnalysisConfig(), observability.Nop())

	result, err := o.Analyze(context.Background(), makePages(12))
	require.NoError(t, err)
	require.Len(t, result.Issues, 36)

	seen := make(map[string]bool)
	ids := make([]string, 0, len(result.Issues))
	for _, issue := range result.Issues {
		assert.False(t, seen[issue.ID], "duplicate issue id %s", issue.ID)
		seen[issue.ID] = true
		ids = append(ids, issue.ID)
	}
	assert.True(t, sort.StringsAreSorted(ids), "issue ids should be assigned in aggregation order")
	assert.Equal(t, "ISS-001", ids[0])
	assert.Equal(t, "ISS-036", ids[len(ids)-1])
}

func TestAnalyze_EmptyIssuesFlag(t *testing.T) {
	provider := &fakeProvider{fn: func(in PageInput) (json.RawMessage, error) {
		return okResult(t, 0), nil
	}}
	o := NewOrchestrator(provider, testAnalysisConfig(), observability.Nop())

	result, err := o.Analyze(context.Background(), makePages(2))
	require.NoError(t, err)
	assert.True(t, result.Metadata.EmptyIssues)
	assert.Empty(t, result.Issues)
}

func TestConcurrencyFor(t *testing.T) {
	explicit := NewOrchestrator(nil, config.AnalysisConfig{MaxPages: 20, MaxConcurrency: 8}, observability.Nop())
	assert.Equal(t, 8, explicit.concurrencyFor(10))
	assert.Equal(t, 3, explicit.concurrencyFor(3), "never more workers than pages")

	derived := NewOrchestrator(nil, config.AnalysisConfig{MaxPages: 20}, observability.Nop())
	got := derived.concurrencyFor(100)
	assert.GreaterOrEqual(t, got, 2)
	assert.LessOrEqual(t, got, 4)
	assert.Equal(t, 1, derived.concurrencyFor(1))
}
