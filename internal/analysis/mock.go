package analysis

import (
	"context"
	"encoding/json"
	"fmt"
)

// MockProvider is a deterministic, offline provider used for tests and for
// local operation without upstream credentials. Odd pages fail the label
// criterion and carry one issue; even pages pass cleanly.
type MockProvider struct{}

// NewMockProvider creates a mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Name() string {
	return "mock"
}

func (p *MockProvider) AnalyzePage(_ context.Context, in PageInput) (json.RawMessage, error) {
	page := in.PageNumber
	hasIssue := page%2 == 1

	result := rawPageResult{
		SheetType: "architectural",
		Criteria: []rawCriterion{
			{
				ID:           fmt.Sprintf("EQ-%d", page),
				CriterionKey: "EQ",
				Name:         "Equipment/Element Labels",
				Result:       "pass",
				Summary:      fmt.Sprintf("Mock pass on page %d", page),
				Confidence:   ptr(88.0),
			},
		},
	}

	if hasIssue {
		result.SheetType = "electrical"
		result.Criteria[0].Result = "fail"
		result.Criteria[0].Summary = fmt.Sprintf("Mock missing label on page %d", page)
		result.Issues = []rawIssue{
			{
				Title:        "Mock missing label",
				Description:  fmt.Sprintf("Mocked issue for page %d", page),
				Severity:     "medium",
				Category:     "missing-label",
				CriterionKey: "EQ",
				Box2D:        []float64{120, 220, 220, 360},
				Confidence:   ptr(86.0),
			},
		}
	}

	return json.Marshal(result)
}

func ptr[T any](v T) *T {
	return &v
}
