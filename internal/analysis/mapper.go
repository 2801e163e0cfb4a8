package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/planlens/blueprint-qa/internal/catalog"
	"github.com/planlens/blueprint-qa/internal/domain"
)

// defaultConfidence is assumed when the provider omits a confidence score.
const defaultConfidence = 50

// Raw provider result shapes. Every field is untrusted until it passes
// validation in MapPageResult.
type rawCriterion struct {
	ID           string   `json:"id,omitempty"`
	CriterionKey string   `json:"criterionKey"`
	Name         string   `json:"name"`
	Result       string   `json:"result"`
	Summary      string   `json:"summary"`
	Confidence   *float64 `json:"confidence,omitempty"`
}

type rawIssue struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Severity     string    `json:"severity"`
	Category     string    `json:"category"`
	CriterionKey string    `json:"criterionKey"`
	Box2D        []float64 `json:"box_2d"`
	Confidence   *float64  `json:"confidence,omitempty"`
}

type rawPageResult struct {
	SheetType string         `json:"sheetType,omitempty"`
	Criteria  []rawCriterion `json:"criteria"`
	Issues    []rawIssue     `json:"issues"`
}

// IssueCounter allocates batch-unique, strictly increasing issue ids. Safe
// under concurrent increment.
type IssueCounter struct {
	n atomic.Int64
}

// NewIssueCounter creates a counter; the first allocated id is 1.
func NewIssueCounter() *IssueCounter {
	return &IssueCounter{}
}

// Next returns the next issue id number.
func (c *IssueCounter) Next() int64 {
	return c.n.Add(1)
}

// MappedPage is the validated, catalog-enriched form of one page's result.
type MappedPage struct {
	Criteria     []domain.Criterion
	Issues       []domain.Issue
	Outcome      domain.PageOutcome
	Unrecognized bool
}

// Mapper validates raw provider results and converts them into domain types.
type Mapper struct {
	// UnrecognizedThreshold is the not-applicable ratio above which a page
	// is treated as unrecognized content.
	UnrecognizedThreshold float64
}

// NewMapper creates a mapper with the given unrecognized-content threshold.
func NewMapper(threshold float64) *Mapper {
	return &Mapper{UnrecognizedThreshold: threshold}
}

// MapPageResult validates a raw per-page result and maps it into domain
// criteria and issues. Issue ids come from the shared batch counter.
func (m *Mapper) MapPageResult(pageNumber int, raw json.RawMessage, counter *IssueCounter, durationMs int64) (*MappedPage, error) {
	var result rawPageResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, domain.MalformedResponseError("Provider result does not match the expected shape", err)
	}

	if err := validatePageResult(&result); err != nil {
		return nil, err
	}

	sheetType := domain.ToSheetType(result.SheetType)

	if m.isUnrecognized(result.Criteria) {
		return &MappedPage{
			Criteria: []domain.Criterion{
				{
					ID:          fmt.Sprintf("WARN-%d", pageNumber),
					Name:        "Content Recognition Warning",
					Description: "Unable to recognize this as a construction blueprint",
					Result:      domain.ResultNotApplicable,
					Summary: "The AI was unable to reliably identify this page as a construction blueprint. " +
						"Possible causes: not a blueprint, low image quality, or unsupported drawing type.",
					Page:      pageNumber,
					SheetType: sheetType,
				},
			},
			Outcome: domain.PageOutcome{
				PageNumber:     pageNumber,
				Status:         domain.PageUnrecognized,
				CriterionCount: 1,
				DurationMs:     durationMs,
			},
			Unrecognized: true,
		}, nil
	}

	criteria := make([]domain.Criterion, 0, len(result.Criteria))
	for _, c := range result.Criteria {
		id := c.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d", c.CriterionKey, pageNumber)
		}
		criteria = append(criteria, domain.Criterion{
			ID:          id,
			Name:        c.Name,
			Description: catalog.Description(c.CriterionKey),
			Result:      domain.CriterionResult(c.Result),
			Summary:     c.Summary,
			Page:        pageNumber,
			Confidence:  confidenceOrDefault(c.Confidence),
			SheetType:   sheetType,
		})
	}

	issues := make([]domain.Issue, 0, len(result.Issues))
	for _, issue := range result.Issues {
		issues = append(issues, domain.Issue{
			ID:          fmt.Sprintf("ISS-%03d", counter.Next()),
			Page:        pageNumber,
			Title:       issue.Title,
			Description: issue.Description,
			Severity:    domain.IssueSeverity(issue.Severity),
			Status:      domain.StatusOpen,
			Category:    normalizeCategory(issue.Category),
			BBox:        convertBBox(issue.Box2D),
			CriterionID: fmt.Sprintf("%s-%d", issue.CriterionKey, pageNumber),
			Confidence:  confidenceOrDefault(issue.Confidence),
			SheetType:   sheetType,
		})
	}

	return &MappedPage{
		Criteria: criteria,
		Issues:   issues,
		Outcome: domain.PageOutcome{
			PageNumber:     pageNumber,
			Status:         domain.PageOK,
			IssueCount:     len(issues),
			CriterionCount: len(criteria),
			DurationMs:     durationMs,
		},
	}, nil
}

// MakePageErrorCriterion synthesizes the criterion entry surfaced for a page
// whose analysis failed.
func MakePageErrorCriterion(pageNumber int, message string) domain.Criterion {
	return domain.Criterion{
		ID:          fmt.Sprintf("ERR-%d", pageNumber),
		Name:        "Analysis Error",
		Description: "Failed to analyze this page",
		Result:      domain.ResultNotApplicable,
		Summary:     message,
		Page:        pageNumber,
	}
}

func (m *Mapper) isUnrecognized(criteria []rawCriterion) bool {
	if len(criteria) == 0 {
		return false
	}
	notApplicable := 0
	for _, c := range criteria {
		if c.Result == string(domain.ResultNotApplicable) {
			notApplicable++
		}
	}
	ratio := float64(notApplicable) / float64(len(criteria))
	return ratio > m.UnrecognizedThreshold
}

func validatePageResult(result *rawPageResult) error {
	for _, c := range result.Criteria {
		if c.CriterionKey == "" || c.Name == "" {
			return domain.MalformedResponseError("Criterion is missing criterionKey or name", nil)
		}
		switch domain.CriterionResult(c.Result) {
		case domain.ResultPass, domain.ResultFail, domain.ResultNotApplicable:
		default:
			return domain.MalformedResponseError(
				fmt.Sprintf("Invalid criterion result %q", c.Result), nil)
		}
		if c.Confidence != nil && (*c.Confidence < 0 || *c.Confidence > 100) {
			return domain.MalformedResponseError("Criterion confidence out of range", nil)
		}
	}

	for _, issue := range result.Issues {
		if issue.Title == "" || issue.Description == "" || issue.CriterionKey == "" {
			return domain.MalformedResponseError("Issue is missing required fields", nil)
		}
		switch domain.IssueSeverity(issue.Severity) {
		case domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh:
		default:
			return domain.MalformedResponseError(
				fmt.Sprintf("Invalid issue severity %q", issue.Severity), nil)
		}
		if err := validateBBox(issue.Box2D); err != nil {
			return err
		}
		if issue.Confidence != nil && (*issue.Confidence < 0 || *issue.Confidence > 100) {
			return domain.MalformedResponseError("Issue confidence out of range", nil)
		}
	}

	return nil
}

func validateBBox(box []float64) error {
	if len(box) != 4 {
		return domain.MalformedResponseError("box_2d must contain exactly 4 numbers", nil)
	}
	for _, v := range box {
		if v < 0 || v > 1000 {
			return domain.MalformedResponseError("box_2d coordinate out of the 0-1000 range", nil)
		}
	}
	ymin, xmin, ymax, xmax := box[0], box[1], box[2], box[3]
	if ymax < ymin || xmax < xmin {
		return domain.MalformedResponseError("Invalid box_2d bounds ordering", nil)
	}
	return nil
}

// convertBBox maps a [ymin, xmin, ymax, xmax] box on the 0-1000 scale to a
// normalized rectangle, each component clamped to [0,1]. Callers validate
// the box first.
func convertBBox(box []float64) domain.BoundingBox {
	ymin, xmin, ymax, xmax := box[0], box[1], box[2], box[3]
	return domain.BoundingBox{
		X:      clamp01(xmin / 1000),
		Y:      clamp01(ymin / 1000),
		Width:  clamp01((xmax - xmin) / 1000),
		Height: clamp01((ymax - ymin) / 1000),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func confidenceOrDefault(v *float64) int {
	if v == nil {
		return defaultConfidence
	}
	return int(*v)
}

// normalizeCategory maps a provider category string onto the known set,
// with a best-effort fallback for common AI-generated variants. Any
// whitespace or underscore becomes a hyphen.
func normalizeCategory(value string) domain.IssueCategory {
	lower := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' {
			return '-'
		}
		return r
	}, strings.ToLower(value))

	switch domain.IssueCategory(lower) {
	case domain.CategoryClash, domain.CategoryMissingLabel,
		domain.CategoryCodeViolation, domain.CategoryClearance:
		return domain.IssueCategory(lower)
	}

	switch {
	case strings.Contains(lower, "label"),
		strings.Contains(lower, "missing"),
		strings.Contains(lower, "annotation"):
		return domain.CategoryMissingLabel
	case strings.Contains(lower, "code"),
		strings.Contains(lower, "violation"),
		strings.Contains(lower, "safety"):
		return domain.CategoryCodeViolation
	case strings.Contains(lower, "clear"),
		strings.Contains(lower, "spacing"),
		strings.Contains(lower, "access"):
		return domain.CategoryClearance
	default:
		return domain.CategoryClash
	}
}
