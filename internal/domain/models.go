package domain

// IssueSeverity ranks how serious a flagged deficiency is
type IssueSeverity string

const (
	SeverityLow    IssueSeverity = "low"
	SeverityMedium IssueSeverity = "medium"
	SeverityHigh   IssueSeverity = "high"
)

// IssueStatus tracks the review lifecycle of an issue
type IssueStatus string

const (
	StatusOpen     IssueStatus = "open"
	StatusResolved IssueStatus = "resolved"
)

// IssueCategory classifies the kind of deficiency found on a sheet
type IssueCategory string

const (
	CategoryClash         IssueCategory = "clash"
	CategoryMissingLabel  IssueCategory = "missing-label"
	CategoryCodeViolation IssueCategory = "code-violation"
	CategoryClearance     IssueCategory = "clearance"
)

// SheetType is the content domain of a sheet, detected from the title block
// or drawing content
type SheetType string

const (
	SheetArchitectural SheetType = "architectural"
	SheetElectrical    SheetType = "electrical"
	SheetMechanical    SheetType = "mechanical"
	SheetStructural    SheetType = "structural"
	SheetPlumbing      SheetType = "plumbing"
	SheetCivil         SheetType = "civil"
	SheetCover         SheetType = "cover"
	SheetSchedule      SheetType = "schedule"
	SheetUnknown       SheetType = "unknown"
)

// SheetTypeLabels maps sheet types to display names for CLI output
var SheetTypeLabels = map[SheetType]string{
	SheetArchitectural: "Architectural",
	SheetElectrical:    "Electrical",
	SheetMechanical:    "Mechanical",
	SheetStructural:    "Structural",
	SheetPlumbing:      "Plumbing",
	SheetCivil:         "Civil",
	SheetCover:         "Cover Sheet",
	SheetSchedule:      "Schedule",
	SheetUnknown:       "Unknown",
}

// ToSheetType normalizes a free-form provider value to a known sheet type
func ToSheetType(value string) SheetType {
	switch SheetType(value) {
	case SheetArchitectural, SheetElectrical, SheetMechanical, SheetStructural,
		SheetPlumbing, SheetCivil, SheetCover, SheetSchedule, SheetUnknown:
		return SheetType(value)
	default:
		return SheetUnknown
	}
}

// CriterionResult is the per-page evaluation outcome of a QA criterion
type CriterionResult string

const (
	ResultPass          CriterionResult = "pass"
	ResultFail          CriterionResult = "fail"
	ResultNotApplicable CriterionResult = "not-applicable"
)

// BoundingBox is a normalized rectangle, all components in [0,1] with the
// origin at the top-left of the page
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Criterion is a validated, catalog-enriched QA check result for one page
type Criterion struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Result      CriterionResult `json:"result"`
	Summary     string          `json:"summary"`
	Page        int             `json:"page"`
	Confidence  int             `json:"confidence,omitempty"`
	SheetType   SheetType       `json:"sheetType,omitempty"`
}

// Issue is a flagged deficiency on a page with its spatial location
type Issue struct {
	ID          string        `json:"id"`
	Page        int           `json:"page"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Severity    IssueSeverity `json:"severity"`
	Status      IssueStatus   `json:"status"`
	Category    IssueCategory `json:"category"`
	BBox        BoundingBox   `json:"bbox"`
	CriterionID string        `json:"criterionId,omitempty"`
	Confidence  int           `json:"confidence,omitempty"`
	SheetType   SheetType     `json:"sheetType,omitempty"`
}

// PageRequest is one unit of input: a page number and its encoded image
// payload (a base64 data URL). The pipeline treats it as read-only.
type PageRequest struct {
	PageNumber int    `json:"pageNumber"`
	Image      string `json:"image"`
}

// PageStatus is the settled analysis outcome kind for one page
type PageStatus string

const (
	PageOK           PageStatus = "ok"
	PageUnrecognized PageStatus = "unrecognized"
	PageError        PageStatus = "error"
)

// PageOutcome summarizes the analysis of a single page. Exactly one outcome
// exists per input page, in input order.
type PageOutcome struct {
	PageNumber     int        `json:"pageNumber"`
	Status         PageStatus `json:"status"`
	IssueCount     int        `json:"issueCount"`
	CriterionCount int        `json:"criterionCount"`
	DurationMs     int64      `json:"durationMs,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// Timings holds wall-clock aggregates for one analysis request
type Timings struct {
	TotalMs   int64 `json:"totalMs"`
	AvgPageMs int64 `json:"avgPageMs"`
}

// ResultMetadata describes the document-level bookkeeping of one request.
// AnalyzedPages + FailedPages always equals TotalPages.
type ResultMetadata struct {
	RequestID     string  `json:"requestId"`
	TotalPages    int     `json:"totalPages"`
	AnalyzedPages int     `json:"analyzedPages"`
	FailedPages   int     `json:"failedPages"`
	EmptyIssues   bool    `json:"emptyIssues"`
	Timings       Timings `json:"timings"`
}

// DocumentResult aggregates the per-page results of one analysis request.
// Criteria, Issues and PageResults are ordered by input page order.
type DocumentResult struct {
	Criteria    []Criterion    `json:"criteria"`
	Issues      []Issue        `json:"issues"`
	PageResults []PageOutcome  `json:"pageResults"`
	Metadata    ResultMetadata `json:"metadata"`
}
