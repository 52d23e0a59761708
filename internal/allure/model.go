package allure

// Allure 2 result-file model. Times are unix milliseconds.

type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusBroken  Status = "broken"
	StatusSkipped Status = "skipped"
)

type Severity string

const (
	SeverityBlocker  Severity = "blocker"
	SeverityCritical Severity = "critical"
	SeverityNormal   Severity = "normal"
	SeverityMinor    Severity = "minor"
	SeverityTrivial  Severity = "trivial"
)

// Attachment content types used by the suite.
const (
	TypeText     = "text/plain"
	TypeMarkdown = "text/markdown"
	TypeHTML     = "text/html"
	TypeJSON     = "application/json"
	TypePNG      = "image/png"
	TypeWebM     = "video/webm"
)

type Label struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

type Attachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

type StatusDetails struct {
	Message string `json:"message,omitempty"`
	Trace   string `json:"trace,omitempty"`
}

type Step struct {
	Name          string         `json:"name"`
	Status        Status         `json:"status"`
	StatusDetails *StatusDetails `json:"statusDetails,omitempty"`
	Stage         string         `json:"stage"`
	Start         int64          `json:"start"`
	Stop          int64          `json:"stop"`
	Steps         []*Step        `json:"steps"`
	Attachments   []Attachment   `json:"attachments"`
	Parameters    []Parameter    `json:"parameters"`
}

type Result struct {
	UUID          string         `json:"uuid"`
	HistoryID     string         `json:"historyId"`
	TestCaseID    string         `json:"testCaseId,omitempty"`
	Name          string         `json:"name"`
	FullName      string         `json:"fullName"`
	Description   string         `json:"description,omitempty"`
	Status        Status         `json:"status"`
	StatusDetails *StatusDetails `json:"statusDetails,omitempty"`
	Stage         string         `json:"stage"`
	Start         int64          `json:"start"`
	Stop          int64          `json:"stop"`
	Labels        []Label        `json:"labels"`
	Parameters    []Parameter    `json:"parameters"`
	Links         []Link         `json:"links"`
	Attachments   []Attachment   `json:"attachments"`
	Steps         []*Step        `json:"steps"`
}

// Category groups failures in the Allure UI by message pattern.
type Category struct {
	Name            string   `json:"name"`
	MatchedStatuses []Status `json:"matchedStatuses"`
	MessageRegex    string   `json:"messageRegex"`
}

// DefaultCategories classify the suite's own failure messages.
var DefaultCategories = []Category{
	{Name: "No Products Found", MatchedStatuses: []Status{StatusFailed}, MessageRegex: ".*No products found.*"},
	{Name: "Wrong Category", MatchedStatuses: []Status{StatusFailed}, MessageRegex: ".*No suitable products.*"},
	{Name: "Bot Detection", MatchedStatuses: []Status{StatusFailed}, MessageRegex: ".*bot.*detection.*"},
}
