package schemas

import (
	"strings"
	"time"
)

// ErrorType is the coarse classification of a reported error.
type ErrorType string

const (
	ErrorTypeSyntax            ErrorType = "syntax_error"
	ErrorTypeType              ErrorType = "type_error"
	ErrorTypeImport            ErrorType = "import_error"
	ErrorTypeUndefinedVariable ErrorType = "undefined_variable"
	ErrorTypeMissingDependency ErrorType = "missing_dependency"
	ErrorTypeDeprecatedAPI     ErrorType = "deprecated_api"
	ErrorTypeSecurityIssue     ErrorType = "security_issue"
	ErrorTypePerformanceIssue  ErrorType = "performance_issue"
	ErrorTypeRuntime           ErrorType = "runtime_error"
	ErrorTypeCompilation       ErrorType = "compilation_error"
	ErrorTypeUnknown           ErrorType = "unknown"
)

// IsComplex reports whether the error type usually needs more than a local edit.
func (t ErrorType) IsComplex() bool {
	switch t {
	case ErrorTypeType, ErrorTypeCompilation, ErrorTypeRuntime:
		return true
	}
	return false
}

// Severity ranks how disruptive an error is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Weight returns the numeric priority used when ordering batches. Unknown
// severities weigh 1.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// Complexity is the estimated effort needed to resolve an error.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Weight returns 1, 2 or 3. Unknown complexities weigh 1.
func (c Complexity) Weight() int {
	switch c {
	case ComplexityHigh:
		return 3
	case ComplexityMedium:
		return 2
	default:
		return 1
	}
}

// ErrorFixRequest is the immutable input to the fix pipeline.
type ErrorFixRequest struct {
	ErrorMessage string   `json:"errorMessage" mapstructure:"errorMessage"`
	Code         string   `json:"code" mapstructure:"code"`
	Language     string   `json:"language" mapstructure:"language"`
	FilePath     string   `json:"filePath,omitempty" mapstructure:"filePath"`
	LineNumber   int      `json:"lineNumber,omitempty" mapstructure:"lineNumber"`
	StackTrace   string   `json:"stackTrace,omitempty" mapstructure:"stackTrace"`
	Context      string   `json:"context,omitempty" mapstructure:"context"`
	TestCases    []string `json:"testCases,omitempty" mapstructure:"testCases"`
}

// Normalized returns a copy of the request with its language folded to the
// canonical name.
func (r ErrorFixRequest) Normalized() ErrorFixRequest {
	r.Language = NormalizeLanguage(r.Language)
	return r
}

// ErrorAnalysis is the classifier's structured verdict on a single error.
type ErrorAnalysis struct {
	Type               ErrorType  `json:"type"`
	Category           string     `json:"category"`
	Severity           Severity   `json:"severity"`
	Cause              string     `json:"cause"`
	AffectedComponents []string   `json:"affectedComponents"`
	SuggestedApproach  string     `json:"suggestedApproach"`
	Complexity         Complexity `json:"complexity"`
	Confidence         float64    `json:"confidence"`
}

// DiagnosticSeverity is the severity of a single static finding.
type DiagnosticSeverity string

const (
	DiagnosticError   DiagnosticSeverity = "error"
	DiagnosticWarning DiagnosticSeverity = "warning"
	DiagnosticInfo    DiagnosticSeverity = "info"
	DiagnosticHint    DiagnosticSeverity = "hint"
)

// Weight orders diagnostics: error=4, warning=3, info=2, hint=1.
func (s DiagnosticSeverity) Weight() int {
	switch s {
	case DiagnosticError:
		return 4
	case DiagnosticWarning:
		return 3
	case DiagnosticInfo:
		return 2
	case DiagnosticHint:
		return 1
	}
	return 0
}

// Diagnostic is one finding produced by the diagnostic engine. Line and
// Column are 1-based.
type Diagnostic struct {
	Severity DiagnosticSeverity `json:"severity"`
	Message  string             `json:"message"`
	Line     int                `json:"line"`
	Column   int                `json:"column"`
	Type     string             `json:"type"`
	QuickFix string             `json:"quickFix,omitempty"`
}

// CodeChange describes a single edited line of a fix.
type CodeChange struct {
	Line   int    `json:"line"`
	Before string `json:"before"`
	After  string `json:"after"`
	Kind   string `json:"kind"`
}

// CodeFix is a candidate fix proposed by the inference service.
type CodeFix struct {
	Title              string       `json:"title"`
	Description        string       `json:"description"`
	FixedCode          string       `json:"fixedCode"`
	Changes            []CodeChange `json:"changes"`
	Confidence         float64      `json:"confidence"`
	PreservesSemantics bool         `json:"preservesSemantics"`
	RequiresUserReview bool         `json:"requiresUserReview"`
	Category           string       `json:"category"`
}

// ValidationResult is the inference service's verdict on a candidate fix.
type ValidationResult struct {
	IsValid         bool     `json:"isValid"`
	Confidence      float64  `json:"confidence"`
	Explanation     string   `json:"explanation"`
	PotentialIssues []string `json:"potentialIssues"`
}

// RankedFix is a candidate after validation and scoring.
type RankedFix struct {
	CodeFix
	ValidationScore   float64 `json:"validationScore"`
	IsValidated       bool    `json:"isValidated"`
	ValidationDetails string  `json:"validationDetails"`
	RankScore         float64 `json:"rankScore"`
}

// ResultMetadata summarizes one orchestration run.
type ResultMetadata struct {
	RequestID        string    `json:"requestId"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
	Confidence       float64   `json:"confidence"`
	Alternatives     int       `json:"alternatives"`
	GeneratedAt      time.Time `json:"generatedAt"`
}

// RankedFixResult is the response object of the fix pipeline. It is always
// well formed; Success=false carries the reason in Details.
type RankedFixResult struct {
	Success        bool           `json:"success"`
	OriginalError  string         `json:"originalError"`
	Analysis       *ErrorAnalysis `json:"analysis,omitempty"`
	RecommendedFix *RankedFix     `json:"recommendedFix,omitempty"`
	Fixes          []RankedFix    `json:"fixes"`
	IsValidated    bool           `json:"isValidated"`
	Degraded       bool           `json:"degraded"`
	Details        string         `json:"details,omitempty"`
	Metadata       ResultMetadata `json:"metadata"`
}

// Canonical language names.
const (
	LanguageJavaScript = "javascript"
	LanguagePython     = "python"
	LanguageGo         = "go"
	LanguageJava       = "java"
)

var languageAliases = map[string]string{
	"js":         LanguageJavaScript,
	"jsx":        LanguageJavaScript,
	"ts":         LanguageJavaScript,
	"tsx":        LanguageJavaScript,
	"typescript": LanguageJavaScript,
	"node":       LanguageJavaScript,
	"nodejs":     LanguageJavaScript,
	"py":         LanguagePython,
	"python3":    LanguagePython,
	"golang":     LanguageGo,
}

// NormalizeLanguage lowercases the name and folds known aliases.
func NormalizeLanguage(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	if canon, ok := languageAliases[l]; ok {
		return canon
	}
	return l
}
