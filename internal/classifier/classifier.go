// internal/classifier/classifier.go
package classifier

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/remedy/api/schemas"
	"github.com/xkilldash9x/remedy/internal/patterns"
)

// Signal confidences for the non-catalog steps.
const (
	unknownConfidence    = 0.3
	stackFrameConfidence = 0.6
	scopeConfidence      = 0.7
	resolutionConfidence = 0.65
	degradedConfidence   = 0.5
)

// Classifier turns a raw error report into a structured ErrorAnalysis.
type Classifier struct {
	logger  *zap.Logger
	catalog *patterns.Catalog
}

// New creates a classifier. A nil catalog selects the built-in one.
func New(logger *zap.Logger, catalog *patterns.Catalog) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalog == nil {
		catalog = patterns.Default()
	}
	return &Classifier{
		logger:  logger.Named("classifier"),
		catalog: catalog,
	}
}

// Classify never fails. Internal failures, including panics and a cancelled
// context, degrade to an unknown analysis at confidence 0.5.
func (c *Classifier) Classify(ctx context.Context, req schemas.ErrorFixRequest) (analysis schemas.ErrorAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("Classification panicked; degrading to unknown.", zap.Any("panic", r))
			analysis = degraded(fmt.Sprint(r))
		}
	}()

	a, err := c.classify(ctx, req.Normalized())
	if err != nil {
		c.logger.Warn("Classification failed; degrading to unknown.", zap.Error(err))
		return degraded(err.Error())
	}
	return a
}

func degraded(reason string) schemas.ErrorAnalysis {
	return schemas.ErrorAnalysis{
		Type:               schemas.ErrorTypeUnknown,
		Category:           "unknown",
		Severity:           schemas.SeverityMedium,
		Cause:              "Analysis failed: " + reason,
		AffectedComponents: []string{},
		SuggestedApproach:  "Review the error manually",
		Complexity:         schemas.ComplexityMedium,
		Confidence:         degradedConfidence,
	}
}

func (c *Classifier) classify(ctx context.Context, req schemas.ErrorFixRequest) (schemas.ErrorAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return schemas.ErrorAnalysis{}, err
	}

	a := schemas.ErrorAnalysis{
		Type:               schemas.ErrorTypeUnknown,
		Category:           "unknown",
		Severity:           schemas.SeverityMedium,
		Cause:              "Unrecognized error: " + firstLine(req.ErrorMessage),
		AffectedComponents: []string{},
		SuggestedApproach:  "Inspect the failing line and the surrounding code",
		Confidence:         unknownConfidence,
	}
	if req.FilePath != "" {
		a.AffectedComponents = appendUnique(a.AffectedComponents, req.FilePath)
	}

	// 1. Catalog match seeds the analysis.
	matched := false
	if p := c.catalog.Match(req.ErrorMessage, req.Language); p != nil && p.Confidence >= a.Confidence {
		matched = true
		a.Type = p.Type
		a.Category = p.Category
		a.Severity = p.Severity
		a.Cause = p.Cause()
		a.SuggestedApproach = p.Solution()
		a.Confidence = p.Confidence
	}

	// 2. The first application frame refines the cause only, and only when
	// it is at least as confident as what is already held. Its file is
	// always recorded as affected.
	frames := ParseStackTrace(req.StackTrace, req.Language)
	if frame, ok := FirstApplicationFrame(frames); ok {
		a.AffectedComponents = appendUnique(a.AffectedComponents, frame.File)
		if stackFrameConfidence >= a.Confidence {
			a.Cause = fmt.Sprintf("%s (at %s)", a.Cause, formatFrame(frame))
			a.Confidence = stackFrameConfidence
		}
	}

	if err := ctx.Err(); err != nil {
		return schemas.ErrorAnalysis{}, err
	}

	// 3. Keyword scan over the message and its context.
	if sig, ok := contextSignal(req); ok {
		switch {
		case !matched && sig.confidence >= a.Confidence:
			a.Type = sig.typ
			a.Category = sig.category
			a.Cause = sig.cause
			a.Confidence = sig.confidence
		case matched && sig.typ == a.Type && sig.confidence > a.Confidence:
			a.Confidence = sig.confidence
		}
	}

	// 4. Language-specific refinement of the approach.
	if approach, ok := refineApproach(req.Language, req.ErrorMessage); ok {
		a.SuggestedApproach = approach
	}

	// 5. Complexity.
	a.Complexity = estimateComplexity(a, len(frames), req.Code)
	a.Confidence = clamp(a.Confidence)

	c.logger.Debug("Classified error.",
		zap.String("type", string(a.Type)),
		zap.String("category", a.Category),
		zap.Float64("confidence", a.Confidence))
	return a, nil
}

type signal struct {
	typ        schemas.ErrorType
	category   string
	cause      string
	confidence float64
}

// contextSignal scans the error message, the caller-provided context and the
// reported code line for scope and resolution keywords.
func contextSignal(req schemas.ErrorFixRequest) (signal, bool) {
	text := strings.ToLower(strings.Join([]string{req.ErrorMessage, req.Context, lineAt(req.Code, req.LineNumber)}, "\n"))
	switch {
	case strings.Contains(text, "not defined") || strings.Contains(text, "undefined"):
		return signal{
			typ:        schemas.ErrorTypeUndefinedVariable,
			category:   "scope_error",
			cause:      "Identifier referenced outside of its scope",
			confidence: scopeConfidence,
		}, true
	case strings.Contains(text, "import") || strings.Contains(text, "module"):
		return signal{
			typ:        schemas.ErrorTypeImport,
			category:   "module_resolution",
			cause:      "Module or import could not be resolved",
			confidence: resolutionConfidence,
		}, true
	}
	return signal{}, false
}

var (
	jsNullRead     = regexp.MustCompile(`(?i)cannot read propert(y|ies)`)
	pyIndentation  = regexp.MustCompile(`IndentationError|TabError`)
	goNilDeref     = regexp.MustCompile(`nil pointer dereference`)
	javaNullPtrExc = regexp.MustCompile(`NullPointerException`)
)

func refineApproach(language, message string) (string, bool) {
	switch language {
	case schemas.LanguageJavaScript:
		if jsNullRead.MatchString(message) {
			return "Null reference: guard the access with optional chaining (?.) or an explicit undefined/null check", true
		}
	case schemas.LanguagePython:
		if pyIndentation.MatchString(message) {
			return "Indentation: re-indent the block consistently with spaces and remove stray tabs", true
		}
	case schemas.LanguageGo:
		if goNilDeref.MatchString(message) {
			return "Nil reference: check the pointer, map or interface for nil before use", true
		}
	case schemas.LanguageJava:
		if javaNullPtrExc.MatchString(message) {
			return "Null reference: check for null or wrap the value in Optional before dereferencing", true
		}
	}
	return "", false
}

func estimateComplexity(a schemas.ErrorAnalysis, frameCount int, code string) schemas.Complexity {
	score := 0
	if a.Type.IsComplex() {
		score += 2
	}
	if frameCount > 5 {
		score++
	}
	if code != "" && strings.Count(code, "\n")+1 > 50 {
		score++
	}
	if a.Confidence < 0.7 {
		score++
	}
	switch {
	case score >= 4:
		return schemas.ComplexityHigh
	case score >= 2:
		return schemas.ComplexityMedium
	default:
		return schemas.ComplexityLow
	}
}

func formatFrame(f Frame) string {
	loc := fmt.Sprintf("%s:%d", f.File, f.Line)
	if f.Function != "" {
		loc += " in " + f.Function
	}
	return loc
}

func lineAt(code string, lineNumber int) string {
	if lineNumber <= 0 || code == "" {
		return ""
	}
	lines := strings.Split(code, "\n")
	if lineNumber > len(lines) {
		return ""
	}
	return lines[lineNumber-1]
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func clamp(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
