// internal/diagnostics/engine.go
package diagnostics

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/remedy/api/schemas"
)

// CheckType names one independent diagnostic pass.
type CheckType string

const (
	CheckSyntax      CheckType = "syntax"
	CheckSemantic    CheckType = "semantic"
	CheckStyle       CheckType = "style"
	CheckSecurity    CheckType = "security"
	CheckPerformance CheckType = "performance"
	// CheckAll expands to every registered pass.
	CheckAll CheckType = "all"
)

// DefaultMaxLineLength is the style pass line limit when none is configured.
const DefaultMaxLineLength = 120

// checkFunc is a pure pass over a source. It must not retain or mutate src.
type checkFunc func(src *source) []schemas.Diagnostic

type check struct {
	name CheckType
	run  checkFunc
}

// Engine runs a configurable set of independent checks over source text.
type Engine struct {
	logger        *zap.Logger
	checks        []check
	maxLineLength int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxLineLength sets the style pass line limit. Non-positive values keep
// the default.
func WithMaxLineLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxLineLength = n
		}
	}
}

// withCheck registers an additional pass, or replaces the one of the same name.
func withCheck(name CheckType, fn checkFunc) Option {
	return func(e *Engine) {
		for i := range e.checks {
			if e.checks[i].name == name {
				e.checks[i].run = fn
				return
			}
		}
		e.checks = append(e.checks, check{name: name, run: fn})
	}
}

// NewEngine builds an engine with the built-in syntax, semantic, style,
// security and performance passes.
func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:        logger.Named("diagnostics"),
		maxLineLength: DefaultMaxLineLength,
	}
	e.checks = []check{
		{CheckSyntax, checkSyntax},
		{CheckSemantic, checkSemantic},
		{CheckStyle, func(src *source) []schemas.Diagnostic { return checkStyle(src, e.maxLineLength) }},
		{CheckSecurity, checkSecurity},
		{CheckPerformance, checkPerformance},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Checks lists the registered pass names in execution order.
func (e *Engine) Checks() []CheckType {
	names := make([]CheckType, 0, len(e.checks))
	for _, c := range e.checks {
		names = append(names, c.name)
	}
	return names
}

// Analyze runs the requested passes over code and returns their findings
// ordered by descending severity weight, ties in encounter order. An empty
// request or "all" runs every pass once. Unknown pass names are skipped.
func (e *Engine) Analyze(code, language string, checkTypes []string) []schemas.Diagnostic {
	src := newSource(code, schemas.NormalizeLanguage(language))

	var diags []schemas.Diagnostic
	for _, c := range e.resolve(checkTypes) {
		diags = append(diags, e.runCheck(c, src)...)
	}

	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Severity.Weight() > diags[j].Severity.Weight()
	})
	if diags == nil {
		diags = []schemas.Diagnostic{}
	}
	return diags
}

// resolve de-duplicates the request and maps it onto registered passes.
func (e *Engine) resolve(checkTypes []string) []check {
	if len(checkTypes) == 0 {
		return e.checks
	}
	seen := make(map[CheckType]bool, len(checkTypes))
	var wanted []CheckType
	for _, raw := range checkTypes {
		name := CheckType(strings.ToLower(strings.TrimSpace(raw)))
		if name == CheckAll {
			return e.checks
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		wanted = append(wanted, name)
	}

	var out []check
	for _, name := range wanted {
		found := false
		for _, c := range e.checks {
			if c.name == name {
				out = append(out, c)
				found = true
				break
			}
		}
		if !found {
			e.logger.Debug("Skipping unknown check type.", zap.String("check", string(name)))
		}
	}
	return out
}

// runCheck isolates a pass so that a panic in one never aborts the others.
func (e *Engine) runCheck(c check, src *source) (diags []schemas.Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Diagnostic check failed.",
				zap.String("check", string(c.name)),
				zap.String("panic", fmt.Sprint(r)))
			diags = nil
		}
	}()
	return c.run(src)
}

func diag(sev schemas.DiagnosticSeverity, typ CheckType, line, col int, msg, quickFix string) schemas.Diagnostic {
	return schemas.Diagnostic{
		Severity: sev,
		Message:  msg,
		Line:     line,
		Column:   col,
		Type:     string(typ),
		QuickFix: quickFix,
	}
}
