// internal/autofix/fallback.go
package autofix

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/xkilldash9x/remedy/api/schemas"
)

// fallbackTemplate synthesizes a fix without the inference service. ok is
// false when the template cannot apply to the request.
type fallbackTemplate func(req schemas.ErrorFixRequest, analysis schemas.ErrorAnalysis) (fix schemas.CodeFix, ok bool)

var (
	undefinedNameRegexes = []*regexp.Regexp{
		regexp.MustCompile(`name '(\w+)' is not defined`),
		regexp.MustCompile(`['"]?([A-Za-z_$][\w$]*)['"]? is not defined`),
		regexp.MustCompile(`undefined: (\w+)`),
		regexp.MustCompile(`Cannot find name '(\w+)'`),
		regexp.MustCompile(`symbol:\s+variable (\w+)`),
	}
	moduleNameRegexes = []*regexp.Regexp{
		regexp.MustCompile(`Cannot find module '([^']+)'`),
		regexp.MustCompile(`No module named '([^']+)'`),
		regexp.MustCompile(`cannot find package "([^"]+)"`),
		regexp.MustCompile(`package ([\w.]+) does not exist`),
	}
	// memberAccessRegex finds "receiver.member" accesses; the receiver of the
	// last one on the failing line is the guard target.
	memberAccessRegex = regexp.MustCompile(`\b([A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*)\.[A-Za-z_$][\w$]*`)
	nonIdentRegex     = regexp.MustCompile(`[^\w]`)
)

// fallbackFix picks the template for the analysis and always returns a fix.
// The generic annotated template is the last resort.
func fallbackFix(req schemas.ErrorFixRequest, analysis schemas.ErrorAnalysis, confidence float64) schemas.CodeFix {
	var template fallbackTemplate
	switch {
	case analysis.Type == schemas.ErrorTypeUndefinedVariable:
		template = declareBeforeUse
	case analysis.Category == "null_reference":
		template = nullGuard
	case analysis.Type == schemas.ErrorTypeImport, analysis.Type == schemas.ErrorTypeMissingDependency:
		template = importStub
	}

	fix, ok := schemas.CodeFix{}, false
	if template != nil {
		fix, ok = template(req, analysis)
	}
	if !ok {
		fix = annotated(req, analysis)
	}

	fix.Confidence = confidence
	fix.RequiresUserReview = true
	if fix.Category == "" {
		fix.Category = analysis.Category
	}
	if fix.Changes == nil {
		fix.Changes = []schemas.CodeChange{}
	}
	return fix
}

func declareBeforeUse(req schemas.ErrorFixRequest, _ schemas.ErrorAnalysis) (schemas.CodeFix, bool) {
	name := firstSubmatch(undefinedNameRegexes, req.ErrorMessage)
	if name == "" {
		return schemas.CodeFix{}, false
	}

	var decl string
	switch req.Language {
	case schemas.LanguagePython:
		decl = name + " = None"
	case schemas.LanguageGo:
		decl = "var " + name + " any"
	case schemas.LanguageJava:
		decl = "Object " + name + " = null;"
	default:
		decl = "let " + name + ";"
	}

	return schemas.CodeFix{
		Title:       fmt.Sprintf("Declare '%s' before use", name),
		Description: fmt.Sprintf("'%s' is referenced before it is declared. A declaration was added at the top; initialize it with the intended value.", name),
		FixedCode:   prepend(decl, req.Code),
		Changes:     []schemas.CodeChange{{Line: 1, After: decl, Kind: "add"}},
	}, true
}

func nullGuard(req schemas.ErrorFixRequest, _ schemas.ErrorAnalysis) (schemas.CodeFix, bool) {
	lines := strings.Split(req.Code, "\n")
	if req.LineNumber < 1 || req.LineNumber > len(lines) {
		return schemas.CodeFix{}, false
	}
	target := lines[req.LineNumber-1]
	matches := memberAccessRegex.FindAllStringSubmatch(target, -1)
	if len(matches) == 0 {
		return schemas.CodeFix{}, false
	}
	receiver := matches[len(matches)-1][1]

	indent := target[:len(target)-len(strings.TrimLeft(target, " \t"))]
	body := strings.TrimLeft(target, " \t")
	var guarded []string
	switch req.Language {
	case schemas.LanguagePython:
		guarded = []string{indent + "if " + receiver + " is not None:", indent + "    " + body}
	case schemas.LanguageGo:
		guarded = []string{indent + "if " + receiver + " != nil {", indent + "\t" + body, indent + "}"}
	default:
		guarded = []string{indent + "if (" + receiver + " != null) {", indent + "  " + body, indent + "}"}
	}

	out := make([]string, 0, len(lines)+len(guarded)-1)
	out = append(out, lines[:req.LineNumber-1]...)
	out = append(out, guarded...)
	out = append(out, lines[req.LineNumber:]...)

	return schemas.CodeFix{
		Title:       fmt.Sprintf("Guard '%s' against null", receiver),
		Description: fmt.Sprintf("The access on line %d fails when '%s' is null. The statement now runs only when the value is present.", req.LineNumber, receiver),
		FixedCode:   strings.Join(out, "\n"),
		Changes: []schemas.CodeChange{{
			Line:   req.LineNumber,
			Before: target,
			After:  strings.Join(guarded, "\n"),
			Kind:   "modify",
		}},
	}, true
}

func importStub(req schemas.ErrorFixRequest, _ schemas.ErrorAnalysis) (schemas.CodeFix, bool) {
	module := firstSubmatch(moduleNameRegexes, req.ErrorMessage)
	if module == "" {
		return schemas.CodeFix{}, false
	}
	ident := nonIdentRegex.ReplaceAllString(path.Base(module), "_")

	var stub string
	switch req.Language {
	case schemas.LanguagePython:
		stub = fmt.Sprintf("try:\n    import %s\nexcept ImportError:\n    %s = None  # install %s to enable this code path", module, ident, module)
	case schemas.LanguageJavaScript:
		stub = fmt.Sprintf("let %s = null;\ntry {\n  %s = require('%s');\n} catch (err) {\n  // install %s to enable this code path\n}", ident, ident, module, module)
	default:
		return schemas.CodeFix{}, false
	}

	return schemas.CodeFix{
		Title:       fmt.Sprintf("Guard the import of '%s'", module),
		Description: fmt.Sprintf("'%s' could not be resolved. The import is wrapped so the program reports the missing dependency instead of crashing; install it to restore full behavior.", module),
		FixedCode:   prepend(stub, req.Code),
		Changes:     []schemas.CodeChange{{Line: 1, After: stub, Kind: "add"}},
	}, true
}

// annotated leaves the code intact and records the suggested approach as a
// comment for the reviewer.
func annotated(req schemas.ErrorFixRequest, analysis schemas.ErrorAnalysis) schemas.CodeFix {
	approach := analysis.SuggestedApproach
	if approach == "" {
		approach = "Review the error manually"
	}
	prefix := "//"
	if req.Language == schemas.LanguagePython {
		prefix = "#"
	}
	note := fmt.Sprintf("%s FIXME(%s): %s", prefix, analysis.Type, approach)

	return schemas.CodeFix{
		Title:              "Annotate the failing code for manual review",
		Description:        fmt.Sprintf("No automatic fix is available for this %s. %s.", analysis.Type, strings.TrimSuffix(approach, ".")),
		FixedCode:          prepend(note, req.Code),
		Changes:            []schemas.CodeChange{{Line: 1, After: note, Kind: "add"}},
		PreservesSemantics: true,
	}
}

func prepend(head, code string) string {
	if code == "" {
		return head
	}
	return head + "\n" + code
}

func firstSubmatch(regexes []*regexp.Regexp, s string) string {
	for _, re := range regexes {
		if m := re.FindStringSubmatch(s); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}
