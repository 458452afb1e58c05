package diagnostics

import (
	"regexp"

	"github.com/xkilldash9x/remedy/api/schemas"
)

// securityRule matches against either the masked code or the raw line.
type securityRule struct {
	expr     *regexp.Regexp
	raw      bool
	severity schemas.DiagnosticSeverity
	message  string
	quickFix string
}

var securityRules = []securityRule{
	{
		expr: regexp.MustCompile(`(^|[^\w.$])(eval|exec)\s*\(`), severity: schemas.DiagnosticError,
		message: "Dynamic code execution with eval/exec", quickFix: "Avoid evaluating strings as code; parse the data explicitly",
	},
	{
		expr: regexp.MustCompile(`\.(innerHTML|outerHTML)\s*\+?=[^=]`), severity: schemas.DiagnosticWarning,
		message: "Assignment to innerHTML can introduce XSS", quickFix: "Use textContent or sanitize the markup",
	},
	{
		expr: regexp.MustCompile(`\bos\.system\s*\(`), severity: schemas.DiagnosticWarning,
		message: "Shell command via os.system", quickFix: "Use subprocess.run with an argument list",
	},
	{
		expr: regexp.MustCompile(`\bsubprocess\.\w+\(.*shell\s*=\s*True`), severity: schemas.DiagnosticError,
		message: "subprocess call with shell=True", quickFix: "Pass an argument list and drop shell=True",
	},
	{
		expr: regexp.MustCompile(`\b(c?pickle)\.loads?\s*\(`), severity: schemas.DiagnosticWarning,
		message: "Deserializing with pickle can execute arbitrary code", quickFix: "Use a data-only format such as JSON for untrusted input",
	},
	{
		expr: regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|api_?key|access_?token|auth_?token|private_?key)\b["']?\s*[:=]\s*["'][^"']{4,}["']`), raw: true,
		severity: schemas.DiagnosticError,
		message:  "Hard-coded credential", quickFix: "Load the secret from the environment or a secrets manager",
	},
	{
		expr: regexp.MustCompile(`(?i)["'\x60]\s*(select|insert\s+into|update|delete\s+from)\b[^"'\x60]*["'\x60]\s*(\+|%\s*[\w(])`), raw: true,
		severity: schemas.DiagnosticError,
		message:  "SQL query built by string concatenation", quickFix: "Use parameterized queries",
	},
	{
		expr: regexp.MustCompile(`(?i)\bf["'](select|insert\s+into|update|delete\s+from)\b[^"']*\{`), raw: true,
		severity: schemas.DiagnosticError,
		message:  "SQL query built by string interpolation", quickFix: "Use parameterized queries",
	},
}

func checkSecurity(src *source) []schemas.Diagnostic {
	var diags []schemas.Diagnostic
	for i := range src.lines {
		for _, r := range securityRules {
			text := src.code[i]
			if r.raw {
				text = src.lines[i]
			}
			loc := r.expr.FindStringIndex(text)
			if loc == nil {
				continue
			}
			// Raw matches that start inside a comment are ignored.
			if r.raw && commentedOut(src, i, loc[0]) {
				continue
			}
			diags = append(diags, diag(r.severity, CheckSecurity, i+1, loc[0]+1, r.message, r.quickFix))
		}
	}
	return diags
}

// commentedOut reports whether everything from col onward in the line was
// blanked by masking, which covers comments and string-only tails.
func commentedOut(src *source, line, col int) bool {
	code := src.code[line]
	raw := src.lines[line]
	for k := col; k < len(code) && k < len(raw); k++ {
		if code[k] != ' ' {
			return false
		}
	}
	return true
}
