package diagnostics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xkilldash9x/remedy/api/schemas"
)

// maxLoopDepth is the deepest loop nesting accepted without a finding.
const maxLoopDepth = 2

var (
	loopHeader    = regexp.MustCompile(`^(for|while|do|foreach)\b|\.forEach\s*\(`)
	concatInLoop  = regexp.MustCompile(`\+=\s*(["'\x60]|f["']|str\(|String\()`)
	selectStar    = regexp.MustCompile(`(?i)\bselect\s+\*\s+from\b`)
	jsonDeepClone = regexp.MustCompile(`JSON\.parse\s*\(\s*JSON\.stringify\s*\(`)
	domQuery      = regexp.MustCompile(`\bdocument\.(querySelector|querySelectorAll|getElementById|getElementsByClassName|getElementsByTagName|getElementsByName)\s*\(`)
)

func checkPerformance(src *source) []schemas.Diagnostic {
	var diags []schemas.Diagnostic
	// Indentation levels of the loops enclosing the current line.
	var loops []int

	for i, code := range src.code {
		lineNo := i + 1
		trimmed := strings.TrimSpace(code)
		raw := src.lines[i]

		if trimmed != "" {
			indent := indentOf(code)
			for len(loops) > 0 && loops[len(loops)-1] >= indent {
				loops = loops[:len(loops)-1]
			}
			inLoop := len(loops) > 0

			if inLoop {
				if loc := concatInLoop.FindStringIndex(raw); loc != nil {
					diags = append(diags, diag(schemas.DiagnosticInfo, CheckPerformance, lineNo, loc[0]+1,
						"String concatenation inside a loop", "Collect parts and join them once after the loop"))
				}
				if loc := domQuery.FindStringIndex(code); loc != nil {
					diags = append(diags, diag(schemas.DiagnosticWarning, CheckPerformance, lineNo, loc[0]+1,
						"DOM query inside a loop", "Query the element once before the loop"))
				}
			}

			if loopHeader.MatchString(trimmed) {
				depth := len(loops) + 1
				if depth > maxLoopDepth {
					diags = append(diags, diag(schemas.DiagnosticWarning, CheckPerformance, lineNo, indent+1,
						fmt.Sprintf("Loop nested %d levels deep", depth), "Extract the inner loop or use a lookup structure"))
				}
				loops = append(loops, indent)
			}
		}

		if loc := selectStar.FindStringIndex(raw); loc != nil {
			diags = append(diags, diag(schemas.DiagnosticInfo, CheckPerformance, lineNo, loc[0]+1,
				"SELECT * fetches every column", "List the needed columns explicitly"))
		}
		if loc := jsonDeepClone.FindStringIndex(code); loc != nil {
			diags = append(diags, diag(schemas.DiagnosticInfo, CheckPerformance, lineNo, loc[0]+1,
				"Deep clone through a JSON round trip", "Use structuredClone or a targeted copy"))
		}
	}
	return diags
}
