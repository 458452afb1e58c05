package diagnostics

import (
	"regexp"
	"strings"

	"github.com/xkilldash9x/remedy/api/schemas"
)

var (
	conditionOpen   = regexp.MustCompile(`\b(if|while)\s*\(`)
	pythonCondition = regexp.MustCompile(`^\s*(if|elif|while)\s+(.*):\s*$`)
	terminator      = regexp.MustCompile(`^(return|throw|break|continue|raise)\b`)
	noneComparison  = regexp.MustCompile(`[!=]=\s*None\b|\bNone\s*[!=]=`)
	typeofLoose     = regexp.MustCompile(`typeof\s+[\w.$\[\]]+\s*[!=]=\s*['"]`)
	// Lines that legitimately follow a terminator at the same indentation.
	blockContinuation = regexp.MustCompile(`^(\}|\)|\]|case\b|default\b|else\b|elif\b|except\b|finally\b|catch\b|end\b)`)
)

func checkSemantic(src *source) []schemas.Diagnostic {
	var diags []schemas.Diagnostic
	diags = append(diags, assignmentInCondition(src)...)
	diags = append(diags, unreachableCode(src)...)
	if src.isPython() {
		for i, line := range src.code {
			if loc := noneComparison.FindStringIndex(line); loc != nil {
				diags = append(diags, diag(schemas.DiagnosticWarning, CheckSemantic, i+1, loc[0]+1,
					"Comparison to None should use 'is' or 'is not'", "Replace '==' with 'is' (or '!=' with 'is not')"))
			}
		}
	}
	if src.isJS() {
		for i, line := range src.lines {
			loc := typeofLoose.FindStringIndex(line)
			if loc == nil || !strings.HasPrefix(src.code[i][loc[0]:], "typeof") {
				continue
			}
			diags = append(diags, diag(schemas.DiagnosticInfo, CheckSemantic, i+1, loc[0]+1,
				"typeof comparison uses loose equality", "Use '===' or '!==' with typeof"))
		}
	}
	return diags
}

// assignmentInCondition flags a bare '=' inside an if/while condition.
func assignmentInCondition(src *source) []schemas.Diagnostic {
	var diags []schemas.Diagnostic
	if src.language == "go" {
		return nil
	}
	for i, line := range src.code {
		if src.isPython() {
			m := pythonCondition.FindStringSubmatchIndex(line)
			if m == nil {
				continue
			}
			cond := line[m[4]:m[5]]
			if col := bareAssignment(cond); col >= 0 {
				diags = append(diags, diag(schemas.DiagnosticError, CheckSemantic, i+1, m[4]+col+1,
					"Assignment inside condition; did you mean '=='?", "Replace '=' with '=='"))
			}
			continue
		}
		for _, loc := range conditionOpen.FindAllStringIndex(line, -1) {
			start := loc[1]
			end := matchingParen(line, start-1)
			if end < 0 {
				end = len(line)
			}
			if col := bareAssignment(line[start:end]); col >= 0 {
				fix := "Replace '=' with '=='"
				if src.isJS() {
					fix = "Replace '=' with '==='"
				}
				diags = append(diags, diag(schemas.DiagnosticWarning, CheckSemantic, i+1, start+col+1,
					"Assignment inside condition; did you mean a comparison?", fix))
			}
		}
	}
	return diags
}

// bareAssignment returns the offset of the first top-level '=' in s that is
// not part of a comparison, arrow or compound operator, or -1. Assignments
// wrapped in an extra pair of parentheses are treated as intentional.
func bareAssignment(s string) int {
	depth := 0
	for k := 0; k < len(s); k++ {
		switch s[k] {
		case '(', '[', '{':
			depth++
			continue
		case ')', ']', '}':
			depth--
			continue
		case '=':
		default:
			continue
		}
		if depth != 0 {
			continue
		}
		prev := byte(0)
		if k > 0 {
			prev = s[k-1]
		}
		next := byte(0)
		if k+1 < len(s) {
			next = s[k+1]
		}
		if next == '=' {
			for k+1 < len(s) && s[k+1] == '=' {
				k++
			}
			continue
		}
		if next == '>' || strings.IndexByte("=!<>:+-*/%&|^", prev) >= 0 {
			continue
		}
		return k
	}
	return -1
}

func matchingParen(line string, open int) int {
	depth := 0
	for k := open; k < len(line); k++ {
		switch line[k] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}

// unreachableCode flags the first statement following a return, throw,
// break, continue or raise at the same indentation inside the same block.
func unreachableCode(src *source) []schemas.Diagnostic {
	var diags []schemas.Diagnostic
	for i := 0; i < len(src.code); i++ {
		trimmed := strings.TrimSpace(src.code[i])
		if !terminator.MatchString(trimmed) {
			continue
		}
		// A terminator that opens a bracket continues onto later lines.
		if bracketDelta(trimmed) > 0 || strings.HasSuffix(trimmed, "\\") {
			continue
		}
		indent := indentOf(src.code[i])
		for j := i + 1; j < len(src.code); j++ {
			next := strings.TrimSpace(src.code[j])
			if next == "" {
				continue
			}
			if indentOf(src.code[j]) == indent && !blockContinuation.MatchString(next) {
				diags = append(diags, diag(schemas.DiagnosticWarning, CheckSemantic, j+1, indent+1,
					"Unreachable code after '"+terminator.FindString(trimmed)+"'", "Remove the unreachable statement or move it before the exit"))
			}
			break
		}
	}
	return diags
}
