package diagnostics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xkilldash9x/remedy/api/schemas"
)

var (
	pythonBlockHeader = regexp.MustCompile(`^(if|elif|else|for|while|def|class|try|except|finally|with|async\s+def|async\s+for|async\s+with)\b`)
	closers           = map[byte]byte{')': '(', ']': '[', '}': '{'}
	openerFor         = map[byte]byte{'(': ')', '[': ']', '{': '}'}
)

type openBracket struct {
	ch   byte
	line int
	col  int
}

func checkSyntax(src *source) []schemas.Diagnostic {
	var diags []schemas.Diagnostic
	var stack []openBracket

	for i, line := range src.code {
		lineNo := i + 1
		for j := 0; j < len(line); j++ {
			c := line[j]
			if _, ok := openerFor[c]; ok {
				stack = append(stack, openBracket{ch: c, line: lineNo, col: j + 1})
				continue
			}
			want, ok := closers[c]
			if !ok {
				continue
			}
			if len(stack) == 0 {
				diags = append(diags, diag(schemas.DiagnosticError, CheckSyntax, lineNo, j+1,
					fmt.Sprintf("Unmatched closing '%c'", c), fmt.Sprintf("Remove the extra '%c'", c)))
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.ch != want {
				diags = append(diags, diag(schemas.DiagnosticError, CheckSyntax, lineNo, j+1,
					fmt.Sprintf("Mismatched '%c': expected '%c' to close '%c' from line %d", c, openerFor[top.ch], top.ch, top.line),
					fmt.Sprintf("Replace '%c' with '%c'", c, openerFor[top.ch])))
			}
		}
		if src.unterminated[i] {
			diags = append(diags, diag(schemas.DiagnosticError, CheckSyntax, lineNo, len(src.lines[i]),
				"Unterminated string literal", "Close the string on the same line"))
		}
	}
	for _, open := range stack {
		diags = append(diags, diag(schemas.DiagnosticError, CheckSyntax, open.line, open.col,
			fmt.Sprintf("Unclosed '%c'", open.ch), fmt.Sprintf("Add a matching '%c'", openerFor[open.ch])))
	}

	if src.isPython() {
		diags = append(diags, pythonBlockColons(src)...)
	}
	return diags
}

// pythonBlockColons flags block headers with no top-level ':'. Headers that
// continue over several lines are skipped.
func pythonBlockColons(src *source) []schemas.Diagnostic {
	var diags []schemas.Diagnostic
	for i, line := range src.code {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !pythonBlockHeader.MatchString(trimmed) {
			continue
		}
		if strings.HasSuffix(trimmed, "\\") || bracketDelta(trimmed) != 0 {
			continue
		}
		if hasTopLevelColon(trimmed) {
			continue
		}
		diags = append(diags, diag(schemas.DiagnosticError, CheckSyntax, i+1, len(strings.TrimRight(src.lines[i], " \t"))+1,
			"Missing ':' after block header", "Add ':' at the end of the line"))
	}
	return diags
}

func hasTopLevelColon(s string) bool {
	depth := 0
	for k := 0; k < len(s); k++ {
		switch s[k] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ':':
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

func bracketDelta(s string) int {
	d := 0
	for k := 0; k < len(s); k++ {
		switch s[k] {
		case '(', '[', '{':
			d++
		case ')', ']', '}':
			d--
		}
	}
	return d
}
