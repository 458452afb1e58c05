package diagnostics

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xkilldash9x/remedy/api/schemas"
)

var (
	jsVar = regexp.MustCompile(`\bvar\s+[\w$]`)
	// Loose equality is '==' or '!=' not followed by another '='.
	looseEquality = regexp.MustCompile(`[^=!<>]==[^=]|!=[^=]`)
)

func checkStyle(src *source, maxLineLength int) []schemas.Diagnostic {
	var diags []schemas.Diagnostic
	for i, line := range src.lines {
		lineNo := i + 1

		if n := utf8.RuneCountInString(line); n > maxLineLength {
			diags = append(diags, diag(schemas.DiagnosticInfo, CheckStyle, lineNo, maxLineLength+1,
				fmt.Sprintf("Line is %d characters long (limit %d)", n, maxLineLength), "Break the line up"))
		}

		if trimmed := strings.TrimRight(line, " \t"); len(trimmed) != len(line) && trimmed != "" {
			diags = append(diags, diag(schemas.DiagnosticHint, CheckStyle, lineNo, len(trimmed)+1,
				"Trailing whitespace", "Remove trailing whitespace"))
		}

		lead := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if strings.Contains(lead, " ") && strings.Contains(lead, "\t") {
			diags = append(diags, diag(schemas.DiagnosticWarning, CheckStyle, lineNo, 1,
				"Mixed tabs and spaces in indentation", "Indent with one consistent character"))
		}

		if !src.isJS() {
			continue
		}
		code := src.code[i]
		if loc := jsVar.FindStringIndex(code); loc != nil {
			diags = append(diags, diag(schemas.DiagnosticInfo, CheckStyle, lineNo, loc[0]+1,
				"Use 'let' or 'const' instead of 'var'", "Replace 'var' with 'const' or 'let'"))
		}
		// Pad so the expression can inspect the characters around an operator at either edge.
		padded := " " + code + " "
		for _, loc := range looseEquality.FindAllStringIndex(padded, -1) {
			col := loc[0]
			if padded[loc[0]] != '!' {
				col++
			}
			diags = append(diags, diag(schemas.DiagnosticWarning, CheckStyle, lineNo, col,
				"Loose equality operator", "Use '===' or '!==' instead"))
		}
	}
	return diags
}
