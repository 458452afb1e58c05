// internal/diagnostics/source.go
package diagnostics

import (
	"strings"
)

// source is the pre-split view of one piece of code shared by every pass.
// Passes must treat it as read-only.
type source struct {
	language string
	// lines holds the raw text of each line without its terminator.
	lines []string
	// code holds each line with string literal contents and comments blanked
	// to spaces, so columns line up with lines.
	code []string
	// unterminated marks lines that end inside a single-line string literal.
	unterminated []bool
}

func newSource(code, language string) *source {
	raw := strings.Split(code, "\n")
	for i := range raw {
		raw[i] = strings.TrimSuffix(raw[i], "\r")
	}
	src := &source{
		language:     language,
		lines:        raw,
		code:         make([]string, len(raw)),
		unterminated: make([]bool, len(raw)),
	}
	src.mask()
	return src
}

// isPython reports whether the code uses '#' comments and indentation blocks.
func (s *source) isPython() bool {
	return s.language == "python"
}

// isJS reports whether the code belongs to the javascript family.
func (s *source) isJS() bool {
	return s.language == "javascript"
}

// mask fills code and unterminated. Multi-line constructs (block comments,
// template literals, raw strings, triple-quoted strings) carry state across
// lines; ordinary quoted strings end at the line break.
func (s *source) mask() {
	var (
		inBlockComment bool
		multiQuote     string // closing delimiter of an open multi-line string
	)
	for i, line := range s.lines {
		out := []byte(line)
		j := 0
		for j < len(line) {
			switch {
			case inBlockComment:
				if strings.HasPrefix(line[j:], "*/") {
					out[j], out[j+1] = ' ', ' '
					inBlockComment = false
					j += 2
					continue
				}
				out[j] = ' '
				j++
			case multiQuote != "":
				if strings.HasPrefix(line[j:], multiQuote) {
					j += len(multiQuote)
					multiQuote = ""
					continue
				}
				out[j] = ' '
				j++
			default:
				c := line[j]
				if s.isPython() && c == '#' {
					blank(out, j, len(line))
					j = len(line)
					continue
				}
				if !s.isPython() && strings.HasPrefix(line[j:], "//") {
					blank(out, j, len(line))
					j = len(line)
					continue
				}
				if !s.isPython() && strings.HasPrefix(line[j:], "/*") {
					out[j], out[j+1] = ' ', ' '
					inBlockComment = true
					j += 2
					continue
				}
				if s.isPython() && (strings.HasPrefix(line[j:], `"""`) || strings.HasPrefix(line[j:], `'''`)) {
					multiQuote = line[j : j+3]
					j += 3
					continue
				}
				if c == '`' && !s.isPython() && s.language != "java" {
					multiQuote = "`"
					j++
					continue
				}
				if c == '"' || c == '\'' {
					end := closingQuote(line, j)
					if end < 0 {
						blank(out, j+1, len(line))
						s.unterminated[i] = true
						j = len(line)
						continue
					}
					blank(out, j+1, end)
					j = end + 1
					continue
				}
				j++
			}
		}
		s.code[i] = string(out)
	}
}

// closingQuote returns the index of the quote closing the literal opened at
// start, honoring backslash escapes, or -1.
func closingQuote(line string, start int) int {
	q := line[start]
	for k := start + 1; k < len(line); k++ {
		switch line[k] {
		case '\\':
			k++
		case q:
			return k
		}
	}
	return -1
}

func blank(b []byte, from, to int) {
	for k := from; k < to && k < len(b); k++ {
		b[k] = ' '
	}
}

// indentOf returns the visual indentation width of a line, counting a tab as
// four columns.
func indentOf(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
