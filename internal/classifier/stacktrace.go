// internal/classifier/stacktrace.go
package classifier

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/xkilldash9x/remedy/api/schemas"
)

// Frame is one call site parsed from a stack trace.
type Frame struct {
	Function string `json:"function,omitempty"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column,omitempty"`
}

// Regex definitions for the trace formats we recognize.
var (
	// at fn (file:line:col) | at file:line:col
	jsFrameRegex = regexp.MustCompile(`^\s*at (?:(.+?) \()?(.+?):(\d+):(\d+)\)?\s*$`)
	// File "path", line N, in fn
	pyFrameRegex = regexp.MustCompile(`^\s*File "(.+?)", line (\d+)(?:, in (.+))?`)
	// Function signature line of a Go trace.
	goFunctionRegex = regexp.MustCompile(`^([a-zA-Z0-9_\-./\(\)\*\[\]]+)\(.*\)$`)
	// File path and line number line of a Go trace.
	goLocationRegex = regexp.MustCompile(`^\s+(.*\.go):(\d+)(?: .*)?$`)
	// at pkg.Class.method(File.java:N)
	javaFrameRegex = regexp.MustCompile(`^\s*at ([\w$.<>/]+)\((?:([^:()]+):(\d+)|[^()]*)\)`)
)

// ParseStackTrace extracts frames from a trace, innermost call first. The
// language selects the parser; unknown languages try every format.
func ParseStackTrace(trace, language string) []Frame {
	if strings.TrimSpace(trace) == "" {
		return nil
	}
	lines := strings.Split(strings.ReplaceAll(trace, "\r\n", "\n"), "\n")

	switch schemas.NormalizeLanguage(language) {
	case schemas.LanguageJavaScript:
		return parseJSFrames(lines)
	case schemas.LanguagePython:
		return parsePythonFrames(lines)
	case schemas.LanguageGo:
		return parseGoFrames(lines)
	case schemas.LanguageJava:
		return parseJavaFrames(lines)
	}
	for _, parse := range []func([]string) []Frame{parsePythonFrames, parseGoFrames, parseJavaFrames, parseJSFrames} {
		if frames := parse(lines); len(frames) > 0 {
			return frames
		}
	}
	return nil
}

func parseJSFrames(lines []string) []Frame {
	var frames []Frame
	for _, line := range lines {
		m := jsFrameRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ln, _ := strconv.Atoi(m[3])
		col, _ := strconv.Atoi(m[4])
		frames = append(frames, Frame{Function: m[1], File: m[2], Line: ln, Column: col})
	}
	return frames
}

// parsePythonFrames reverses the traceback, which lists the most recent call last.
func parsePythonFrames(lines []string) []Frame {
	var frames []Frame
	for _, line := range lines {
		m := pyFrameRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ln, _ := strconv.Atoi(m[2])
		frames = append(frames, Frame{Function: strings.TrimSpace(m[3]), File: m[1], Line: ln})
	}
	for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
		frames[i], frames[j] = frames[j], frames[i]
	}
	return frames
}

func parseGoFrames(lines []string) []Frame {
	var frames []Frame
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if strings.HasPrefix(line, "goroutine ") {
			continue
		}
		m := goFunctionRegex.FindStringSubmatch(line)
		if m == nil || i+1 >= len(lines) {
			continue
		}
		loc := goLocationRegex.FindStringSubmatch(lines[i+1])
		if len(loc) != 3 {
			continue
		}
		ln, _ := strconv.Atoi(loc[2])
		frames = append(frames, Frame{Function: m[1], File: loc[1], Line: ln})
		i++
	}
	return frames
}

func parseJavaFrames(lines []string) []Frame {
	var frames []Frame
	for _, line := range lines {
		m := javaFrameRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ln, _ := strconv.Atoi(m[3])
		frames = append(frames, Frame{Function: m[1], File: m[2], Line: ln})
	}
	return frames
}

// IsFrameworkFrame reports whether the frame belongs to a runtime, standard
// library or third-party package rather than application code.
func IsFrameworkFrame(f Frame) bool {
	file := filepath.ToSlash(f.File)
	switch {
	case strings.Contains(file, "node_modules/"),
		strings.HasPrefix(file, "node:"),
		strings.HasPrefix(file, "internal/"),
		strings.Contains(file, "site-packages/"),
		strings.Contains(file, "dist-packages/"),
		strings.HasPrefix(file, "<frozen "),
		pythonStdlibPath.MatchString(file):
		return true
	}

	// Go: runtime functions, and GOROOT sources whose package path has no dot
	// (module paths such as github.com/... always do).
	if strings.HasPrefix(f.Function, "runtime.") || f.Function == "panic" {
		return true
	}
	if strings.HasSuffix(file, ".go") && strings.Contains(file, "go/src/") {
		rel := file[strings.Index(file, "go/src/")+len("go/src/"):]
		if !strings.Contains(filepath.Dir(rel), ".") {
			return true
		}
	}

	for _, prefix := range []string{"java.", "javax.", "sun.", "jdk.", "com.sun."} {
		if strings.HasPrefix(f.Function, prefix) {
			return true
		}
	}
	return false
}

var pythonStdlibPath = regexp.MustCompile(`/lib/python\d+(\.\d+)?/`)

// FirstApplicationFrame returns the innermost frame that is not framework
// code.
func FirstApplicationFrame(frames []Frame) (Frame, bool) {
	for _, f := range frames {
		if f.File == "" {
			continue
		}
		if !IsFrameworkFrame(f) {
			return f, true
		}
	}
	return Frame{}, false
}
