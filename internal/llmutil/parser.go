// internal/llmutil/parser.go
package llmutil

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// Regex definitions use \x60 (hex representation) for backticks because Go raw strings cannot contain backticks.

	// fencedJSONRegex extracts the body of the first fenced block tagged json (or untagged).
	fencedJSONRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json|JSON)?[ \\t]*\\n?(.*?)\\s*\x60\x60\x60")

	// codeBlockRegex extracts content wrapped in markdown, supporting any language tag.
	codeBlockRegex = regexp.MustCompile("(?s)^\x60\x60\x60[a-zA-Z0-9_+#-]*[ \\t]*\\n?(.*?)\\s*\x60\x60\x60\\s*$")
)

// ParseJSONResponse parses an LLM response into T. It tolerates markdown
// fences and conversational text around the JSON payload.
func ParseJSONResponse[T any](response string) (*T, error) {
	payload := ExtractJSON(response)
	if payload == "" {
		return nil, fmt.Errorf("LLM response contains no JSON payload: %s", truncateString(strings.TrimSpace(response), 200))
	}

	var result T
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal LLM JSON response: %w. Extracted JSON (truncated): %s", err, truncateString(payload, 500))
	}
	return &result, nil
}

// ExtractJSON returns the JSON object or array embedded in response, or ""
// when none is found.
func ExtractJSON(response string) string {
	response = strings.TrimSpace(response)

	// 1. Handle markdown wrapping (most common case). A fence inside a JSON
	// string value ends the match early, so the body must be valid on its own.
	if m := fencedJSONRegex.FindStringSubmatch(response); len(m) > 1 {
		inner := strings.TrimSpace(m[1])
		if (strings.HasPrefix(inner, "{") || strings.HasPrefix(inner, "[")) && json.Valid([]byte(inner)) {
			return inner
		}
	}

	// 2. Already bare JSON.
	if strings.HasPrefix(response, "{") || strings.HasPrefix(response, "[") {
		return response
	}

	// 3. Find the outermost structure within conversational text; whichever
	// opener appears first decides between object and array.
	obj := strings.Index(response, "{")
	arr := strings.Index(response, "[")
	open, closer := obj, "}"
	if obj == -1 || (arr != -1 && arr < obj) {
		open, closer = arr, "]"
	}
	if open == -1 {
		return ""
	}
	end := strings.LastIndex(response, closer)
	if end <= open {
		return ""
	}
	return response[open : end+1]
}

// CleanCodeOutput removes a surrounding markdown fence (```go, ```python, ...)
// from generated code.
func CleanCodeOutput(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return content
	}
	if m := codeBlockRegex.FindStringSubmatch(trimmed); len(m) > 1 {
		return m[1]
	}
	return content
}

// truncateString truncates s to at most maxLen bytes without splitting a rune.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return ""
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
