// internal/inference/prompts.go
package inference

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/remedy/api/schemas"
)

const generateSystemPrompt = `You are an expert software engineer who repairs broken code. You receive an error report, the failing source code and a structured analysis of the error. Propose minimal fixes that resolve the root cause without changing unrelated behavior. Respond with strict JSON only, no prose and no markdown.`

const validateSystemPrompt = `You are a meticulous code reviewer. You receive original code, the error it produced and a proposed fixed version. Decide whether the fixed code resolves the error without introducing new defects. Respond with strict JSON only, no prose and no markdown.`

const fixResponseFormat = `{
  "fixes": [
    {
      "title": "Short imperative summary of the fix.",
      "description": "What changed and why it resolves the error.",
      "fixedCode": "The complete corrected source code.",
      "changes": [{"line": 1, "before": "old line", "after": "new line", "kind": "modify"}],
      "confidence": 0.9,
      "preservesSemantics": true,
      "requiresUserReview": false,
      "category": "scope_error"
    }
  ]
}`

const validationResponseFormat = `{
  "isValid": true,
  "confidence": 0.9,
  "explanation": "Why the fix does or does not resolve the error.",
  "potentialIssues": ["Any regressions or risks introduced by the fix."]
}`

// buildFixPrompt renders the generation prompt. maxFixes bounds how many
// alternatives the model is asked for.
func buildFixPrompt(req schemas.ErrorFixRequest, analysis schemas.ErrorAnalysis, maxFixes int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Fix the following %s error.\n\n", req.Language)

	b.WriteString("**Objective:**\n")
	fmt.Fprintf(&b, "1.  Produce between 1 and %d alternative fixes, best first.\n", maxFixes)
	b.WriteString("2.  Each fix must contain the complete corrected code in \"fixedCode\".\n")
	b.WriteString("3.  Assess the confidence score (0.0 to 1.0) of each fix.\n")
	b.WriteString("4.  List each changed line in \"changes\" with kind add, remove or modify.\n\n")

	fmt.Fprintf(&b, "**Error Message:**\n%s\n\n", req.ErrorMessage)
	if req.FilePath != "" {
		location := req.FilePath
		if req.LineNumber > 0 {
			location = fmt.Sprintf("%s:%d", req.FilePath, req.LineNumber)
		}
		fmt.Fprintf(&b, "**Location:** %s\n\n", location)
	}
	if req.StackTrace != "" {
		fmt.Fprintf(&b, "**Stack Trace:**\n%s\n\n", req.StackTrace)
	}
	if req.Context != "" {
		fmt.Fprintf(&b, "**Additional Context:**\n%s\n\n", req.Context)
	}

	b.WriteString("**Analysis:**\n")
	fmt.Fprintf(&b, "- Type: %s\n- Category: %s\n- Severity: %s\n- Cause: %s\n- Suggested approach: %s\n\n",
		analysis.Type, analysis.Category, analysis.Severity, analysis.Cause, analysis.SuggestedApproach)

	writeCode(&b, "Source Code", req.Language, req.Code)

	if len(req.TestCases) > 0 {
		b.WriteString("**Test Cases the fix must satisfy:**\n")
		for _, tc := range req.TestCases {
			fmt.Fprintf(&b, "- %s\n", tc)
		}
		b.WriteString("\n")
	}

	b.WriteString("**Response Format (Strict JSON):**\n")
	b.WriteString(fixResponseFormat)
	b.WriteString("\n")
	return b.String()
}

func buildValidationPrompt(in schemas.ValidationInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Validate a proposed fix for a %s error.\n\n", in.Language)
	fmt.Fprintf(&b, "**Original Error:**\n%s\n\n", in.OriginalError)
	writeCode(&b, "Original Code", in.Language, in.OriginalCode)
	writeCode(&b, "Fixed Code", in.Language, in.FixedCode)

	if len(in.TestCases) > 0 {
		b.WriteString("**Test Cases:**\nThe fix is valid only if every test case would pass.\n")
		for _, tc := range in.TestCases {
			fmt.Fprintf(&b, "- %s\n", tc)
		}
		b.WriteString("\n")
	}

	b.WriteString("**Response Format (Strict JSON):**\n")
	b.WriteString(validationResponseFormat)
	b.WriteString("\n")
	return b.String()
}

func writeCode(b *strings.Builder, title, language, code string) {
	fmt.Fprintf(b, "**%s:**\n", title)
	b.WriteString("```" + language + "\n")
	b.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n\n")
}
