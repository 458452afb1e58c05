package classifier

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/remedy/api/schemas"
	"github.com/xkilldash9x/remedy/internal/patterns"
)

func TestClassify_ReferenceErrorExample(t *testing.T) {
	t.Parallel()
	c := New(zap.NewNop(), nil)

	a := c.Classify(context.Background(), schemas.ErrorFixRequest{
		ErrorMessage: "ReferenceError: x is not defined",
		Code:         "console.log(x)",
		Language:     "javascript",
	})

	assert.Equal(t, schemas.ErrorTypeUndefinedVariable, a.Type)
	assert.Equal(t, "scope_error", a.Category)
	assert.GreaterOrEqual(t, a.Confidence, 0.9)
	assert.Equal(t, schemas.ComplexityLow, a.Complexity)
	assert.NotEmpty(t, a.SuggestedApproach)
}

// Every catalog-backed message must classify to the entry's type and
// category with at least the entry's confidence.
func TestClassify_CatalogBacked(t *testing.T) {
	t.Parallel()
	c := New(nil, nil)

	samples := []struct {
		message  string
		language string
	}{
		{"ReferenceError: foo is not defined", "javascript"},
		{"TypeError: Cannot read properties of undefined (reading 'id')", "ts"},
		{"TypeError: cb is not a function", "js"},
		{"SyntaxError: Unexpected token ')'", "javascript"},
		{"Error: Cannot find module 'express'", "node"},
		{"RangeError: Maximum call stack size exceeded", "javascript"},
		{"NameError: name 'foo' is not defined", "python"},
		{"IndentationError: expected an indented block", "python"},
		{"ModuleNotFoundError: No module named 'numpy'", "py"},
		{"ImportError: cannot import name 'x' from 'y'", "python"},
		{"KeyError: 'missing'", "python"},
		{"./main.go:4:2: undefined: foo", "go"},
		{"panic: runtime error: invalid memory address or nil pointer dereference", "go"},
		{"cannot use x (variable of type int) as string value in assignment", "go"},
		{"error: cannot find symbol", "java"},
		{"java.lang.NullPointerException", "java"},
		{"error: incompatible types: String cannot be converted to int", "java"},
		{"unexpected syntax error", "cobol"},
	}

	for _, s := range samples {
		s := s
		t.Run(s.message, func(t *testing.T) {
			t.Parallel()
			p := patterns.Match(s.message, s.language)
			require.NotNil(t, p)

			a := c.Classify(context.Background(), schemas.ErrorFixRequest{ErrorMessage: s.message, Language: s.language})
			assert.Equal(t, p.Type, a.Type)
			assert.Equal(t, p.Category, a.Category)
			assert.GreaterOrEqual(t, a.Confidence, p.Confidence)
		})
	}
}

func TestClassify_WeakerStackSignalKeepsCatalogCause(t *testing.T) {
	t.Parallel()
	c := New(nil, nil)
	msg := "ReferenceError: x is not defined"
	p := patterns.Match(msg, "javascript")
	require.NotNil(t, p)

	a := c.Classify(context.Background(), schemas.ErrorFixRequest{
		ErrorMessage: msg,
		Language:     "javascript",
		StackTrace:   jsTrace,
	})

	assert.Equal(t, schemas.ErrorTypeUndefinedVariable, a.Type)
	assert.Equal(t, "scope_error", a.Category)
	assert.Equal(t, 0.95, a.Confidence, "a weaker stack signal never lowers confidence")
	assert.Equal(t, p.Cause(), a.Cause, "a 0.6 frame signal must not overwrite a 0.95 cause")
	assert.NotContains(t, a.Cause, "(at ")
	assert.Equal(t, []string{"/app/src/index.js"}, a.AffectedComponents)
}

func TestClassify_StackTraceRaisesUnknownConfidence(t *testing.T) {
	t.Parallel()
	c := New(nil, nil)

	a := c.Classify(context.Background(), schemas.ErrorFixRequest{
		ErrorMessage: "something odd happened",
		Language:     "python",
		FilePath:     "/app/main.py",
		StackTrace:   pyTrace,
	})

	assert.Equal(t, schemas.ErrorTypeUnknown, a.Type)
	assert.Equal(t, stackFrameConfidence, a.Confidence)
	assert.Equal(t, []string{"/app/main.py", "/app/service.py"}, a.AffectedComponents)
	assert.True(t, strings.HasPrefix(a.Cause, "Unrecognized error: something odd happened (at /app/service.py:5 in run)"))
}

func TestClassify_ContextSignal(t *testing.T) {
	t.Parallel()
	c := New(nil, nil)
	ctx := context.Background()

	t.Run("assigns type without catalog match", func(t *testing.T) {
		a := c.Classify(ctx, schemas.ErrorFixRequest{ErrorMessage: "value is undefined here", Language: "rust"})
		assert.Equal(t, schemas.ErrorTypeUndefinedVariable, a.Type)
		assert.Equal(t, "scope_error", a.Category)
		assert.Equal(t, scopeConfidence, a.Confidence)
	})

	t.Run("resolution issue", func(t *testing.T) {
		a := c.Classify(ctx, schemas.ErrorFixRequest{ErrorMessage: "failed to resolve module foo", Language: "rust"})
		assert.Equal(t, schemas.ErrorTypeImport, a.Type)
		assert.Equal(t, "module_resolution", a.Category)
		assert.Equal(t, resolutionConfidence, a.Confidence)
	})

	t.Run("reported code line is scanned", func(t *testing.T) {
		a := c.Classify(ctx, schemas.ErrorFixRequest{
			ErrorMessage: "build failed",
			Language:     "rust",
			Code:         "fn main() {\n    let x = undefined_thing;\n}",
			LineNumber:   2,
		})
		assert.Equal(t, schemas.ErrorTypeUndefinedVariable, a.Type)
	})

	t.Run("never overrides a catalog type", func(t *testing.T) {
		a := c.Classify(ctx, schemas.ErrorFixRequest{
			ErrorMessage: "TypeError: Cannot read properties of undefined (reading 'a')",
			Language:     "javascript",
		})
		assert.Equal(t, schemas.ErrorTypeType, a.Type)
		assert.Equal(t, "null_reference", a.Category)
		assert.Equal(t, 0.9, a.Confidence)
	})
}

func TestClassify_LanguageRefinement(t *testing.T) {
	t.Parallel()
	c := New(nil, nil)
	ctx := context.Background()

	testCases := []struct {
		message  string
		language string
		prefix   string
	}{
		{"TypeError: Cannot read property 'x' of null", "javascript", "Null reference: guard the access"},
		{"IndentationError: unindent does not match any outer indentation level", "python", "Indentation:"},
		{"panic: runtime error: invalid memory address or nil pointer dereference", "go", "Nil reference:"},
		{"Exception in thread \"main\" java.lang.NullPointerException", "java", "Null reference: check for null"},
	}
	for _, tc := range testCases {
		a := c.Classify(ctx, schemas.ErrorFixRequest{ErrorMessage: tc.message, Language: tc.language})
		assert.True(t, strings.HasPrefix(a.SuggestedApproach, tc.prefix), "%s: %q", tc.language, a.SuggestedApproach)
	}
}

func TestClassify_Complexity(t *testing.T) {
	t.Parallel()
	c := New(nil, nil)
	ctx := context.Background()

	// runtime_error (+2) with six frames (+1)
	a := c.Classify(ctx, schemas.ErrorFixRequest{
		ErrorMessage: "panic: runtime error: invalid memory address or nil pointer dereference",
		Language:     "go",
		StackTrace:   goTrace,
	})
	assert.Equal(t, schemas.ComplexityMedium, a.Complexity)
	assert.Contains(t, a.AffectedComponents, "/app/server.go")

	// ... and more than fifty lines of code (+1)
	a = c.Classify(ctx, schemas.ErrorFixRequest{
		ErrorMessage: "panic: runtime error: invalid memory address or nil pointer dereference",
		Language:     "go",
		StackTrace:   goTrace,
		Code:         strings.Repeat("x := 1\n", 60),
	})
	assert.Equal(t, schemas.ComplexityHigh, a.Complexity)

	// Unknown errors are only penalized for low confidence.
	a = c.Classify(ctx, schemas.ErrorFixRequest{ErrorMessage: "weird", Language: "go"})
	assert.Equal(t, schemas.ComplexityLow, a.Complexity)
}

func TestClassify_DegradesOnCancelledContext(t *testing.T) {
	t.Parallel()
	c := New(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := c.Classify(ctx, schemas.ErrorFixRequest{ErrorMessage: "ReferenceError: x is not defined", Language: "js"})
	assert.Equal(t, schemas.ErrorTypeUnknown, a.Type)
	assert.Equal(t, 0.5, a.Confidence)
	assert.Equal(t, "Analysis failed: context canceled", a.Cause)
}

func TestClassify_DegradesOnPanic(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.WarnLevel)
	// A classifier without a catalog panics on the first lookup.
	c := &Classifier{logger: zap.New(core)}

	var a schemas.ErrorAnalysis
	require.NotPanics(t, func() {
		a = c.Classify(context.Background(), schemas.ErrorFixRequest{ErrorMessage: "boom", Language: "go"})
	})
	assert.Equal(t, schemas.ErrorTypeUnknown, a.Type)
	assert.Equal(t, 0.5, a.Confidence)
	assert.True(t, strings.HasPrefix(a.Cause, "Analysis failed: "))
	assert.Equal(t, 1, logs.FilterMessage("Classification panicked; degrading to unknown.").Len())
}
