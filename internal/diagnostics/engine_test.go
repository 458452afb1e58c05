package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/remedy/api/schemas"
)

// messages flattens diagnostics for compact assertions.
func messages(diags []schemas.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Message)
	}
	return out
}

func find(diags []schemas.Diagnostic, msg string) *schemas.Diagnostic {
	for i := range diags {
		if diags[i].Message == msg {
			return &diags[i]
		}
	}
	return nil
}

func TestEngine_SortsBySeverityStable(t *testing.T) {
	t.Parallel()
	e := NewEngine(zap.NewNop())

	diags := e.Analyze("var a = 1;  \nvar b = 2;", "javascript", []string{"style"})
	require.Len(t, diags, 3)

	assert.Equal(t, schemas.DiagnosticInfo, diags[0].Severity)
	assert.Equal(t, 1, diags[0].Line)
	assert.Equal(t, schemas.DiagnosticInfo, diags[1].Severity)
	assert.Equal(t, 2, diags[1].Line)
	assert.Equal(t, schemas.DiagnosticHint, diags[2].Severity)
	assert.Equal(t, "Trailing whitespace", diags[2].Message)
}

func TestEngine_AllRunsEachCheckOnce(t *testing.T) {
	t.Parallel()
	calls := 0
	counter := func(*source) []schemas.Diagnostic {
		calls++
		return []schemas.Diagnostic{diag(schemas.DiagnosticHint, "counter", 1, 1, "counted", "")}
	}
	e := NewEngine(zap.NewNop(), withCheck("counter", counter))

	diags := e.Analyze("x", "javascript", []string{"all", "counter", "ALL"})
	assert.Equal(t, 1, calls)
	assert.Len(t, diags, 1)

	e.Analyze("x", "javascript", []string{"counter", " COUNTER ", "counter"})
	assert.Equal(t, 2, calls)
}

func TestEngine_UnknownChecksSkipped(t *testing.T) {
	t.Parallel()
	e := NewEngine(nil)
	diags := e.Analyze("eval(x)", "javascript", []string{"spelling", "grammar"})
	assert.NotNil(t, diags)
	assert.Empty(t, diags)
}

func TestEngine_EmptyRequestRunsAll(t *testing.T) {
	t.Parallel()
	e := NewEngine(nil)
	diags := e.Analyze("eval(x)", "js", nil)
	assert.NotNil(t, find(diags, "Dynamic code execution with eval/exec"))
}

func TestEngine_IsolatesPanickingCheck(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.WarnLevel)
	e := NewEngine(zap.New(core), withCheck(CheckStyle, func(*source) []schemas.Diagnostic {
		panic("boom")
	}))

	diags := e.Analyze("eval(input)", "javascript", []string{"style", "security"})
	require.Len(t, diags, 1)
	assert.Equal(t, string(CheckSecurity), diags[0].Type)

	entries := logs.FilterMessage("Diagnostic check failed.").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "style", entries[0].ContextMap()["check"])
}

func TestEngine_Rerunnable(t *testing.T) {
	t.Parallel()
	e := NewEngine(nil)
	code := "function f() {\n  if (x = 1) { return 1; }\n  return 2;\n  foo();\n}\n"
	first := e.Analyze(code, "javascript", []string{"all"})
	second := e.Analyze(code, "javascript", []string{"all"})
	assert.Equal(t, first, second)
}

func TestEngine_Checks(t *testing.T) {
	t.Parallel()
	e := NewEngine(nil)
	assert.Equal(t, []CheckType{CheckSyntax, CheckSemantic, CheckStyle, CheckSecurity, CheckPerformance}, e.Checks())
}

func TestSyntaxCheck(t *testing.T) {
	t.Parallel()
	e := NewEngine(nil)

	t.Run("unclosed bracket", func(t *testing.T) {
		diags := e.Analyze("console.log((x)", "javascript", []string{"syntax"})
		require.Len(t, diags, 1)
		assert.Equal(t, "Unclosed '('", diags[0].Message)
		assert.Equal(t, 1, diags[0].Line)
		assert.Equal(t, 12, diags[0].Column)
		assert.Equal(t, schemas.DiagnosticError, diags[0].Severity)
	})

	t.Run("unmatched closer", func(t *testing.T) {
		diags := e.Analyze("x = 1)", "javascript", []string{"syntax"})
		require.Len(t, diags, 1)
		assert.Equal(t, "Unmatched closing ')'", diags[0].Message)
		assert.Equal(t, 6, diags[0].Column)
	})

	t.Run("mismatched across lines", func(t *testing.T) {
		diags := e.Analyze("function f() {\n  return (1 + 2;\n}", "javascript", []string{"syntax"})
		assert.Equal(t, []string{
			"Mismatched '}': expected ')' to close '(' from line 2",
			"Unclosed '{'",
		}, messages(diags))
	})

	t.Run("brackets in strings and comments ignored", func(t *testing.T) {
		code := "const s = \"(\";\n// ) ]\n/* {\n */\nconst t = `[`;"
		assert.Empty(t, e.Analyze(code, "javascript", []string{"syntax"}))
	})

	t.Run("unterminated string", func(t *testing.T) {
		diags := e.Analyze("const s = \"abc;", "javascript", []string{"syntax"})
		require.Len(t, diags, 1)
		assert.Equal(t, "Unterminated string literal", diags[0].Message)
		assert.Equal(t, 15, diags[0].Column)
	})

	t.Run("python block header colon", func(t *testing.T) {
		code := "def foo()\n    return 1\nif x == 1: return x\nelse:\n    pass\nvalue = (a if b\n    else c)\n"
		diags := e.Analyze(code, "python", []string{"syntax"})
		require.Len(t, diags, 1)
		assert.Equal(t, "Missing ':' after block header", diags[0].Message)
		assert.Equal(t, 1, diags[0].Line)
		assert.Equal(t, 10, diags[0].Column)
	})
}

func TestSemanticCheck(t *testing.T) {
	t.Parallel()
	e := NewEngine(nil)

	t.Run("assignment in js condition", func(t *testing.T) {
		diags := e.Analyze("if (x = 5) {\n}", "javascript", []string{"semantic"})
		require.Len(t, diags, 1)
		assert.Equal(t, 7, diags[0].Column)
		assert.Equal(t, "Replace '=' with '==='", diags[0].QuickFix)
	})

	t.Run("comparisons are not assignments", func(t *testing.T) {
		code := "if (a === b && c !== d) {}\nif (x <= 3 || y >= 4) {}\nwhile ((m = re.exec(s))) {}\nif (f(a => a == 1)) {}"
		assert.Empty(t, e.Analyze(code, "javascript", []string{"semantic"}))
	})

	t.Run("assignment in python condition", func(t *testing.T) {
		diags := e.Analyze("if x = 1:\n    pass", "python", []string{"semantic"})
		require.Len(t, diags, 1)
		assert.Equal(t, schemas.DiagnosticError, diags[0].Severity)
		assert.Equal(t, 6, diags[0].Column)
	})

	t.Run("python keyword args and walrus", func(t *testing.T) {
		code := "if f(a=1):\n    pass\nif (n := len(a)) > 10:\n    pass"
		assert.Empty(t, e.Analyze(code, "python", []string{"semantic"}))
	})

	t.Run("unreachable after return", func(t *testing.T) {
		code := "function f() {\n  return 1;\n  console.log(\"never\");\n}"
		diags := e.Analyze(code, "javascript", []string{"semantic"})
		require.Len(t, diags, 1)
		assert.Equal(t, "Unreachable code after 'return'", diags[0].Message)
		assert.Equal(t, 3, diags[0].Line)
		assert.Equal(t, 3, diags[0].Column)
	})

	t.Run("closing brace after return is fine", func(t *testing.T) {
		code := "switch (x) {\n  case 1:\n    return a;\n  case 2:\n    break;\n  default:\n    throw err;\n}"
		assert.Empty(t, e.Analyze(code, "javascript", []string{"semantic"}))
	})

	t.Run("python none comparison", func(t *testing.T) {
		diags := e.Analyze("if x == None:\n    pass", "python", []string{"semantic"})
		require.NotNil(t, find(diags, "Comparison to None should use 'is' or 'is not'"))
	})

	t.Run("typeof loose equality", func(t *testing.T) {
		diags := e.Analyze("if (typeof x == \"undefined\") {}", "javascript", []string{"semantic"})
		require.Len(t, diags, 1)
		assert.Equal(t, schemas.DiagnosticInfo, diags[0].Severity)
		assert.Empty(t, e.Analyze("if (typeof x === \"undefined\") {}", "javascript", []string{"semantic"}))
	})
}

func TestStyleCheck(t *testing.T) {
	t.Parallel()
	e := NewEngine(nil, WithMaxLineLength(20))

	diags := e.Analyze("const value = computeSomethingLong();", "javascript", []string{"style"})
	require.Len(t, diags, 1)
	assert.Equal(t, "Line is 37 characters long (limit 20)", diags[0].Message)
	assert.Equal(t, 21, diags[0].Column)

	diags = e.Analyze("if (a == b) {}", "javascript", []string{"style"})
	require.Len(t, diags, 1)
	assert.Equal(t, "Loose equality operator", diags[0].Message)
	assert.Equal(t, 7, diags[0].Column)

	diags = e.Analyze("a != b", "javascript", []string{"style"})
	require.Len(t, diags, 1)
	assert.Equal(t, 3, diags[0].Column)

	assert.Empty(t, e.Analyze("a === b && c !== d", "javascript", []string{"style"}))

	diags = e.Analyze("\t  x = 1", "python", []string{"style"})
	require.Len(t, diags, 1)
	assert.Equal(t, "Mixed tabs and spaces in indentation", diags[0].Message)

	diags = e.Analyze("var x = 1;", "python", []string{"style"})
	assert.Empty(t, diags, "js rules do not apply to python")
}

func TestSecurityCheck(t *testing.T) {
	t.Parallel()
	e := NewEngine(nil)

	testCases := []struct {
		name     string
		code     string
		language string
		want     string
	}{
		{"eval", "eval(userInput)", "javascript", "Dynamic code execution with eval/exec"},
		{"inner html", "el.innerHTML = data;", "javascript", "Assignment to innerHTML can introduce XSS"},
		{"os system", "os.system(\"ls \" + path)", "python", "Shell command via os.system"},
		{"shell true", "subprocess.run(cmd, shell=True)", "python", "subprocess call with shell=True"},
		{"pickle", "data = pickle.loads(blob)", "python", "Deserializing with pickle can execute arbitrary code"},
		{"credential", "password = \"hunter22\"", "python", "Hard-coded credential"},
		{"sql concat", "query = \"SELECT name FROM users WHERE id = \" + uid", "javascript", "SQL query built by string concatenation"},
		{"sql fstring", "cur.execute(f\"SELECT name FROM users WHERE id = {uid}\")", "python", "SQL query built by string interpolation"},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			diags := e.Analyze(tc.code, tc.language, []string{"security"})
			assert.NotNil(t, find(diags, tc.want), "got %v", messages(diags))
		})
	}

	t.Run("comments and strings are ignored", func(t *testing.T) {
		code := "# password = \"hunter22\"\nmsg = \"call eval(x) later\"\n"
		assert.Empty(t, e.Analyze(code, "python", []string{"security"}))
	})
}

func TestPerformanceCheck(t *testing.T) {
	t.Parallel()
	e := NewEngine(nil)

	code := "for a in xs:\n    for b in ys:\n        for c in zs:\n            s += \"x\"\n"
	diags := e.Analyze(code, "python", []string{"performance"})
	require.Len(t, diags, 2)
	assert.Equal(t, "Loop nested 3 levels deep", diags[0].Message)
	assert.Equal(t, 3, diags[0].Line)
	assert.Equal(t, "String concatenation inside a loop", diags[1].Message)
	assert.Equal(t, 4, diags[1].Line)

	diags = e.Analyze("for (const el of items) {\n  const n = document.querySelector(\"#a\");\n}\nconst m = document.querySelector(\"#b\");", "javascript", []string{"performance"})
	require.Len(t, diags, 1)
	assert.Equal(t, "DOM query inside a loop", diags[0].Message)
	assert.Equal(t, 2, diags[0].Line)

	diags = e.Analyze("const copy = JSON.parse(JSON.stringify(obj));\ndb.query(\"SELECT * FROM t\");", "javascript", []string{"performance"})
	assert.Equal(t, []string{"Deep clone through a JSON round trip", "SELECT * fetches every column"}, messages(diags))
}
