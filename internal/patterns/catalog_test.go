package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/remedy/api/schemas"
)

func TestMatch_LanguageRules(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		message      string
		language     string
		wantName     string
		wantType     schemas.ErrorType
		wantCategory string
	}{
		{"js reference error", "ReferenceError: x is not defined", "javascript", "js_reference_error", schemas.ErrorTypeUndefinedVariable, "scope_error"},
		{"ts alias folds to js", "ReferenceError: foo is not defined", "ts", "js_reference_error", schemas.ErrorTypeUndefinedVariable, "scope_error"},
		{"js null property", "TypeError: Cannot read properties of undefined (reading 'name')", "js", "js_null_property", schemas.ErrorTypeType, "null_reference"},
		{"js not a function", "TypeError: foo.bar is not a function", "javascript", "js_not_a_function", schemas.ErrorTypeType, "type_mismatch"},
		{"js missing module", "Error: Cannot find module 'lodash'", "node", "js_cannot_find_module", schemas.ErrorTypeMissingDependency, "module_resolution"},
		{"js unexpected token before generic syntax", "SyntaxError: Unexpected token '}'", "javascript", "js_unexpected_token", schemas.ErrorTypeSyntax, "syntax"},
		{"py name error", "NameError: name 'foo' is not defined", "python", "py_name_error", schemas.ErrorTypeUndefinedVariable, "scope_error"},
		{"py indentation", "IndentationError: unexpected indent", "py", "py_indentation", schemas.ErrorTypeSyntax, "indentation"},
		{"py module not found before import error", "ModuleNotFoundError: No module named 'requests'", "python3", "py_module_not_found", schemas.ErrorTypeMissingDependency, "module_resolution"},
		{"py none attribute", "AttributeError: 'NoneType' object has no attribute 'split'", "python", "py_none_attribute", schemas.ErrorTypeType, "null_reference"},
		{"go undefined", "./main.go:10:2: undefined: foo", "go", "go_undefined", schemas.ErrorTypeUndefinedVariable, "scope_error"},
		{"go nil deref", "panic: runtime error: invalid memory address or nil pointer dereference", "golang", "go_nil_deref", schemas.ErrorTypeRuntime, "null_reference"},
		{"go unused import", "\"os\" imported and not used", "go", "go_unused", schemas.ErrorTypeCompilation, "compilation"},
		{"java npe", "Exception in thread \"main\" java.lang.NullPointerException", "java", "java_npe", schemas.ErrorTypeRuntime, "null_reference"},
		{"java symbol", "error: cannot find symbol", "JAVA", "java_cannot_find_symbol", schemas.ErrorTypeUndefinedVariable, "scope_error"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := Match(tc.message, tc.language)
			require.NotNil(t, p)
			assert.Equal(t, tc.wantName, p.Name)
			assert.Equal(t, tc.wantType, p.Type)
			assert.Equal(t, tc.wantCategory, p.Category)
			assert.NotEmpty(t, p.Cause())
			assert.NotEmpty(t, p.Solution())
		})
	}
}

func TestMatch_GenericFallback(t *testing.T) {
	t.Parallel()

	p := Match("unexpected syntax error near line 3", "rust")
	require.NotNil(t, p)
	assert.Equal(t, "generic_syntax", p.Name)
	assert.Equal(t, schemas.ErrorTypeSyntax, p.Type)

	p = Match("Type Error: expected int", "ruby")
	require.NotNil(t, p)
	assert.Equal(t, schemas.ErrorTypeType, p.Type)

	p = Match("failed to import crate", "rust")
	require.NotNil(t, p)
	assert.Equal(t, schemas.ErrorTypeImport, p.Type)

	p = Match("this call is deprecated", "rust")
	require.NotNil(t, p)
	assert.Equal(t, schemas.ErrorTypeDeprecatedAPI, p.Type)
}

func TestMatch_Unknown(t *testing.T) {
	t.Parallel()
	assert.Nil(t, Match("something odd happened", "javascript"))
	assert.Nil(t, Match("", "javascript"))
	assert.Nil(t, Match("segfault", ""))
}

func TestMatch_ReturnsCopy(t *testing.T) {
	t.Parallel()
	p := Match("ReferenceError: x is not defined", "javascript")
	require.NotNil(t, p)
	p.Confidence = 0
	p.Category = "mutated"

	again := Match("ReferenceError: x is not defined", "javascript")
	require.NotNil(t, again)
	assert.Equal(t, 0.95, again.Confidence)
	assert.Equal(t, "scope_error", again.Category)
}

func TestCatalog_LanguagesAndRules(t *testing.T) {
	t.Parallel()
	c := Default()
	assert.Equal(t, []string{"go", "java", "javascript", "python"}, c.Languages())

	rules := c.Rules("js")
	require.NotEmpty(t, rules)
	assert.Equal(t, "js_reference_error", rules[0].Name)
	rules[0].Name = "mutated"
	assert.Equal(t, "js_reference_error", c.Rules("javascript")[0].Name)

	generic := c.Rules("cobol")
	require.Len(t, generic, 4)
	assert.Equal(t, "generic_syntax", generic[0].Name)
}

func TestCatalog_MatchAll(t *testing.T) {
	t.Parallel()
	all := Default().MatchAll("SyntaxError: Unexpected token import", "javascript")
	names := make([]string, 0, len(all))
	for _, p := range all {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"js_unexpected_token", "js_syntax_error", "generic_syntax", "generic_import"}, names)
}

func TestRuleTablesCompile(t *testing.T) {
	t.Parallel()
	for lang, rules := range languageRules {
		for _, r := range rules {
			assert.NotEmpty(t, r.name, lang)
			assert.GreaterOrEqual(t, r.confidence, 0.0, r.name)
			assert.LessOrEqual(t, r.confidence, 1.0, r.name)
			assert.NotEmpty(t, r.causes, r.name)
			assert.NotEmpty(t, r.solutions, r.name)
		}
	}
}
