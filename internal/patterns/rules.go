package patterns

import "github.com/xkilldash9x/remedy/api/schemas"

// Rule tables are ordered: the first matching expression wins, so specific
// signatures must precede broader ones of the same family.
var languageRules = map[string][]rule{
	schemas.LanguageJavaScript: {
		{
			name: "js_reference_error", expr: `ReferenceError: .+ is not defined`,
			typ: schemas.ErrorTypeUndefinedVariable, category: "scope_error", severity: schemas.SeverityHigh, confidence: 0.95,
			causes:    []string{"Variable used before it was declared or outside its scope", "Typo in the identifier name", "Missing import of the binding"},
			solutions: []string{"Declare the variable before it is used", "Check the spelling of the identifier", "Import the binding from the module that defines it"},
		},
		{
			name: "js_null_property", expr: `(?i)TypeError: Cannot read propert(y|ies)`,
			typ: schemas.ErrorTypeType, category: "null_reference", severity: schemas.SeverityHigh, confidence: 0.9,
			causes:    []string{"Property access on a value that is undefined or null", "Asynchronous data used before it has loaded"},
			solutions: []string{"Guard the access with optional chaining or an explicit null check", "Initialize the value before reading its properties"},
		},
		{
			name: "js_not_a_function", expr: `TypeError: .+ is not a function`,
			typ: schemas.ErrorTypeType, category: "type_mismatch", severity: schemas.SeverityHigh, confidence: 0.85,
			causes:    []string{"Calling a value that is not callable", "Wrong import style for the module's export"},
			solutions: []string{"Verify the value is a function before calling it", "Check default versus named import"},
		},
		{
			name: "js_undefined_assignment", expr: `TypeError: Cannot set propert(y|ies) .*`,
			typ: schemas.ErrorTypeType, category: "null_reference", severity: schemas.SeverityHigh, confidence: 0.85,
			causes:    []string{"Assignment to a property of undefined or null"},
			solutions: []string{"Create the containing object before assigning into it"},
		},
		{
			name: "js_unexpected_token", expr: `SyntaxError: Unexpected (token|end of input|identifier)`,
			typ: schemas.ErrorTypeSyntax, category: "syntax", severity: schemas.SeverityCritical, confidence: 0.9,
			causes:    []string{"Unbalanced brackets or a missing delimiter", "Language feature unsupported by the runtime"},
			solutions: []string{"Check bracket and quote balance near the reported position", "Add the missing delimiter"},
		},
		{
			name: "js_syntax_error", expr: `SyntaxError: `,
			typ: schemas.ErrorTypeSyntax, category: "syntax", severity: schemas.SeverityCritical, confidence: 0.85,
			causes:    []string{"Source text is not valid JavaScript"},
			solutions: []string{"Fix the syntax at the reported location"},
		},
		{
			name: "js_cannot_find_module", expr: `Cannot find module '([^']+)'`,
			typ: schemas.ErrorTypeMissingDependency, category: "module_resolution", severity: schemas.SeverityHigh, confidence: 0.9,
			causes:    []string{"Package is not installed", "Relative path to the module is wrong"},
			solutions: []string{"Install the package with the project's package manager", "Correct the import path"},
		},
		{
			name: "js_module_not_found", expr: `Module not found`,
			typ: schemas.ErrorTypeImport, category: "module_resolution", severity: schemas.SeverityHigh, confidence: 0.85,
			causes:    []string{"Bundler cannot resolve the import"},
			solutions: []string{"Check the import path and bundler resolution settings"},
		},
		{
			name: "js_missing_export", expr: `does not provide an export named|is not exported from`,
			typ: schemas.ErrorTypeImport, category: "module_resolution", severity: schemas.SeverityMedium, confidence: 0.85,
			causes:    []string{"Importing a name the module does not export"},
			solutions: []string{"Import the correct name or use the default export"},
		},
		{
			name: "js_ts_property_missing", expr: `Property '[^']+' does not exist on type`,
			typ: schemas.ErrorTypeType, category: "type_mismatch", severity: schemas.SeverityMedium, confidence: 0.85,
			causes:    []string{"Type declaration lacks the accessed property"},
			solutions: []string{"Extend the type or narrow the value before access"},
		},
		{
			name: "js_ts_compile", expr: `TS\d{4}:`,
			typ: schemas.ErrorTypeCompilation, category: "compilation", severity: schemas.SeverityMedium, confidence: 0.8,
			causes:    []string{"TypeScript compiler rejected the program"},
			solutions: []string{"Address the reported compiler diagnostic"},
		},
		{
			name: "js_call_stack", expr: `RangeError: Maximum call stack size exceeded`,
			typ: schemas.ErrorTypeRuntime, category: "recursion", severity: schemas.SeverityHigh, confidence: 0.9,
			causes:    []string{"Unbounded recursion"},
			solutions: []string{"Add or fix the recursion base case"},
		},
		{
			name: "js_unhandled_rejection", expr: `Unhandled(Promise)?Rejection|unhandled promise rejection`,
			typ: schemas.ErrorTypeRuntime, category: "async", severity: schemas.SeverityMedium, confidence: 0.8,
			causes:    []string{"Promise rejected without a handler"},
			solutions: []string{"Await the promise inside try/catch or attach a catch handler"},
		},
		{
			name: "js_deprecated", expr: `(?i)deprecat(ed|ion)`,
			typ: schemas.ErrorTypeDeprecatedAPI, category: "deprecation", severity: schemas.SeverityLow, confidence: 0.7,
			causes:    []string{"API scheduled for removal is still in use"},
			solutions: []string{"Migrate to the replacement API named in the warning"},
		},
	},
	schemas.LanguagePython: {
		{
			name: "py_name_error", expr: `NameError: name '[^']+' is not defined`,
			typ: schemas.ErrorTypeUndefinedVariable, category: "scope_error", severity: schemas.SeverityHigh, confidence: 0.95,
			causes:    []string{"Name used before assignment or outside its scope", "Typo in the identifier", "Missing import"},
			solutions: []string{"Define or import the name before it is used", "Check the spelling of the identifier"},
		},
		{
			name: "py_indentation", expr: `(IndentationError|TabError)`,
			typ: schemas.ErrorTypeSyntax, category: "indentation", severity: schemas.SeverityCritical, confidence: 0.95,
			causes:    []string{"Inconsistent indentation", "Tabs mixed with spaces"},
			solutions: []string{"Re-indent the block consistently with four spaces"},
		},
		{
			name: "py_syntax_error", expr: `SyntaxError`,
			typ: schemas.ErrorTypeSyntax, category: "syntax", severity: schemas.SeverityCritical, confidence: 0.9,
			causes:    []string{"Source text is not valid Python"},
			solutions: []string{"Fix the syntax at the reported location"},
		},
		{
			name: "py_module_not_found", expr: `ModuleNotFoundError: No module named`,
			typ: schemas.ErrorTypeMissingDependency, category: "module_resolution", severity: schemas.SeverityHigh, confidence: 0.95,
			causes:    []string{"Package is not installed in the active environment"},
			solutions: []string{"Install the package with pip into the active environment"},
		},
		{
			name: "py_import_error", expr: `ImportError`,
			typ: schemas.ErrorTypeImport, category: "module_resolution", severity: schemas.SeverityHigh, confidence: 0.9,
			causes:    []string{"Imported name does not exist in the module", "Circular import"},
			solutions: []string{"Import the correct name", "Break the import cycle"},
		},
		{
			name: "py_none_attribute", expr: `AttributeError: 'NoneType' object has no attribute`,
			typ: schemas.ErrorTypeType, category: "null_reference", severity: schemas.SeverityHigh, confidence: 0.9,
			causes:    []string{"Attribute access on None"},
			solutions: []string{"Check for None before accessing the attribute"},
		},
		{
			name: "py_attribute_error", expr: `AttributeError`,
			typ: schemas.ErrorTypeRuntime, category: "attribute_error", severity: schemas.SeverityMedium, confidence: 0.8,
			causes:    []string{"Object lacks the accessed attribute"},
			solutions: []string{"Verify the object's type and attribute name"},
		},
		{
			name: "py_type_error", expr: `TypeError`,
			typ: schemas.ErrorTypeType, category: "type_mismatch", severity: schemas.SeverityHigh, confidence: 0.85,
			causes:    []string{"Operation applied to a value of the wrong type"},
			solutions: []string{"Convert the value or fix the call signature"},
		},
		{
			name: "py_key_error", expr: `KeyError`,
			typ: schemas.ErrorTypeRuntime, category: "lookup_error", severity: schemas.SeverityMedium, confidence: 0.85,
			causes:    []string{"Dictionary key missing"},
			solutions: []string{"Use dict.get with a default or check membership first"},
		},
		{
			name: "py_index_error", expr: `IndexError`,
			typ: schemas.ErrorTypeRuntime, category: "lookup_error", severity: schemas.SeverityMedium, confidence: 0.85,
			causes:    []string{"Sequence index out of range"},
			solutions: []string{"Check the sequence length before indexing"},
		},
		{
			name: "py_zero_division", expr: `ZeroDivisionError`,
			typ: schemas.ErrorTypeRuntime, category: "arithmetic", severity: schemas.SeverityMedium, confidence: 0.9,
			causes:    []string{"Division by zero"},
			solutions: []string{"Guard the divisor against zero"},
		},
		{
			name: "py_recursion", expr: `RecursionError`,
			typ: schemas.ErrorTypeRuntime, category: "recursion", severity: schemas.SeverityHigh, confidence: 0.9,
			causes:    []string{"Unbounded recursion"},
			solutions: []string{"Add or fix the recursion base case"},
		},
		{
			name: "py_deprecated", expr: `(DeprecationWarning|PendingDeprecationWarning|is deprecated)`,
			typ: schemas.ErrorTypeDeprecatedAPI, category: "deprecation", severity: schemas.SeverityLow, confidence: 0.8,
			causes:    []string{"API scheduled for removal is still in use"},
			solutions: []string{"Migrate to the replacement API named in the warning"},
		},
	},
	schemas.LanguageGo: {
		{
			name: "go_undefined", expr: `undefined: \w+`,
			typ: schemas.ErrorTypeUndefinedVariable, category: "scope_error", severity: schemas.SeverityHigh, confidence: 0.95,
			causes:    []string{"Identifier not declared in scope", "Missing import or unexported name"},
			solutions: []string{"Declare the identifier or import its package"},
		},
		{
			name: "go_nil_deref", expr: `invalid memory address or nil pointer dereference`,
			typ: schemas.ErrorTypeRuntime, category: "null_reference", severity: schemas.SeverityCritical, confidence: 0.95,
			causes:    []string{"Dereference of a nil pointer, map or interface"},
			solutions: []string{"Check the value for nil before dereferencing it"},
		},
		{
			name: "go_index_range", expr: `index out of range`,
			typ: schemas.ErrorTypeRuntime, category: "lookup_error", severity: schemas.SeverityHigh, confidence: 0.9,
			causes:    []string{"Slice or array index beyond its length"},
			solutions: []string{"Check len before indexing"},
		},
		{
			name: "go_deadlock", expr: `all goroutines are asleep - deadlock`,
			typ: schemas.ErrorTypeRuntime, category: "concurrency", severity: schemas.SeverityCritical, confidence: 0.9,
			causes:    []string{"Every goroutine is blocked on a channel or lock"},
			solutions: []string{"Ensure each send has a receiver or close the channel"},
		},
		{
			name: "go_cannot_use", expr: `cannot use .+ as .+ (value|type)`,
			typ: schemas.ErrorTypeType, category: "type_mismatch", severity: schemas.SeverityHigh, confidence: 0.9,
			causes:    []string{"Value of the wrong type passed or assigned"},
			solutions: []string{"Convert the value or change the declared type"},
		},
		{
			name: "go_unused", expr: `(declared and not used|imported and not used)`,
			typ: schemas.ErrorTypeCompilation, category: "compilation", severity: schemas.SeverityMedium, confidence: 0.9,
			causes:    []string{"Unused variable or import rejected by the compiler"},
			solutions: []string{"Remove the unused declaration or use it"},
		},
		{
			name: "go_missing_package", expr: `(cannot find package|no required module provides package|missing go.sum entry)`,
			typ: schemas.ErrorTypeMissingDependency, category: "module_resolution", severity: schemas.SeverityHigh, confidence: 0.9,
			causes:    []string{"Module is not required in go.mod"},
			solutions: []string{"Add the module requirement and refresh go.sum"},
		},
		{
			name: "go_syntax", expr: `syntax error: `,
			typ: schemas.ErrorTypeSyntax, category: "syntax", severity: schemas.SeverityCritical, confidence: 0.9,
			causes:    []string{"Source text is not valid Go"},
			solutions: []string{"Fix the syntax at the reported location"},
		},
		{
			name: "go_deprecated", expr: `(?i)deprecated`,
			typ: schemas.ErrorTypeDeprecatedAPI, category: "deprecation", severity: schemas.SeverityLow, confidence: 0.7,
			causes:    []string{"Deprecated identifier still in use"},
			solutions: []string{"Switch to the replacement named in the deprecation notice"},
		},
	},
	schemas.LanguageJava: {
		{
			name: "java_cannot_find_symbol", expr: `cannot find symbol`,
			typ: schemas.ErrorTypeUndefinedVariable, category: "scope_error", severity: schemas.SeverityHigh, confidence: 0.9,
			causes:    []string{"Symbol not declared or not imported"},
			solutions: []string{"Declare the symbol or add the missing import"},
		},
		{
			name: "java_npe", expr: `NullPointerException`,
			typ: schemas.ErrorTypeRuntime, category: "null_reference", severity: schemas.SeverityCritical, confidence: 0.9,
			causes:    []string{"Method call or field access on a null reference"},
			solutions: []string{"Check for null or use Optional before dereferencing"},
		},
		{
			name: "java_class_not_found", expr: `(ClassNotFoundException|NoClassDefFoundError)`,
			typ: schemas.ErrorTypeMissingDependency, category: "module_resolution", severity: schemas.SeverityHigh, confidence: 0.9,
			causes:    []string{"Class is missing from the runtime classpath"},
			solutions: []string{"Add the dependency to the build and classpath"},
		},
		{
			name: "java_package_missing", expr: `package .+ does not exist`,
			typ: schemas.ErrorTypeImport, category: "module_resolution", severity: schemas.SeverityHigh, confidence: 0.9,
			causes:    []string{"Imported package is not on the compile classpath"},
			solutions: []string{"Add the dependency or correct the import"},
		},
		{
			name: "java_incompatible_types", expr: `incompatible types`,
			typ: schemas.ErrorTypeType, category: "type_mismatch", severity: schemas.SeverityHigh, confidence: 0.9,
			causes:    []string{"Assignment between incompatible types"},
			solutions: []string{"Cast or convert the value to the expected type"},
		},
		{
			name: "java_class_cast", expr: `ClassCastException`,
			typ: schemas.ErrorTypeType, category: "type_mismatch", severity: schemas.SeverityHigh, confidence: 0.85,
			causes:    []string{"Downcast to a type the object does not implement"},
			solutions: []string{"Check the instance type before casting"},
		},
		{
			name: "java_index_bounds", expr: `(ArrayIndexOutOfBoundsException|IndexOutOfBoundsException)`,
			typ: schemas.ErrorTypeRuntime, category: "lookup_error", severity: schemas.SeverityHigh, confidence: 0.9,
			causes:    []string{"Index beyond the array or list bounds"},
			solutions: []string{"Check the length before indexing"},
		},
		{
			name: "java_syntax", expr: `(';' expected|class, interface, or enum expected|illegal start of expression|reached end of file while parsing)`,
			typ: schemas.ErrorTypeSyntax, category: "syntax", severity: schemas.SeverityCritical, confidence: 0.9,
			causes:    []string{"Source text is not valid Java"},
			solutions: []string{"Fix the syntax at the reported location"},
		},
		{
			name: "java_deprecated", expr: `(has been deprecated|uses or overrides a deprecated API)`,
			typ: schemas.ErrorTypeDeprecatedAPI, category: "deprecation", severity: schemas.SeverityLow, confidence: 0.8,
			causes:    []string{"Deprecated API still in use"},
			solutions: []string{"Migrate to the replacement API"},
		},
	},
}

// genericRules apply to every language when its own table has no match.
var genericRules = []rule{
	{
		name: "generic_syntax", expr: `(?i)syntax\s*error`,
		typ: schemas.ErrorTypeSyntax, category: "syntax", severity: schemas.SeverityHigh, confidence: 0.7,
		causes:    []string{"Source text could not be parsed"},
		solutions: []string{"Check the syntax near the reported location"},
	},
	{
		name: "generic_type", expr: `(?i)type\s*error`,
		typ: schemas.ErrorTypeType, category: "type_mismatch", severity: schemas.SeverityHigh, confidence: 0.7,
		causes:    []string{"Value used with an incompatible type"},
		solutions: []string{"Check the types involved in the failing expression"},
	},
	{
		name: "generic_import", expr: `(?i)import`,
		typ: schemas.ErrorTypeImport, category: "module_resolution", severity: schemas.SeverityMedium, confidence: 0.6,
		causes:    []string{"Dependency could not be resolved"},
		solutions: []string{"Verify the dependency is installed and the import path is correct"},
	},
	{
		name: "generic_deprecated", expr: `(?i)deprecated`,
		typ: schemas.ErrorTypeDeprecatedAPI, category: "deprecation", severity: schemas.SeverityLow, confidence: 0.6,
		causes:    []string{"Deprecated API in use"},
		solutions: []string{"Migrate to the documented replacement"},
	},
}
