// Package patterns holds the per-language tables of known error signatures
// used to seed classification.
package patterns

import (
	"regexp"
	"sort"

	"github.com/xkilldash9x/remedy/api/schemas"
)

// Pattern is one known error signature and what is usually behind it.
type Pattern struct {
	Name         string            `json:"name"`
	Regex        *regexp.Regexp    `json:"-"`
	Expr         string            `json:"regex"`
	Type         schemas.ErrorType `json:"type"`
	Category     string            `json:"category"`
	Severity     schemas.Severity  `json:"severity"`
	Confidence   float64           `json:"confidence"`
	CommonCauses []string          `json:"commonCauses"`
	Solutions    []string          `json:"solutions"`
}

// Cause returns the first listed cause, or an empty string.
func (p *Pattern) Cause() string {
	if len(p.CommonCauses) == 0 {
		return ""
	}
	return p.CommonCauses[0]
}

// Solution returns the first listed solution, or an empty string.
func (p *Pattern) Solution() string {
	if len(p.Solutions) == 0 {
		return ""
	}
	return p.Solutions[0]
}

// rule is the declarative form of a Pattern before its expression is compiled.
type rule struct {
	name       string
	expr       string
	typ        schemas.ErrorType
	category   string
	severity   schemas.Severity
	confidence float64
	causes     []string
	solutions  []string
}

// Catalog is an immutable set of ordered rule tables. It is safe for
// concurrent use.
type Catalog struct {
	byLanguage map[string][]Pattern
	generic    []Pattern
}

var defaultCatalog = mustCompile(languageRules, genericRules)

// Default returns the built-in catalog.
func Default() *Catalog {
	return defaultCatalog
}

// Match returns the package default catalog's match for the message.
func Match(errorMessage, language string) *Pattern {
	return defaultCatalog.Match(errorMessage, language)
}

func mustCompile(tables map[string][]rule, generic []rule) *Catalog {
	c := &Catalog{byLanguage: make(map[string][]Pattern, len(tables))}
	for lang, rules := range tables {
		c.byLanguage[lang] = compileRules(rules)
	}
	c.generic = compileRules(generic)
	return c
}

func compileRules(rules []rule) []Pattern {
	out := make([]Pattern, 0, len(rules))
	for _, r := range rules {
		out = append(out, Pattern{
			Name:         r.name,
			Regex:        regexp.MustCompile(r.expr),
			Expr:         r.expr,
			Type:         r.typ,
			Category:     r.category,
			Severity:     r.severity,
			Confidence:   r.confidence,
			CommonCauses: r.causes,
			Solutions:    r.solutions,
		})
	}
	return out
}

// Match returns the first rule of the language table that matches the
// message, in declaration order. If none does, the generic keyword rules are
// tried. A nil result means the error is unknown to the catalog.
func (c *Catalog) Match(errorMessage, language string) *Pattern {
	if errorMessage == "" {
		return nil
	}
	lang := schemas.NormalizeLanguage(language)
	for i := range c.byLanguage[lang] {
		p := &c.byLanguage[lang][i]
		if p.Regex.MatchString(errorMessage) {
			cp := *p
			return &cp
		}
	}
	for i := range c.generic {
		p := &c.generic[i]
		if p.Regex.MatchString(errorMessage) {
			cp := *p
			return &cp
		}
	}
	return nil
}

// Languages lists the languages with a dedicated rule table, sorted.
func (c *Catalog) Languages() []string {
	langs := make([]string, 0, len(c.byLanguage))
	for lang := range c.byLanguage {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Rules returns a copy of the language's ordered table. Unknown languages
// yield the generic rules.
func (c *Catalog) Rules(language string) []Pattern {
	table, ok := c.byLanguage[schemas.NormalizeLanguage(language)]
	if !ok {
		table = c.generic
	}
	out := make([]Pattern, len(table))
	copy(out, table)
	return out
}

// MatchAll returns every rule of the language table and the generic set that
// matches the message, in declaration order.
func (c *Catalog) MatchAll(errorMessage, language string) []Pattern {
	var out []Pattern
	lang := schemas.NormalizeLanguage(language)
	for _, p := range c.byLanguage[lang] {
		if p.Regex.MatchString(errorMessage) {
			out = append(out, p)
		}
	}
	for _, p := range c.generic {
		if p.Regex.MatchString(errorMessage) {
			out = append(out, p)
		}
	}
	return out
}
