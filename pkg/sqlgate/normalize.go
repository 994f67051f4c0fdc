package sqlgate

import (
	"regexp"
	"strings"
)

// dateTruncPattern matches DATE_TRUNC('unit', expr) where expr is a simple
// column reference. Complex expressions are left untouched.
var dateTruncPattern = regexp.MustCompile(`(?i)\bdate_trunc\s*\(\s*'(\w+)'\s*,\s*([a-zA-Z_][a-zA-Z0-9_.]*)\s*\)`)

// dateTruncFormats maps truncation units to TO_CHAR format strings.
var dateTruncFormats = map[string]string{
	"year":    "YYYY",
	"quarter": "YYYY-\"Q\"Q",
	"month":   "YYYY-MM",
	"week":    "IYYY-IW",
	"day":     "YYYY-MM-DD",
	"hour":    "YYYY-MM-DD HH24:00",
}

// NormalizeFunctions rewrites known non-portable function calls to portable
// formatting equivalents. DATE_TRUNC('month', ts) becomes
// TO_CHAR(ts, 'YYYY-MM') and so on. This is a string substitution, not
// semantic SQL rewriting; complex expressions pass through unchanged, as do
// matches inside quoted literals.
func NormalizeFunctions(sqlText string) string {
	return replaceOutsideLiterals(sqlText, dateTruncPattern, func(groups []string) string {
		format, ok := dateTruncFormats[strings.ToLower(groups[1])]
		if !ok {
			return groups[0]
		}
		return "TO_CHAR(" + groups[2] + ", '" + format + "')"
	})
}

// bareWhenPattern matches CASE/WHEN conditions that are a single bare
// identifier: "WHEN flag THEN". Keyword conditions (NOT, EXISTS, ...) are
// excluded.
var bareWhenPattern = regexp.MustCompile(`(?i)\bwhen\s+([a-zA-Z_][a-zA-Z0-9_.]*)\s+then\b`)

var whenConditionKeywords = map[string]bool{
	"not": true, "exists": true, "true": true, "false": true, "null": true,
}

// NormalizeCaseConditions rewrites bare-identifier CASE/WHEN conditions to
// explicit integer equality. Uploaded boolean-ish columns land as integers,
// so "CASE WHEN is_active THEN ..." fails type-checking; "is_active = 1"
// evaluates everywhere.
func NormalizeCaseConditions(sqlText string) string {
	return replaceOutsideLiterals(sqlText, bareWhenPattern, func(groups []string) string {
		ident := groups[1]
		if whenConditionKeywords[strings.ToLower(ident)] {
			return groups[0]
		}
		return "WHEN " + ident + " = 1 THEN"
	})
}

// replaceOutsideLiterals applies repl to every match of re whose start falls
// outside quoted literals. repl receives the submatch texts (groups[0] is the
// whole match) and returns the replacement.
func replaceOutsideLiterals(sqlText string, re *regexp.Regexp, repl func(groups []string) string) string {
	mask := literalMask(sqlText)

	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringSubmatchIndex(sqlText, -1) {
		if mask[m[0]] {
			continue
		}
		groups := make([]string, len(m)/2)
		for i := range groups {
			if m[2*i] >= 0 {
				groups[i] = sqlText[m[2*i]:m[2*i+1]]
			}
		}
		b.WriteString(sqlText[last:m[0]])
		b.WriteString(repl(groups))
		last = m[1]
	}
	b.WriteString(sqlText[last:])

	return b.String()
}
