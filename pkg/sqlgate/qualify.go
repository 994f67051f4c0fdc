// Package sqlgate validates candidate SQL against the read-only allow-list
// policy and repairs common omissions before execution. It is best-effort
// textual normalization, not a SQL parser; the interface is kept narrow so a
// parse-transform-unparse rewriter could replace it without changing callers.
package sqlgate

import (
	"regexp"
	"strings"
)

// fromJoinPattern finds FROM/JOIN keywords followed by a bare identifier.
var fromJoinPattern = regexp.MustCompile(`(?i)\b(from|join)(\s+)([a-zA-Z_][a-zA-Z0-9_]*)`)

// skipIdentifiers are words that can follow FROM/JOIN but never name a
// tenant table (JOIN LATERAL ..., FROM unnest(...)).
var skipIdentifiers = map[string]bool{
	"select":  true,
	"lateral": true,
	"unnest":  true,
}

// extractUnits are the datetime field names that precede FROM inside
// EXTRACT(unit FROM expr). That FROM does not introduce a table reference.
var extractUnits = map[string]bool{
	"year": true, "month": true, "day": true, "hour": true,
	"minute": true, "second": true, "week": true, "quarter": true,
	"dow": true, "doy": true, "epoch": true,
}

// QualifySchema prefixes every bare table reference after FROM/JOIN with the
// tenant namespace. Idempotent: any existing occurrence of the namespace
// prefix is stripped first, so repeated application yields the same result
// and never double-prefixes.
//
// This is string surgery. Identifiers that already carry a different schema
// prefix, subquery parens, function calls, and EXTRACT expressions are left
// alone; arbitrarily complex SQL may still defeat it.
func QualifySchema(sqlText, namespace string) string {
	if namespace == "" {
		return sqlText
	}

	stripped := stripNamespacePrefix(sqlText, namespace)
	mask := literalMask(stripped)

	var b strings.Builder
	last := 0
	for _, m := range fromJoinPattern.FindAllStringSubmatchIndex(stripped, -1) {
		keywordStart := m[2]
		identStart, identEnd := m[6], m[7]
		ident := stripped[identStart:identEnd]

		if mask[keywordStart] {
			// FROM/JOIN inside a quoted literal is data, not syntax.
			continue
		}
		if skipIdentifiers[strings.ToLower(ident)] {
			continue
		}
		if extractUnits[strings.ToLower(prevWord(stripped, keywordStart))] {
			continue
		}
		if next := nextByte(stripped, identEnd); next == '.' || next == '(' {
			// Already qualified with another prefix, or a set-returning
			// function call.
			continue
		}

		b.WriteString(stripped[last:identStart])
		b.WriteString(namespace)
		b.WriteByte('.')
		b.WriteString(ident)
		last = identEnd
	}
	b.WriteString(stripped[last:])

	return b.String()
}

// ContainsNamespace reports whether the namespace prefix appears anywhere in
// the SQL text. The synthesizer uses this to decide whether repair is needed.
func ContainsNamespace(sqlText, namespace string) bool {
	return strings.Contains(sqlText, namespace+".")
}

// stripNamespacePrefix removes every "namespace." occurrence outside quoted
// literals so the repair can re-apply it exactly once.
func stripNamespacePrefix(sqlText, namespace string) string {
	pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(namespace) + `\.`)
	mask := literalMask(sqlText)

	var b strings.Builder
	last := 0
	for _, m := range pattern.FindAllStringIndex(sqlText, -1) {
		if mask[m[0]] {
			continue
		}
		b.WriteString(sqlText[last:m[0]])
		last = m[1]
	}
	b.WriteString(sqlText[last:])

	return b.String()
}

// prevWord returns the word immediately before pos, lowercased by the caller.
func prevWord(s string, pos int) string {
	end := pos
	for end > 0 && isSpaceByte(s[end-1]) {
		end--
	}
	start := end
	for start > 0 && isWordByte(s[start-1]) {
		start--
	}
	return s[start:end]
}

// nextByte returns the first non-space byte at or after pos, or 0.
func nextByte(s string, pos int) byte {
	for i := pos; i < len(s); i++ {
		if !isSpaceByte(s[i]) {
			return s[i]
		}
	}
	return 0
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
