package sqlgate

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/datalens-ai/datalens-engine/pkg/logging"
	"github.com/datalens-ai/datalens-engine/pkg/models"
)

// forbiddenVerbs are rejected as whole words anywhere in the statement,
// case-insensitive, at any nesting depth.
var forbiddenVerbs = []string{
	"insert", "update", "delete", "drop", "alter",
	"create", "truncate", "grant", "revoke",
}

var forbiddenPattern = regexp.MustCompile(
	`(?i)\b(` + strings.Join(forbiddenVerbs, "|") + `)\b`)

// Gate validates candidate SQL against the allow-list policy.
// Advisory-strength, not a full parser: a correctly shaped SELECT can still
// hide hostile constructs the keyword filter does not model.
type Gate struct {
	logger *zap.Logger
}

// NewGate creates a safety gate.
func NewGate(logger *zap.Logger) *Gate {
	return &Gate{logger: logger.Named("sqlgate")}
}

// Validate applies the allow-list rules in order and returns the validated,
// namespace-qualified query. Rules:
//
//  1. Statement must start with SELECT (case-insensitive).
//  2. No forbidden write/DDL verb anywhere, and no second statement.
//  3. Non-portable functions normalized (DATE_TRUNC -> TO_CHAR).
//  4. Bare CASE/WHEN conditions normalized to integer equality.
//  5. Namespace prefix stripped then re-applied exactly once (idempotent).
func (g *Gate) Validate(sqlText, namespace string) models.ValidatedQuery {
	trimmed := strings.TrimSpace(sqlText)
	trimmed = stripTrailingSemicolon(trimmed)

	if trimmed == "" {
		return invalid(sqlText, "empty query")
	}

	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return invalid(sqlText, "must be a retrieval query")
	}

	if match := forbiddenPattern.FindString(trimmed); match != "" {
		return invalid(sqlText, "disallowed keyword: "+strings.ToLower(match))
	}

	if hasSemicolonOutsideStrings(trimmed) {
		return invalid(sqlText, "multiple statements not allowed")
	}

	if findings := ScanStringLiterals(trimmed); len(findings) > 0 {
		// Advisory only: a SELECT-shaped query with injection-looking
		// literals is logged but not blocked.
		for _, f := range findings {
			g.logger.Warn("injection pattern in string literal",
				zap.String("fingerprint", f.Fingerprint),
				zap.String("query", logging.SanitizeQuery(trimmed)))
		}
	}

	normalized := NormalizeFunctions(trimmed)
	normalized = NormalizeCaseConditions(normalized)
	normalized = QualifySchema(normalized, namespace)

	return models.ValidatedQuery{SQLText: normalized, IsValid: true}
}

func invalid(sqlText, reason string) models.ValidatedQuery {
	return models.ValidatedQuery{SQLText: sqlText, ErrorReason: reason}
}

// stripTrailingSemicolon removes one trailing semicolon plus whitespace.
func stripTrailingSemicolon(sqlText string) string {
	sqlText = strings.TrimRight(sqlText, " \t\n\r")
	sqlText = strings.TrimSuffix(sqlText, ";")
	return strings.TrimRight(sqlText, " \t\n\r")
}

// hasSemicolonOutsideStrings reports whether any semicolon remains outside
// of string literals. The trailing semicolon has already been stripped, so
// any hit means a second statement.
func hasSemicolonOutsideStrings(sqlText string) bool {
	mask := literalMask(sqlText)
	for i := 0; i < len(sqlText); i++ {
		if sqlText[i] == ';' && !mask[i] {
			return true
		}
	}
	return false
}

// literalMask marks every byte position inside a single-quoted string or a
// double-quoted identifier, quote characters included. Every textual rewrite
// in this package consults it so quoted content is never altered.
func literalMask(sqlText string) []bool {
	mask := make([]bool, len(sqlText))
	var quote byte

	for i := 0; i < len(sqlText); i++ {
		c := sqlText[i]
		if quote == 0 {
			if c == '\'' || c == '"' {
				quote = c
				mask[i] = true
			}
			continue
		}
		mask[i] = true
		if c == quote && sqlText[i-1] != '\\' {
			quote = 0
		}
	}

	return mask
}
