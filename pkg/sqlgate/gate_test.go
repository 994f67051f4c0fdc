package sqlgate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGate() *Gate {
	return NewGate(zap.NewNop())
}

func TestValidateAcceptsWellFormedSelect(t *testing.T) {
	result := newTestGate().Validate("SELECT a, b FROM t1", ns)

	require.True(t, result.IsValid)
	assert.True(t, strings.HasPrefix(result.SQLText, "SELECT"))
	assert.Equal(t, 1, strings.Count(result.SQLText, ns+".t1"))
}

func TestValidateRejectsNonSelect(t *testing.T) {
	for _, sql := range []string{
		"UPDATE sales SET amount = 0",
		"EXPLAIN SELECT 1",
		"WITH x AS (SELECT 1) SELECT * FROM x", // CTEs start with WITH, not SELECT
	} {
		result := newTestGate().Validate(sql, ns)
		assert.False(t, result.IsValid, "should reject %q", sql)
		assert.NotEmpty(t, result.ErrorReason)
	}

	result := newTestGate().Validate("UPDATE sales SET amount = 0", ns)
	assert.Equal(t, "must be a retrieval query", result.ErrorReason)
}

func TestValidateRejectsAllWriteVerbs(t *testing.T) {
	verbs := []string{
		"insert", "update", "delete", "drop", "alter",
		"create", "truncate", "grant", "revoke",
	}

	for _, verb := range verbs {
		for _, sql := range []string{
			// nested in a subquery
			"SELECT * FROM t1 WHERE id IN (SELECT id FROM t2; " + verb + " INTO t3 VALUES (1))",
			"SELECT * FROM (" + strings.ToUpper(verb) + " something) x",
			"select 1 where " + verb + " = 1",
		} {
			result := newTestGate().Validate(sql, ns)
			assert.False(t, result.IsValid, "verb %q must be rejected in %q", verb, sql)
		}
	}
}

func TestValidateVerbAsSubstringAllowed(t *testing.T) {
	// "created_at" contains "create" but not as a whole word.
	result := newTestGate().Validate("SELECT created_at, updated_total FROM events", ns)
	assert.True(t, result.IsValid)
}

func TestValidateRejectsMultipleStatements(t *testing.T) {
	result := newTestGate().Validate("SELECT 1; SELECT 2", ns)
	require.False(t, result.IsValid)
	assert.Equal(t, "multiple statements not allowed", result.ErrorReason)

	// Semicolon inside a string literal is fine; trailing semicolon stripped.
	result = newTestGate().Validate("SELECT 'a;b' FROM t1;", ns)
	assert.True(t, result.IsValid)
	assert.False(t, strings.HasSuffix(result.SQLText, ";"))
}

func TestValidateNormalizesDateTrunc(t *testing.T) {
	result := newTestGate().Validate(
		"SELECT DATE_TRUNC('month', order_date), SUM(amount) FROM sales GROUP BY 1", ns)

	require.True(t, result.IsValid)
	assert.Contains(t, result.SQLText, "TO_CHAR(order_date, 'YYYY-MM')")
	assert.NotContains(t, strings.ToLower(result.SQLText), "date_trunc")
}

func TestValidateNormalizesBareCaseCondition(t *testing.T) {
	result := newTestGate().Validate(
		"SELECT CASE WHEN is_active THEN 'yes' ELSE 'no' END FROM users_data", ns)

	require.True(t, result.IsValid)
	assert.Contains(t, result.SQLText, "WHEN is_active = 1 THEN")

	// Explicit conditions are untouched.
	result = newTestGate().Validate(
		"SELECT CASE WHEN amount > 5 THEN 'big' ELSE 'small' END FROM sales", ns)
	require.True(t, result.IsValid)
	assert.Contains(t, result.SQLText, "WHEN amount > 5 THEN")
}

func TestValidateIdempotentQualification(t *testing.T) {
	gate := newTestGate()

	first := gate.Validate("SELECT a FROM t1", ns)
	require.True(t, first.IsValid)

	second := gate.Validate(first.SQLText, ns)
	require.True(t, second.IsValid)
	assert.Equal(t, first.SQLText, second.SQLText)
}

func TestValidateEmptyQuery(t *testing.T) {
	result := newTestGate().Validate("   ", ns)
	assert.False(t, result.IsValid)
	assert.Equal(t, "empty query", result.ErrorReason)
}

func TestScanStringLiterals(t *testing.T) {
	findings := ScanStringLiterals("SELECT * FROM t WHERE name = '1 OR 1=1 --'")
	assert.NotEmpty(t, findings)

	clean := ScanStringLiterals("SELECT * FROM t WHERE region = 'EMEA'")
	assert.Empty(t, clean)
}
