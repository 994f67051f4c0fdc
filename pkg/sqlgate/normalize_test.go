package sqlgate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFunctions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "month truncation",
			input: "SELECT DATE_TRUNC('month', created_at) FROM sales",
			want:  "SELECT TO_CHAR(created_at, 'YYYY-MM') FROM sales",
		},
		{
			name:  "unknown unit untouched",
			input: "SELECT DATE_TRUNC('millennium', created_at) FROM sales",
			want:  "SELECT DATE_TRUNC('millennium', created_at) FROM sales",
		},
		{
			name:  "call inside quoted identifier untouched",
			input: `SELECT t."date_trunc('month', ts)" FROM t1`,
			want:  `SELECT t."date_trunc('month', ts)" FROM t1`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeFunctions(tt.input))
		})
	}
}

func TestNormalizeCaseConditions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare identifier rewritten",
			input: "SELECT CASE WHEN is_active THEN 1 ELSE 0 END FROM t1",
			want:  "SELECT CASE WHEN is_active = 1 THEN 1 ELSE 0 END FROM t1",
		},
		{
			name:  "keyword condition untouched",
			input: "SELECT CASE WHEN NOT deleted THEN 1 END FROM t1",
			want:  "SELECT CASE WHEN NOT deleted THEN 1 END FROM t1",
		},
		{
			name:  "when then inside literal untouched",
			input: "SELECT a FROM t1 WHERE note = 'when ready then go'",
			want:  "SELECT a FROM t1 WHERE note = 'when ready then go'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCaseConditions(tt.input))
		})
	}
}
