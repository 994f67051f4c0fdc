package datasource

import (
	"errors"
	"strings"

	"github.com/datalens-ai/datalens-engine/pkg/apperrors"
)

// Driver error text is the only portable signal we get back from the
// databases we support, so classification is substring matching over the
// message. Patterns cover PostgreSQL and SQL Server wording.
var (
	columnNotFoundPatterns = []string{
		"column", // pg: column "x" does not exist
		"invalid column name",
	}
	tableNotFoundPatterns = []string{
		"relation", // pg: relation "x" does not exist
		"invalid object name",
	}
	transientPatterns = []string{
		"connection refused",
		"connection reset",
		"connection closed",
		"broken pipe",
		"i/o timeout",
		"deadline exceeded",
		"too many clients",
		"the database system is starting up",
		"server is not ready",
	}
)

// ClassifyError maps a raw driver error onto the engine's execution error
// taxonomy. Already-classified errors pass through unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var execErr *apperrors.ExecutionError
	if errors.As(err, &execErr) {
		return err
	}

	msg := strings.ToLower(err.Error())

	if containsAny(msg, transientPatterns) {
		return apperrors.NewExecution(apperrors.ExecTransient, err)
	}
	if matchesNotFound(msg, columnNotFoundPatterns, "does not exist") {
		return apperrors.NewExecution(apperrors.ExecColumnNotFound, err)
	}
	if matchesNotFound(msg, tableNotFoundPatterns, "does not exist") {
		return apperrors.NewExecution(apperrors.ExecTableNotFound, err)
	}
	return apperrors.NewExecution(apperrors.ExecUnknown, err)
}

func containsAny(msg string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// matchesNotFound accepts either the SQL Server pattern verbatim or the
// PostgreSQL two-part form, e.g. `column "foo" does not exist`.
func matchesNotFound(msg string, patterns []string, pgSuffix string) bool {
	for _, p := range patterns {
		if !strings.Contains(msg, p) {
			continue
		}
		if strings.HasPrefix(p, "invalid") {
			return true
		}
		if strings.Contains(msg, pgSuffix) {
			return true
		}
	}
	return false
}
