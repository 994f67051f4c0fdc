package sqlgate

import (
	"regexp"

	libinjection "github.com/corazawaf/libinjection-go"
)

// stringLiteralPattern captures the contents of single-quoted literals.
// Doubled quotes inside literals are treated as two adjacent literals, which
// is fine for an advisory scan.
var stringLiteralPattern = regexp.MustCompile(`'([^']*)'`)

// InjectionFinding reports a string literal that libinjection flagged.
type InjectionFinding struct {
	Literal     string
	Fingerprint string
}

// ScanStringLiterals runs libinjection over every single-quoted literal in
// the statement. Generated SQL embeds user-typed comparison values as
// literals; a flagged literal suggests the model was steered into smuggling
// SQL through one.
func ScanStringLiterals(sqlText string) []InjectionFinding {
	var findings []InjectionFinding
	for _, m := range stringLiteralPattern.FindAllStringSubmatch(sqlText, -1) {
		literal := m[1]
		if literal == "" {
			continue
		}
		if isSQLi, fingerprint := libinjection.IsSQLi(literal); isSQLi {
			findings = append(findings, InjectionFinding{
				Literal:     literal,
				Fingerprint: string(fingerprint),
			})
		}
	}
	return findings
}
