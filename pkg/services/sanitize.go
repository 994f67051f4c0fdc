package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/datalens-ai/datalens-engine/pkg/llm"
)

var (
	h1Pattern = regexp.MustCompile(`(?is)<h1[^>]*>.*?</h1>`)

	// Models occasionally emit placeholder paragraphs instead of omitting a
	// section they had no data for.
	placeholderPattern = regexp.MustCompile(
		`(?i)<p[^>]*>[^<]*(?:data\s+not\s+available|information\s+not\s+available|not\s+available\s+in\s+the\s+provided\s+data)[^<]*</p>`)

	// An appendix heading followed immediately by the next heading or the end
	// of the document carries no content.
	emptyAppendixPattern = regexp.MustCompile(
		`(?is)<h([1-6])[^>]*>\s*appendix[^<]*</h[1-6]>\s*(?:<h[1-6]|\z)`)
)

// SanitizeReportHTML cleans assembled report markup: strips code fences,
// placeholder phrases, and empty appendix sections, and guarantees a
// top-level heading derived from the style title when the model omitted one.
func SanitizeReportHTML(html, styleTitle string) string {
	cleaned := llm.StripCodeFences(html)
	cleaned = placeholderPattern.ReplaceAllString(cleaned, "")

	cleaned = emptyAppendixPattern.ReplaceAllStringFunc(cleaned, func(match string) string {
		// Keep a trailing heading open tag if one anchored the match.
		if idx := strings.LastIndex(strings.ToLower(match), "<h"); idx > 0 {
			tail := match[idx:]
			if !strings.Contains(strings.ToLower(tail), "appendix") {
				return tail
			}
		}
		return ""
	})

	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return ""
	}

	if !h1Pattern.MatchString(cleaned) {
		cleaned = fmt.Sprintf("<h1>%s</h1>\n%s", styleTitle, cleaned)
	}

	return cleaned
}
