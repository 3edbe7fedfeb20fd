package ai

import (
	"fmt"
	"strings"

	"github.com/abcode/codelens/internal/models"
)

// RenderMarkdown converts a structured analysis into the canonical markdown
// layout that the response parser understands. The structured path stores
// this rendering as the raw response so that re-parsing a record always
// works, whichever path produced it.
func RenderMarkdown(analysis *models.StructuredAnalysis, language string) string {
	var b strings.Builder

	b.WriteString("## Errors\n")
	if len(analysis.Errors) > 0 {
		for _, category := range analysis.Errors {
			fmt.Fprintf(&b, "**%s**: %s\n", category.Category, category.Description)
			for _, detail := range category.Details {
				fmt.Fprintf(&b, "  - Line %d: %s\n", detail.Line, detail.Message)
			}
		}
	} else {
		b.WriteString("No errors found.\n")
	}

	fmt.Fprintf(&b, "\n## Corrected Code\n```%s\n%s\n```\n", language, analysis.CorrectedCode)

	b.WriteString("\n## Explanation\n")
	if len(analysis.Errors) > 0 {
		for i, category := range analysis.Errors {
			if i < len(analysis.Explanations) {
				fmt.Fprintf(&b, "**%s**: %s\n\n", category.Category, analysis.Explanations[i])
			}
		}
	} else {
		for _, explanation := range analysis.Explanations {
			fmt.Fprintf(&b, "%s\n\n", explanation)
		}
	}

	b.WriteString("\n## Recommendations\n")
	for _, rec := range analysis.Recommendations {
		fmt.Fprintf(&b, "- %s\n", rec)
	}

	return b.String()
}

// FallbackResponse builds the markdown served when the provider call fails.
// It parses cleanly, echoes the user's code back unchanged and carries the
// upstream error as a single API Error entry.
func FallbackResponse(code string, language string, errMsg string) string {
	return fmt.Sprintf(`## Errors
**API Error**: Failed to analyze code - %s

## Corrected Code
`+"```%s\n%s\n```"+`

## Explanation
The code analysis service encountered an error. Please check your API key and try again.
`, errMsg, language, code)
}
