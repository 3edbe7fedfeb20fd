package parser

import "strings"

// Render produces the canonical markdown form of a ParsedAnalysis: the same
// section and entry conventions Parse consumes. Parsing a rendered document
// yields an equal ParsedAnalysis, which is how structured provider output is
// stored alongside markdown responses.
func Render(pa ParsedAnalysis) string {
	var b strings.Builder

	b.WriteString("## Errors\n")
	for _, e := range pa.Errors {
		b.WriteString("**" + e.Type + "**: " + e.Message + "\n")
	}

	b.WriteString("\n## Corrected Code\n")
	language := pa.Language
	if language == "" {
		language = UnknownLanguage
	}
	b.WriteString("```" + language + "\n")
	b.WriteString(pa.CorrectedCode)
	b.WriteString("\n```\n")

	b.WriteString("\n## Explanation\n")
	for _, e := range pa.Explanations {
		b.WriteString("**" + e.ErrorType + "**: " + e.Explanation + "\n")
	}

	b.WriteString("\n## Recommendations\n")
	for _, r := range pa.Recommendations {
		b.WriteString("- " + r + "\n")
	}

	return b.String()
}
