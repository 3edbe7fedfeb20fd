// Package analysis turns parsed or schema-constrained AI output into the
// user-facing analysis payload: grouped error categories with icons, line
// scoped code snippets and an approximate word-level corrections list.
package analysis

import (
	"strings"

	"github.com/abcode/codelens/internal/models"
	"github.com/abcode/codelens/internal/parser"
)

const (
	// snippetPreviewLength is the prefix length used when no line number is known.
	snippetPreviewLength = 50
	// maxCorrections caps the corrections list returned to the frontend.
	maxCorrections = 10
	// minCorrectionWordLength filters out short words from the corrections list.
	minCorrectionWordLength = 2
)

// DefaultIcon is reported for error types that match no keyword.
const DefaultIcon = "X"

// iconKeyword maps an error-type keyword to its icon token. The table is
// priority-ordered: the first keyword found in the type wins.
type iconKeyword struct {
	keyword string
	icon    string
}

var iconTable = []iconKeyword{
	{"bracket", "[]"},
	{"colon", ":"},
	{"comma", ","},
	{"indentation", "->"},
	{"logic", "!"},
	{"missing", "+"},
	{"spelling", "Aa"},
	{"syntax", "{}"},
	{"type", "T"},
	{"undefined", "?"},
	{"unused", "-"},
}

// Upstream is the tagged union of the two provider output shapes. Exactly
// one field is set; Structured supersedes Markdown when both are present.
type Upstream struct {
	Markdown   *parser.ParsedAnalysis
	Structured *models.StructuredAnalysis
}

// Normalize builds the analysis payload for one record. The markdown path
// groups raw error entries; the structured path maps the provider's
// pre-categorized data directly. Both recompute the corrections list the
// same way.
func Normalize(record *models.AnalysisRecord, upstream Upstream) models.AnalysisPayload {
	if upstream.Structured != nil {
		return fromStructured(record, upstream.Structured)
	}
	var pa parser.ParsedAnalysis
	if upstream.Markdown != nil {
		pa = *upstream.Markdown
	}
	return fromParsed(record, pa)
}

func fromParsed(record *models.AnalysisRecord, pa parser.ParsedAnalysis) models.AnalysisPayload {
	correctedCode := record.CorrectedCode
	if correctedCode == "" {
		correctedCode = record.CodeContent
	}

	return models.AnalysisPayload{
		ID:              record.ID.String(),
		CorrectedCode:   correctedCode,
		Corrections:     Corrections(record.CorrectedCode, record.CodeContent),
		Errors:          GroupErrors(pa, record.CodeContent, record.CorrectedCode),
		Recommendations: nonNil(pa.Recommendations),
	}
}

// nonNil keeps empty recommendation lists serializing as [] rather than null.
func nonNil(recommendations []string) []string {
	if recommendations == nil {
		return []string{}
	}
	return recommendations
}

func fromStructured(record *models.AnalysisRecord, sa *models.StructuredAnalysis) models.AnalysisPayload {
	errors := make([]models.ErrorCategory, 0, len(sa.Errors))
	for _, cat := range sa.Errors {
		details := make([]models.ErrorDetail, 0, len(cat.Details))
		for _, d := range cat.Details {
			details = append(details, models.ErrorDetail{
				Line:        d.Line,
				Message:     d.Message,
				CodeSnippet: d.CodeSnippet,
				Correction:  d.Suggestion,
				Explanation: d.Suggestion,
			})
		}
		errors = append(errors, models.ErrorCategory{
			Category:    cat.Category,
			Count:       cat.Count,
			Description: cat.Description,
			Icon:        cat.Icon,
			Details:     details,
		})
	}

	return models.AnalysisPayload{
		ID:              record.ID.String(),
		CorrectedCode:   sa.CorrectedCode,
		Corrections:     Corrections(sa.CorrectedCode, record.CodeContent),
		Errors:          errors,
		Recommendations: nonNil(sa.Recommendations),
	}
}

// GroupErrors groups parsed error entries by type, in first-seen order, and
// builds per-instance details with line numbers, snippets and explanations.
func GroupErrors(pa parser.ParsedAnalysis, sourceCode, correctedCode string) []models.ErrorCategory {
	groups := []models.ErrorCategory{}
	index := map[string]int{}

	for _, entry := range pa.Errors {
		i, seen := index[entry.Type]
		if !seen {
			groups = append(groups, models.ErrorCategory{
				Category:    entry.Type,
				Count:       0,
				Description: entry.Message,
				Icon:        IconFor(entry.Type),
				Details:     []models.ErrorDetail{},
			})
			i = len(groups) - 1
			index[entry.Type] = i
		}

		groups[i].Count++

		line := parser.ExtractLineNumber(entry.Message)
		groups[i].Details = append(groups[i].Details, models.ErrorDetail{
			Line:        line,
			Message:     entry.Message,
			CodeSnippet: Snippet(sourceCode, line),
			Correction:  correctionSnippet(correctedCode, line),
			Explanation: parser.FindExplanation(entry.Type, pa.Explanations),
		})
	}

	return groups
}

// IconFor classifies an error type into a one-to-two character icon token by
// case-insensitive keyword match.
func IconFor(errorType string) string {
	lower := strings.ToLower(errorType)
	for _, kw := range iconTable {
		if strings.Contains(lower, kw.keyword) {
			return kw.icon
		}
	}
	return DefaultIcon
}

// Snippet returns the 1-indexed source line for a known line number, the
// first line when the number is out of range, or a 50-character preview when
// no line number is known.
func Snippet(code string, line int) string {
	if line == 0 || code == "" {
		return preview(code)
	}

	lines := strings.Split(code, "\n")
	if line > len(lines) {
		if len(lines) == 0 {
			return ""
		}
		return lines[0]
	}
	return lines[line-1]
}

func correctionSnippet(correctedCode string, line int) string {
	if correctedCode == "" {
		return ""
	}
	return Snippet(correctedCode, line)
}

func preview(code string) string {
	if len(code) > snippetPreviewLength {
		return code[:snippetPreviewLength] + "..."
	}
	return code
}

// Corrections returns corrected-side words absent from the original code,
// in order, capped at 10. This is a deliberately approximate word-level
// comparison the frontend uses for underlining; it is not a real diff.
func Corrections(corrected, original string) []string {
	if corrected == "" || corrected == original {
		return []string{}
	}

	originalWords := map[string]struct{}{}
	for _, w := range strings.Fields(original) {
		originalWords[w] = struct{}{}
	}

	corrections := []string{}
	for _, w := range strings.Fields(corrected) {
		if len(w) <= minCorrectionWordLength {
			continue
		}
		if _, ok := originalWords[w]; ok {
			continue
		}
		corrections = append(corrections, w)
		if len(corrections) == maxCorrections {
			break
		}
	}

	return corrections
}
