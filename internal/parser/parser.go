// Package parser extracts structured analysis data from AI markdown responses.
//
// The upstream model is asked to answer with level-2 sections named Errors,
// Corrected Code, Explanation and Recommendations, but its output has no
// guaranteed schema. Every function here is total: malformed or partially
// missing input degrades to empty fields, never to an error.
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// UnknownLanguage is the language reported when no tag can be recovered.
const UnknownLanguage = "unknown"

// DefaultExplanation is used for errors with no matching explanation entry.
const DefaultExplanation = "No detailed explanation available."

// ErrorEntry is one raw error mention from the Errors section. Type is a
// free-form label; the upstream defines categories dynamically.
type ErrorEntry struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ExplanationEntry is a free-text elaboration keyed by error type label.
type ExplanationEntry struct {
	ErrorType   string `json:"error_type"`
	Explanation string `json:"explanation"`
}

// ParsedAnalysis is the canonical structured result of parsing one response.
// CorrectedCode and Language are always present (possibly empty/"unknown");
// Errors may be empty.
type ParsedAnalysis struct {
	Errors          []ErrorEntry       `json:"errors"`
	CorrectedCode   string             `json:"corrected_code"`
	Language        string             `json:"detected_language"`
	Explanations    []ExplanationEntry `json:"explanations"`
	Recommendations []string           `json:"recommendations"`
}

var (
	entryPattern     = regexp.MustCompile(`\*\*([^*]+)\*\*:\s*([^\n]+)`)
	entryLinePattern = regexp.MustCompile(`^\*\*([^*]+)\*\*:\s*(.*)$`)
	codeBlockPattern = regexp.MustCompile("(?s)```(\\w*)\n(.*?)```")
	fenceMarker      = regexp.MustCompile("```\\w*")
	bulletPattern    = regexp.MustCompile(`^[-*]\s+(.+)$`)

	linePatterns = []*regexp.Regexp{
		regexp.MustCompile(`line\s+(\d+)`),
		regexp.MustCompile(`Line\s+(\d+)`),
		regexp.MustCompile(`at\s+line\s+(\d+)`),
	}
)

// Parse converts a markdown document into a ParsedAnalysis. It is a pure
// function of the input text.
func Parse(doc string) ParsedAnalysis {
	code, language := ExtractCodeBlock(doc)
	return ParsedAnalysis{
		Errors:          ExtractErrors(doc),
		CorrectedCode:   code,
		Language:        language,
		Explanations:    ExtractExplanations(doc),
		Recommendations: ExtractRecommendations(doc),
	}
}

// ExtractSection returns the trimmed body of the first level-2 header whose
// text equals name (case-insensitive). The body runs to the next level-2
// header or end of document. The second return is false when no such header
// exists.
func ExtractSection(doc, name string) (string, bool) {
	pattern, err := regexp.Compile(`(?is)##\s*` + regexp.QuoteMeta(name) + `\s*\n(.*?)(?:##|\z)`)
	if err != nil {
		return "", false
	}
	m := pattern.FindStringSubmatch(doc)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// ExtractErrors collects **Label**: text entries from the Errors section.
// Zero matches yields an empty slice, not a failure.
func ExtractErrors(doc string) []ErrorEntry {
	errors := []ErrorEntry{}

	section, ok := ExtractSection(doc, "Errors")
	if !ok {
		return errors
	}

	for _, m := range entryPattern.FindAllStringSubmatch(section, -1) {
		errors = append(errors, ErrorEntry{
			Type:    strings.TrimSpace(m[1]),
			Message: strings.TrimSpace(m[2]),
		})
	}

	return errors
}

// ExtractCodeBlock returns the corrected code and its language tag. The first
// fenced block anywhere in the document wins; an untagged fence reports
// "unknown". When no fence exists the Corrected Code section is used with
// fence markers stripped.
func ExtractCodeBlock(doc string) (code, language string) {
	if m := codeBlockPattern.FindStringSubmatch(doc); m != nil {
		language = strings.TrimSpace(m[1])
		if language == "" {
			language = UnknownLanguage
		}
		return strings.TrimSpace(m[2]), language
	}

	if section, ok := ExtractSection(doc, "Corrected Code"); ok {
		clean := fenceMarker.ReplaceAllString(section, "")
		clean = strings.ReplaceAll(clean, "```", "")
		return strings.TrimSpace(clean), UnknownLanguage
	}

	return "", UnknownLanguage
}

// ExtractExplanations collects **Label**: text entries from the Explanation
// section. Explanation text may continue across lines until the next entry,
// a blank line, or the end of the section.
func ExtractExplanations(doc string) []ExplanationEntry {
	explanations := []ExplanationEntry{}

	section, ok := ExtractSection(doc, "Explanation")
	if !ok {
		return explanations
	}

	lines := strings.Split(section, "\n")
	inEntry := false
	for _, line := range lines {
		if m := entryLinePattern.FindStringSubmatch(line); m != nil {
			explanations = append(explanations, ExplanationEntry{
				ErrorType:   strings.TrimSpace(m[1]),
				Explanation: strings.TrimSpace(m[2]),
			})
			inEntry = true
			continue
		}
		if strings.TrimSpace(line) == "" {
			inEntry = false
			continue
		}
		if inEntry && len(explanations) > 0 {
			last := &explanations[len(explanations)-1]
			last.Explanation += "\n" + strings.TrimSpace(line)
		}
	}

	return explanations
}

// ExtractRecommendations collects bullet lines from the Recommendations
// section, in order. Non-bulleted lines are ignored.
func ExtractRecommendations(doc string) []string {
	recommendations := []string{}

	section, ok := ExtractSection(doc, "Recommendations")
	if !ok {
		return recommendations
	}

	for _, line := range strings.Split(section, "\n") {
		if m := bulletPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			recommendations = append(recommendations, strings.TrimSpace(m[1]))
		}
	}

	return recommendations
}

// ExtractLineNumber recovers a line number from an error message that
// mentions one ("on line 5", "Line 10:", "at line 3"). Returns 0 when the
// message carries no line reference.
func ExtractLineNumber(message string) int {
	for _, pattern := range linePatterns {
		if m := pattern.FindStringSubmatch(message); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			return n
		}
	}
	return 0
}

// FindExplanation returns the explanation whose label matches errorType,
// compared case-insensitively, or DefaultExplanation when none matches.
func FindExplanation(errorType string, explanations []ExplanationEntry) string {
	for _, e := range explanations {
		if strings.EqualFold(e.ErrorType, errorType) {
			return e.Explanation
		}
	}
	return DefaultExplanation
}
