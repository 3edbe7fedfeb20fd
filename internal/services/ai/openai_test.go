package ai

import (
	"strings"
	"testing"

	"github.com/abcode/codelens/internal/models"
	"github.com/abcode/codelens/internal/parser"
)

const structuredJSON = `{
	"errors": [
		{
			"category": "Syntax Error",
			"count": 1,
			"description": "Missing colon",
			"icon": "X",
			"details": [
				{"line": 1, "message": "missing colon after if", "codeSnippet": "if x", "suggestion": "add a colon"}
			]
		}
	],
	"corrected_code": "if x:\n    pass",
	"explanations": ["Control statements need a trailing colon."],
	"recommendations": ["Run a linter before submitting."]
}`

func TestDecodeStructured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"plain JSON", structuredJSON, false},
		{"JSON wrapped in prose", "Here is the analysis:\n" + structuredJSON + "\nHope that helps!", false},
		{"JSON in code fence", "```json\n" + structuredJSON + "\n```", false},
		{"not JSON at all", "## Errors\n**Syntax Error**: nope", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			analysis, err := decodeStructured(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected decode error")
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeStructured returned error: %v", err)
			}
			if len(analysis.Errors) != 1 || analysis.Errors[0].Category != "Syntax Error" {
				t.Errorf("Unexpected errors %+v", analysis.Errors)
			}
			if analysis.Errors[0].Details[0].Suggestion != "add a colon" {
				t.Errorf("Unexpected detail %+v", analysis.Errors[0].Details[0])
			}
			if analysis.CorrectedCode != "if x:\n    pass" {
				t.Errorf("Unexpected corrected code %q", analysis.CorrectedCode)
			}
		})
	}
}

func TestRenderMarkdownParsesBack(t *testing.T) {
	t.Parallel()

	analysis := &models.StructuredAnalysis{
		Errors: []models.StructuredCategory{
			{
				Category:    "Syntax Error",
				Count:       1,
				Description: "Missing colon",
				Details: []models.StructuredDetail{
					{Line: 1, Message: "missing colon after if"},
				},
			},
		},
		CorrectedCode:   "if x:\n    pass",
		Explanations:    []string{"Control statements need a trailing colon."},
		Recommendations: []string{"Run a linter before submitting."},
	}

	markdown := RenderMarkdown(analysis, "python")
	parsed := parser.Parse(markdown)

	if len(parsed.Errors) == 0 || parsed.Errors[0].Type != "Syntax Error" {
		t.Errorf("Rendered markdown lost errors, got %+v", parsed.Errors)
	}
	if parsed.CorrectedCode != "if x:\n    pass" {
		t.Errorf("Rendered markdown lost corrected code, got %q", parsed.CorrectedCode)
	}
	if parsed.Language != "python" {
		t.Errorf("Rendered markdown lost language, got %q", parsed.Language)
	}
	if len(parsed.Explanations) != 1 || parsed.Explanations[0].ErrorType != "Syntax Error" {
		t.Errorf("Rendered markdown lost explanations, got %+v", parsed.Explanations)
	}
	if len(parsed.Recommendations) != 1 {
		t.Errorf("Rendered markdown lost recommendations, got %+v", parsed.Recommendations)
	}
}

func TestRenderMarkdownNoErrors(t *testing.T) {
	t.Parallel()

	analysis := &models.StructuredAnalysis{
		CorrectedCode:   "print(1)",
		Explanations:    []string{"Nothing to fix."},
		Recommendations: []string{"Keep it up."},
	}

	markdown := RenderMarkdown(analysis, "python")

	if !strings.Contains(markdown, "No errors found.") {
		t.Errorf("Expected no-errors marker in markdown:\n%s", markdown)
	}
	if !strings.Contains(markdown, "Nothing to fix.") {
		t.Errorf("Expected bare explanation in markdown:\n%s", markdown)
	}
}

func TestFallbackResponseParsesBack(t *testing.T) {
	t.Parallel()

	markdown := FallbackResponse("print x", "python", "connection refused")
	parsed := parser.Parse(markdown)

	if len(parsed.Errors) != 1 || parsed.Errors[0].Type != "API Error" {
		t.Fatalf("Fallback should parse to one API Error, got %+v", parsed.Errors)
	}
	if !strings.Contains(parsed.Errors[0].Message, "connection refused") {
		t.Errorf("Fallback should carry the upstream error, got %q", parsed.Errors[0].Message)
	}
	if parsed.CorrectedCode != "print x" {
		t.Errorf("Fallback should echo the code unchanged, got %q", parsed.CorrectedCode)
	}
}
