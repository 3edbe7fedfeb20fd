package analysis

import (
	"reflect"
	"strings"
	"testing"

	"github.com/abcode/codelens/internal/models"
	"github.com/abcode/codelens/internal/parser"
	"github.com/google/uuid"
)

func TestIconFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		errorType string
		want      string
	}{
		{"Syntax Error", "{}"},
		{"SYNTAX ERROR", "{}"},
		{"Indentation Error", "->"},
		{"Type Mismatch", "T"},
		{"Logic Error", "!"},
		{"Undefined Variable", "?"},
		{"Missing Return Statement", "+"},
		{"Unused Variable", "-"},
		{"Bracket Mismatch", "[]"},
		{"Missing Colon", ":"}, // colon outranks missing in the table
		{"Comma Splice", ","},
		{"Spelling Mistake", "Aa"},
		{"Something Novel", DefaultIcon},
		{"", DefaultIcon},
	}

	for _, tt := range tests {
		if got := IconFor(tt.errorType); got != tt.want {
			t.Errorf("IconFor(%q) = %q, want %q", tt.errorType, got, tt.want)
		}
	}
}

func TestSnippet(t *testing.T) {
	t.Parallel()

	code := "line one\nline two\nline three"

	tests := []struct {
		name string
		code string
		line int
		want string
	}{
		{"known line", code, 2, "line two"},
		{"first line", code, 1, "line one"},
		{"line beyond range falls back to first line", code, 9, "line one"},
		{"unknown line short code", code, 0, code},
		{"unknown line long code", strings.Repeat("x", 60), 0, strings.Repeat("x", 50) + "..."},
		{"unknown line exactly 50 chars", strings.Repeat("x", 50), 0, strings.Repeat("x", 50)},
		{"empty code", "", 3, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Snippet(tt.code, tt.line); got != tt.want {
				t.Errorf("Snippet = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCorrections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		corrected string
		original  string
		want      []string
	}{
		{
			name:      "new words only",
			corrected: "print(x) return value",
			original:  "print x",
			want:      []string{"print(x)", "return", "value"},
		},
		{
			name:      "short words filtered",
			corrected: "a bb ccc",
			original:  "",
			want:      []string{"ccc"},
		},
		{
			name:      "identical code",
			corrected: "same code",
			original:  "same code",
			want:      []string{},
		},
		{
			name:      "empty corrected",
			corrected: "",
			original:  "anything",
			want:      []string{},
		},
		{
			name:      "capped at ten",
			corrected: "word01 word02 word03 word04 word05 word06 word07 word08 word09 word10 word11 word12",
			original:  "unrelated",
			want: []string{
				"word01", "word02", "word03", "word04", "word05",
				"word06", "word07", "word08", "word09", "word10",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Corrections(tt.corrected, tt.original)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Corrections = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGroupErrors(t *testing.T) {
	t.Parallel()

	pa := parser.ParsedAnalysis{
		Errors: []parser.ErrorEntry{
			{Type: "Syntax Error", Message: "missing colon on line 1"},
			{Type: "Logic Error", Message: "loop never terminates"},
			{Type: "Syntax Error", Message: "unexpected token on line 2"},
		},
		Explanations: []parser.ExplanationEntry{
			{ErrorType: "syntax error", Explanation: "about syntax"},
		},
	}
	source := "for i in range(10)\n    print(i)"
	corrected := "for i in range(10):\n    print(i)"

	groups := GroupErrors(pa, source, corrected)

	if len(groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(groups))
	}

	syntax := groups[0]
	if syntax.Category != "Syntax Error" || syntax.Count != 2 {
		t.Errorf("Unexpected first group %+v", syntax)
	}
	if syntax.Description != "missing colon on line 1" {
		t.Errorf("Description should come from first occurrence, got %q", syntax.Description)
	}
	if syntax.Icon != "{}" {
		t.Errorf("Expected syntax icon, got %q", syntax.Icon)
	}
	if len(syntax.Details) != 2 {
		t.Fatalf("Expected 2 details, got %d", len(syntax.Details))
	}
	if syntax.Details[0].Line != 1 || syntax.Details[0].CodeSnippet != "for i in range(10)" {
		t.Errorf("Unexpected first detail %+v", syntax.Details[0])
	}
	if syntax.Details[0].Correction != "for i in range(10):" {
		t.Errorf("Unexpected correction snippet %q", syntax.Details[0].Correction)
	}
	if syntax.Details[0].Explanation != "about syntax" {
		t.Errorf("Expected case-insensitive explanation match, got %q", syntax.Details[0].Explanation)
	}

	logic := groups[1]
	if logic.Category != "Logic Error" || logic.Count != 1 {
		t.Errorf("Unexpected second group %+v", logic)
	}
	if logic.Details[0].Line != 0 {
		t.Errorf("Expected line 0 for message without line reference, got %d", logic.Details[0].Line)
	}
	if logic.Details[0].Explanation != parser.DefaultExplanation {
		t.Errorf("Expected default explanation, got %q", logic.Details[0].Explanation)
	}
}

func TestNormalizeMarkdownPath(t *testing.T) {
	t.Parallel()

	record := &models.AnalysisRecord{
		ID:            uuid.New(),
		CodeContent:   "if x\n    pass",
		CorrectedCode: "if x:\n    handle()",
	}
	pa := parser.ParsedAnalysis{
		Errors: []parser.ErrorEntry{
			{Type: "Syntax Error", Message: "missing colon on line 1"},
		},
		CorrectedCode:   record.CorrectedCode,
		Language:        "python",
		Recommendations: []string{"Review control-flow syntax"},
	}

	payload := Normalize(record, Upstream{Markdown: &pa})

	if payload.ID != record.ID.String() {
		t.Errorf("Expected payload ID %q, got %q", record.ID.String(), payload.ID)
	}
	if payload.CorrectedCode != record.CorrectedCode {
		t.Errorf("Unexpected corrected code %q", payload.CorrectedCode)
	}
	if len(payload.Errors) != 1 || payload.Errors[0].Count != 1 {
		t.Errorf("Unexpected errors %+v", payload.Errors)
	}
	if payload.Errors[0].Details[0].Line != 1 {
		t.Errorf("Expected detail line 1, got %d", payload.Errors[0].Details[0].Line)
	}
	if !reflect.DeepEqual(payload.Recommendations, pa.Recommendations) {
		t.Errorf("Unexpected recommendations %v", payload.Recommendations)
	}
	if !reflect.DeepEqual(payload.Corrections, []string{"handle()"}) {
		t.Errorf("Unexpected corrections %v", payload.Corrections)
	}
}

func TestNormalizeFallsBackToSourceCode(t *testing.T) {
	t.Parallel()

	record := &models.AnalysisRecord{
		ID:          uuid.New(),
		CodeContent: "original code",
	}

	payload := Normalize(record, Upstream{Markdown: &parser.ParsedAnalysis{}})

	if payload.CorrectedCode != "original code" {
		t.Errorf("Expected fallback to source code, got %q", payload.CorrectedCode)
	}
	if len(payload.Corrections) != 0 {
		t.Errorf("Expected no corrections, got %v", payload.Corrections)
	}
}

func TestNormalizeNilUpstream(t *testing.T) {
	t.Parallel()

	record := &models.AnalysisRecord{
		ID:          uuid.New(),
		CodeContent: "original code",
	}

	payload := Normalize(record, Upstream{})

	if payload.CorrectedCode != "original code" {
		t.Errorf("Expected fallback to source code, got %q", payload.CorrectedCode)
	}
	if payload.Errors == nil || payload.Corrections == nil || payload.Recommendations == nil {
		t.Errorf("Expected empty slices, got errors=%v corrections=%v recommendations=%v",
			payload.Errors, payload.Corrections, payload.Recommendations)
	}
	if len(payload.Errors) != 0 || len(payload.Corrections) != 0 || len(payload.Recommendations) != 0 {
		t.Errorf("Expected empty payload, got %+v", payload)
	}
}

func TestNormalizeStructuredPath(t *testing.T) {
	t.Parallel()

	record := &models.AnalysisRecord{
		ID:          uuid.New(),
		CodeContent: "print x",
	}
	sa := &models.StructuredAnalysis{
		Errors: []models.StructuredCategory{
			{
				Category:    "Syntax Error",
				Count:       1,
				Description: "print is a function",
				Icon:        "X",
				Details: []models.StructuredDetail{
					{Line: 1, Message: "print statement", CodeSnippet: "print x", Suggestion: "use print(x)"},
				},
			},
		},
		CorrectedCode:   "print(x)",
		Explanations:    []string{"print requires parentheses in Python 3"},
		Recommendations: []string{"Upgrade to Python 3 syntax"},
	}

	payload := Normalize(record, Upstream{Structured: sa})

	if payload.CorrectedCode != "print(x)" {
		t.Errorf("Unexpected corrected code %q", payload.CorrectedCode)
	}
	if len(payload.Errors) != 1 {
		t.Fatalf("Expected 1 category, got %d", len(payload.Errors))
	}
	detail := payload.Errors[0].Details[0]
	if detail.Correction != "use print(x)" || detail.Explanation != "use print(x)" {
		t.Errorf("Suggestion should populate correction and explanation, got %+v", detail)
	}
	if !reflect.DeepEqual(payload.Corrections, []string{"print(x)"}) {
		t.Errorf("Unexpected corrections %v", payload.Corrections)
	}
	if !reflect.DeepEqual(payload.Recommendations, sa.Recommendations) {
		t.Errorf("Unexpected recommendations %v", payload.Recommendations)
	}
}
