package models

import (
	"time"

	"github.com/abcode/codelens/internal/parser"
	"github.com/google/uuid"
)

// AnalysisRecord is one persisted analysis event for a user. Records are
// append-only: created once per analysis request and never mutated.
// TotalErrors is computed at creation time and never recomputed.
type AnalysisRecord struct {
	ID              uuid.UUID                 `json:"id"`
	UserID          uuid.UUID                 `json:"user_id"`
	CodeContent     string                    `json:"code_content"`
	Language        string                    `json:"language"`
	RawResponse     string                    `json:"-"`
	CorrectedCode   string                    `json:"corrected_code"`
	Errors          []parser.ErrorEntry       `json:"errors"`
	Explanations    []parser.ExplanationEntry `json:"explanations"`
	Recommendations []string                  `json:"recommendations"`
	TotalErrors     int                       `json:"total_errors"`
	CreatedAt       time.Time                 `json:"created_at"`
}

// ErrorDetail describes a single error instance inside a category.
// Line is 0 when the error message carried no line reference.
type ErrorDetail struct {
	Line        int    `json:"line"`
	Message     string `json:"message"`
	CodeSnippet string `json:"codeSnippet"`
	Correction  string `json:"correction"`
	Explanation string `json:"explanation"`
}

// ErrorCategory groups error instances sharing the same type label.
// Category is an open string domain, not an enum.
type ErrorCategory struct {
	Category    string        `json:"category"`
	Count       int           `json:"count"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	Details     []ErrorDetail `json:"details"`
}

// StructuredDetail is one error instance from a schema-constrained provider
// response.
type StructuredDetail struct {
	Line        int    `json:"line"`
	Message     string `json:"message"`
	CodeSnippet string `json:"codeSnippet"`
	Suggestion  string `json:"suggestion"`
}

// StructuredCategory is one error category from a schema-constrained
// provider response.
type StructuredCategory struct {
	Category    string             `json:"category"`
	Count       int                `json:"count"`
	Description string             `json:"description"`
	Icon        string             `json:"icon"`
	Details     []StructuredDetail `json:"details"`
}

// StructuredAnalysis is the schema-constrained output shape some providers
// return instead of markdown. When present it supersedes markdown parsing
// for the request.
type StructuredAnalysis struct {
	Errors          []StructuredCategory `json:"errors"`
	CorrectedCode   string               `json:"corrected_code"`
	Explanations    []string             `json:"explanations"`
	Recommendations []string             `json:"recommendations"`
}

// AnalysisPayload is the response shape the frontend consumes for one
// analysis. Corrections is a word-level approximation used for underlining,
// not a real diff.
type AnalysisPayload struct {
	ID              string          `json:"id"`
	CorrectedCode   string          `json:"correctedCode"`
	Corrections     []string        `json:"corrections"`
	Errors          []ErrorCategory `json:"errors"`
	Recommendations []string        `json:"recommendations"`
}

// HistoryItem is one row of a user's analysis history listing.
type HistoryItem struct {
	ID          uuid.UUID `json:"id"`
	Date        time.Time `json:"date"`
	Language    string    `json:"language"`
	TotalErrors int       `json:"total_errors"`
	CodePreview string    `json:"code_preview"`
}
