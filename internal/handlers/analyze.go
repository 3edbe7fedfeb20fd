package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/abcode/codelens/internal/middleware"
	"github.com/abcode/codelens/internal/services/analyzer"
	"github.com/abcode/codelens/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// MaxCodeLength is the maximum length for submitted code
const MaxCodeLength = 100000

// AnalyzeHandler handles code analysis requests
type AnalyzeHandler struct {
	analyzer *analyzer.Service
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(analyzer *analyzer.Service) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: analyzer}
}

// RegisterRoutes registers the analyze route on the given router
// The router should already have the /api/v1 prefix
func (h *AnalyzeHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/analyze", h.AnalyzeCode).Methods("POST")
}

// AnalyzeRequest represents a code analysis request. The language hint is
// optional; the detected language from the AI response wins.
type AnalyzeRequest struct {
	Code     string `json:"code" validate:"required,min=1,max=100000"`
	Language string `json:"language" validate:"omitempty,language_hint"`
}

// AnalyzeCode runs the full analysis pipeline for the authenticated user
func (h *AnalyzeHandler) AnalyzeCode(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req AnalyzeRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	if strings.TrimSpace(req.Code) == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Code cannot be empty")
		return
	}

	language := req.Language
	if language == "" {
		language = "auto"
	}

	payload, err := h.analyzer.Analyze(r.Context(), user.ID, req.Code, language)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to analyze code. Please try again.")
		return
	}

	respondJSON(w, http.StatusOK, payload)
}
