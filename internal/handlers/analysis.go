package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/abcode/codelens/internal/analytics"
	"github.com/abcode/codelens/internal/database"
	"github.com/abcode/codelens/internal/middleware"
	"github.com/abcode/codelens/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	// DefaultHistoryLimit is the default number of history items returned
	DefaultHistoryLimit = 10
	// MaxHistoryLimit is the maximum number of history items returned
	MaxHistoryLimit = 100
	// DefaultTopK is the default number of top error types returned
	DefaultTopK = 10
	// CodePreviewLength is the number of leading characters shown in history
	CodePreviewLength = 30
)

// AnalysisHandler serves analysis history and learning analytics
type AnalysisHandler struct {
	analyses database.AnalysisRepositoryInterface
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analyses database.AnalysisRepositoryInterface) *AnalysisHandler {
	return &AnalysisHandler{analyses: analyses}
}

// RegisterRoutes registers analysis routes on the given router
// The router should already have the /analysis prefix
func (h *AnalysisHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/history", h.GetHistory).Methods("GET")
	r.HandleFunc("/progress", h.GetProgress).Methods("GET")
	r.HandleFunc("/breakdown", h.GetBreakdown).Methods("GET")
	r.HandleFunc("/top-errors", h.GetTopErrors).Methods("GET")
	r.HandleFunc("/user-stats", h.GetUserStats).Methods("GET")
	r.HandleFunc("/progress-metrics", h.GetProgressMetrics).Methods("GET")
	r.HandleFunc("/{id}", h.GetAnalysis).Methods("GET")
}

// UserStats summarizes a user's activity for the profile page
type UserStats struct {
	TotalAnalyses int `json:"total_analyses"`
	ErrorsFixed   int `json:"errors_fixed"`
	DayStreak     int `json:"day_streak"`
}

// GetHistory lists the most recent analyses for the authenticated user
func (h *AnalysisHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	limit := DefaultHistoryLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			if parsed > MaxHistoryLimit {
				limit = MaxHistoryLimit
			} else {
				limit = parsed
			}
		}
	}

	records, err := h.analyses.GetByUserID(r.Context(), user.ID, limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve history")
		return
	}

	items := make([]models.HistoryItem, 0, len(records))
	for _, record := range records {
		items = append(items, models.HistoryItem{
			ID:          record.ID,
			Date:        record.CreatedAt,
			Language:    record.Language,
			TotalErrors: record.TotalErrors,
			CodePreview: codePreview(record.CodeContent),
		})
	}

	respondJSON(w, http.StatusOK, items)
}

// GetProgress returns the per-month error totals for the authenticated user
func (h *AnalysisHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	records, err := h.history(r, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve analyses")
		return
	}

	respondJSON(w, http.StatusOK, analytics.MonthlyProgress(records))
}

// GetBreakdown returns the per-month error category breakdown
func (h *AnalysisHandler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	records, err := h.history(r, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve analyses")
		return
	}

	respondJSON(w, http.StatusOK, analytics.MonthlyBreakdown(records))
}

// GetTopErrors returns the most frequent error types for the user
func (h *AnalysisHandler) GetTopErrors(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	topK := DefaultTopK
	if k := r.URL.Query().Get("top_k"); k != "" {
		if parsed, err := strconv.Atoi(k); err == nil && parsed > 0 {
			topK = parsed
		}
	}

	records, err := h.history(r, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve analyses")
		return
	}

	respondJSON(w, http.StatusOK, analytics.TopErrors(records, topK))
}

// GetUserStats returns profile statistics for the authenticated user
func (h *AnalysisHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	records, err := h.history(r, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve analyses")
		return
	}

	errorsFixed := 0
	for _, record := range records {
		errorsFixed += record.TotalErrors
	}

	respondJSON(w, http.StatusOK, UserStats{
		TotalAnalyses: len(records),
		ErrorsFixed:   errorsFixed,
		DayStreak:     analytics.DayStreak(records, time.Now()),
	})
}

// GetProgressMetrics returns dashboard metrics for the authenticated user
func (h *AnalysisHandler) GetProgressMetrics(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	records, err := h.history(r, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve analyses")
		return
	}

	respondJSON(w, http.StatusOK, analytics.Metrics(records))
}

// GetAnalysis retrieves a single analysis by ID, verifying ownership
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid analysis ID")
		return
	}

	record, err := h.analyses.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Analysis not found")
		return
	}

	if record.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Not authorized to access this analysis")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// history loads the user's full analysis history in chronological order,
// which is what the analytics functions expect.
func (h *AnalysisHandler) history(r *http.Request, userID uuid.UUID) ([]models.AnalysisRecord, error) {
	records, err := h.analyses.GetHistoryByUserID(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.AnalysisRecord, 0, len(records))
	for _, record := range records {
		out = append(out, *record)
	}
	return out, nil
}

func codePreview(code string) string {
	runes := []rune(code)
	if len(runes) > CodePreviewLength {
		runes = runes[:CodePreviewLength]
	}
	return string(runes) + "..."
}
