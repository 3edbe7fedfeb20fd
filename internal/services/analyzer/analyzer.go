// Package analyzer orchestrates the analysis workflow: call the AI
// provider, parse its response, persist the record and shape the payload
// served to the frontend.
package analyzer

import (
	"context"
	"time"

	"github.com/abcode/codelens/internal/analysis"
	"github.com/abcode/codelens/internal/database"
	"github.com/abcode/codelens/internal/models"
	"github.com/abcode/codelens/internal/parser"
	"github.com/abcode/codelens/internal/services/ai"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service runs code analyses end to end
type Service struct {
	provider ai.Provider
	analyses database.AnalysisRepositoryInterface
	logger   *zap.Logger
}

// New creates a new analyzer service
func New(provider ai.Provider, analyses database.AnalysisRepositoryInterface, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		analyses: analyses,
		logger:   logger,
	}
}

// Analyze sends code to the AI provider, parses the response, stores the
// resulting record and returns the frontend payload. Provider failures
// degrade to a stored fallback response rather than an error: the user
// still gets their code back with an API Error entry attached.
func (s *Service) Analyze(ctx context.Context, userID uuid.UUID, code string, language string) (*models.AnalysisPayload, error) {
	start := time.Now()
	result, err := s.provider.AnalyzeCode(ctx, code, language)
	if err != nil {
		s.logger.Warn("ai_analysis_failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		result = &ai.Result{RawMarkdown: ai.FallbackResponse(code, language, err.Error())}
	}

	parsed := parser.Parse(result.RawMarkdown)

	// Prefer the language the model detected in its code fence; fall back
	// to the caller's hint
	finalLanguage := parsed.Language
	if finalLanguage == parser.UnknownLanguage {
		finalLanguage = language
	}

	if len(parsed.Recommendations) == 0 && result.Structured == nil {
		parsed.Recommendations = analysis.Recommend(parsed.Errors)
	}

	record := &models.AnalysisRecord{
		ID:              uuid.New(),
		UserID:          userID,
		CodeContent:     code,
		Language:        finalLanguage,
		RawResponse:     result.RawMarkdown,
		CorrectedCode:   parsed.CorrectedCode,
		Errors:          parsed.Errors,
		Explanations:    parsed.Explanations,
		Recommendations: parsed.Recommendations,
		TotalErrors:     len(parsed.Errors),
	}

	if err := s.analyses.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("analysis_completed",
		zap.String("analysis_id", record.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("language", finalLanguage),
		zap.Int("total_errors", record.TotalErrors),
		zap.Bool("structured", result.Structured != nil),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	payload := analysis.Normalize(record, analysis.Upstream{
		Markdown:   &parsed,
		Structured: result.Structured,
	})
	return &payload, nil
}

// Reparse re-runs the parser over the stored raw response of an existing
// record and rewrites its derived fields. Used after parser fixes to
// backfill history without calling the provider again.
func (s *Service) Reparse(ctx context.Context, analysisID uuid.UUID) error {
	record, err := s.analyses.GetByID(ctx, analysisID)
	if err != nil {
		return err
	}

	parsed := parser.Parse(record.RawResponse)

	record.CorrectedCode = parsed.CorrectedCode
	record.Errors = parsed.Errors
	record.Explanations = parsed.Explanations
	record.Recommendations = parsed.Recommendations
	record.TotalErrors = len(parsed.Errors)
	if parsed.Language != parser.UnknownLanguage {
		record.Language = parsed.Language
	}

	if err := s.analyses.UpdateParsed(ctx, record); err != nil {
		return err
	}

	s.logger.Info("analysis_reparsed",
		zap.String("analysis_id", record.ID.String()),
		zap.Int("total_errors", record.TotalErrors),
	)
	return nil
}
