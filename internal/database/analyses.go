package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abcode/codelens/internal/models"
	"github.com/abcode/codelens/internal/parser"
	"github.com/google/uuid"
)

// AnalysisRepository handles analysis database operations
type AnalysisRepository struct {
	db *DB
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create stores a new analysis record. Errors and explanations are stored as
// JSONB, recommendations as newline-joined text.
func (r *AnalysisRepository) Create(ctx context.Context, record *models.AnalysisRecord) error {
	query := `
		INSERT INTO code_analyses (id, user_id, code_content, language, raw_response, corrected_code, errors, explanations, recommendations, total_errors, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`

	errorsJSON, err := json.Marshal(record.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal errors: %w", err)
	}
	explanationsJSON, err := json.Marshal(record.Explanations)
	if err != nil {
		return fmt.Errorf("failed to marshal explanations: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		record.ID,
		record.UserID,
		record.CodeContent,
		record.Language,
		record.RawResponse,
		record.CorrectedCode,
		errorsJSON,
		explanationsJSON,
		strings.Join(record.Recommendations, "\n"),
		record.TotalErrors,
		time.Now(),
	).Scan(&record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}

	return nil
}

// GetByID retrieves an analysis by ID
func (r *AnalysisRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error) {
	query := `
		SELECT id, user_id, code_content, language, raw_response, corrected_code, errors, explanations, recommendations, total_errors, created_at
		FROM code_analyses
		WHERE id = $1
	`

	record, err := scanAnalysis(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	return record, nil
}

// GetByUserID retrieves analyses for a user ordered newest first, with an
// optional limit (0 means no limit).
func (r *AnalysisRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AnalysisRecord, error) {
	query := `
		SELECT id, user_id, code_content, language, raw_response, corrected_code, errors, explanations, recommendations, total_errors, created_at
		FROM code_analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	return r.queryAnalyses(ctx, query, args...)
}

// GetHistoryByUserID retrieves the full analysis history for a user in
// chronological order, as required by the analytics computations.
func (r *AnalysisRepository) GetHistoryByUserID(ctx context.Context, userID uuid.UUID) ([]*models.AnalysisRecord, error) {
	query := `
		SELECT id, user_id, code_content, language, raw_response, corrected_code, errors, explanations, recommendations, total_errors, created_at
		FROM code_analyses
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	return r.queryAnalyses(ctx, query, userID)
}

// GetRawResponse retrieves only the stored upstream response for an analysis
func (r *AnalysisRepository) GetRawResponse(ctx context.Context, id uuid.UUID) (string, error) {
	var raw string
	query := `SELECT raw_response FROM code_analyses WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("analysis not found: %w", err)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get raw response: %w", err)
	}

	return raw, nil
}

// ListIDsByUserID returns the IDs of all analyses for a user
func (r *AnalysisRepository) ListIDsByUserID(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT id FROM code_analyses WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis IDs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan analysis ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis IDs: %w", err)
	}

	return ids, nil
}

// UpdateParsed rewrites the derived fields of an analysis after the stored
// raw response has been re-parsed. The raw response itself is never touched.
func (r *AnalysisRepository) UpdateParsed(ctx context.Context, record *models.AnalysisRecord) error {
	query := `
		UPDATE code_analyses
		SET corrected_code = $2, errors = $3, explanations = $4, recommendations = $5, total_errors = $6, language = $7
		WHERE id = $1
	`

	errorsJSON, err := json.Marshal(record.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal errors: %w", err)
	}
	explanationsJSON, err := json.Marshal(record.Explanations)
	if err != nil {
		return fmt.Errorf("failed to marshal explanations: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.CorrectedCode,
		errorsJSON,
		explanationsJSON,
		strings.Join(record.Recommendations, "\n"),
		record.TotalErrors,
		record.Language,
	)
	if err != nil {
		return fmt.Errorf("failed to update analysis: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("analysis not found")
	}

	return nil
}

// DeleteByUserID removes all analyses for a user and reports how many rows
// were deleted
func (r *AnalysisRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `DELETE FROM code_analyses WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete analyses: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

func (r *AnalysisRepository) queryAnalyses(ctx context.Context, query string, args ...any) ([]*models.AnalysisRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var records []*models.AnalysisRecord
	for rows.Next() {
		record, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*models.AnalysisRecord, error) {
	record := &models.AnalysisRecord{}
	var errorsJSON, explanationsJSON []byte
	var recommendations string

	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.CodeContent,
		&record.Language,
		&record.RawResponse,
		&record.CorrectedCode,
		&errorsJSON,
		&explanationsJSON,
		&recommendations,
		&record.TotalErrors,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(errorsJSON) > 0 {
		if err := json.Unmarshal(errorsJSON, &record.Errors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal errors: %w", err)
		}
	}
	if record.Errors == nil {
		record.Errors = []parser.ErrorEntry{}
	}

	if len(explanationsJSON) > 0 {
		if err := json.Unmarshal(explanationsJSON, &record.Explanations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal explanations: %w", err)
		}
	}
	if record.Explanations == nil {
		record.Explanations = []parser.ExplanationEntry{}
	}

	if recommendations != "" {
		record.Recommendations = strings.Split(recommendations, "\n")
	} else {
		record.Recommendations = []string{}
	}

	return record, nil
}
