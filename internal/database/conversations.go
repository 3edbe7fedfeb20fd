package database

import (
	"context"
	"fmt"

	"github.com/abcode/codelens/internal/models"
	"github.com/google/uuid"
)

// ConversationRepository handles chat conversation database operations
type ConversationRepository struct {
	db *DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create stores one chat turn
func (r *ConversationRepository) Create(ctx context.Context, turn *models.ConversationTurn) error {
	query := `
		INSERT INTO conversations (id, user_id, role, message, response, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		turn.ID,
		turn.UserID,
		turn.Role,
		turn.Message,
		turn.Response,
	).Scan(&turn.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create conversation turn: %w", err)
	}

	return nil
}

// GetRecentByUserID retrieves the most recent chat turns for a user, oldest
// first so they can be fed to the model as context.
func (r *ConversationRepository) GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ConversationTurn, error) {
	query := `
		SELECT id, user_id, role, message, response, created_at
		FROM (
			SELECT id, user_id, role, message, response, created_at
			FROM conversations
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var turns []*models.ConversationTurn
	for rows.Next() {
		turn := &models.ConversationTurn{}
		err := rows.Scan(
			&turn.ID,
			&turn.UserID,
			&turn.Role,
			&turn.Message,
			&turn.Response,
			&turn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation turn: %w", err)
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	return turns, nil
}

// ListByUserID retrieves the full chat history for a user, oldest first
func (r *ConversationRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.ConversationTurn, error) {
	query := `
		SELECT id, user_id, role, message, response, created_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var turns []*models.ConversationTurn
	for rows.Next() {
		turn := &models.ConversationTurn{}
		err := rows.Scan(
			&turn.ID,
			&turn.UserID,
			&turn.Role,
			&turn.Message,
			&turn.Response,
			&turn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation turn: %w", err)
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	return turns, nil
}

// DeleteByUserID removes all chat history for a user
func (r *ConversationRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `DELETE FROM conversations WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete conversations: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
