package database

import (
	"context"

	"github.com/abcode/codelens/internal/models"
	"github.com/google/uuid"
)

// AnalysisRepositoryInterface defines the interface for analysis repository
// operations. This interface enables better testability by allowing mock
// implementations.
type AnalysisRepositoryInterface interface {
	Create(ctx context.Context, record *models.AnalysisRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AnalysisRecord, error)
	GetHistoryByUserID(ctx context.Context, userID uuid.UUID) ([]*models.AnalysisRecord, error)
	GetRawResponse(ctx context.Context, id uuid.UUID) (string, error)
	ListIDsByUserID(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	UpdateParsed(ctx context.Context, record *models.AnalysisRecord) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}

// UserRepositoryInterface defines the interface for user repository operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ConversationRepositoryInterface defines the interface for conversation
// repository operations
type ConversationRepositoryInterface interface {
	Create(ctx context.Context, turn *models.ConversationTurn) error
	GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ConversationTurn, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.ConversationTurn, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Ensure concrete types implement the interfaces
var (
	_ AnalysisRepositoryInterface     = (*AnalysisRepository)(nil)
	_ UserRepositoryInterface         = (*UserRepository)(nil)
	_ ConversationRepositoryInterface = (*ConversationRepository)(nil)
)
