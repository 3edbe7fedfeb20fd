// Package chatbot implements the programming-assistance chat on top of the
// AI provider, with conversation history persisted per user.
package chatbot

import (
	"context"

	"github.com/abcode/codelens/internal/database"
	"github.com/abcode/codelens/internal/models"
	"github.com/abcode/codelens/internal/services/ai"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HistoryWindow is how many stored turns are replayed as model context
const HistoryWindow = 10

// FallbackReply is returned when the provider call fails
const FallbackReply = "I apologize, but I encountered an error processing your message. Please try again."

// Service handles chat conversations
type Service struct {
	provider      ai.Provider
	conversations database.ConversationRepositoryInterface
	logger        *zap.Logger
}

// New creates a new chatbot service
func New(provider ai.Provider, conversations database.ConversationRepositoryInterface, logger *zap.Logger) *Service {
	return &Service{
		provider:      provider,
		conversations: conversations,
		logger:        logger,
	}
}

// Chat processes one user message with persistent conversation history and
// returns the assistant's reply. Provider failures produce an apologetic
// canned reply rather than an error; nothing is stored in that case.
func (s *Service) Chat(ctx context.Context, userID uuid.UUID, message string) (string, error) {
	history, err := s.conversations.GetRecentByUserID(ctx, userID, HistoryWindow)
	if err != nil {
		return "", err
	}

	messages := make([]ai.ChatMessage, 0, len(history)+1)
	for _, turn := range history {
		switch turn.Role {
		case models.RoleUser:
			messages = append(messages, ai.ChatMessage{Role: "user", Content: turn.Message})
		case models.RoleAssistant:
			messages = append(messages, ai.ChatMessage{Role: "assistant", Content: turn.Response})
		}
	}
	messages = append(messages, ai.ChatMessage{Role: "user", Content: message})

	reply, err := s.provider.Chat(ctx, messages)
	if err != nil {
		s.logger.Warn("chat_failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return FallbackReply, nil
	}

	userTurn := &models.ConversationTurn{
		ID:      uuid.New(),
		UserID:  userID,
		Role:    models.RoleUser,
		Message: message,
	}
	if err := s.conversations.Create(ctx, userTurn); err != nil {
		return "", err
	}

	assistantTurn := &models.ConversationTurn{
		ID:       uuid.New(),
		UserID:   userID,
		Role:     models.RoleAssistant,
		Response: reply,
	}
	if err := s.conversations.Create(ctx, assistantTurn); err != nil {
		return "", err
	}

	return reply, nil
}

// ClearHistory removes all stored conversation turns for a user
func (s *Service) ClearHistory(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.conversations.DeleteByUserID(ctx, userID)
}
