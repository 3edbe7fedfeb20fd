package chatbot

import (
	"context"
	"errors"
	"testing"

	"github.com/abcode/codelens/internal/models"
	"github.com/abcode/codelens/internal/services/ai"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeProvider struct {
	reply    string
	err      error
	received []ai.ChatMessage
}

func (f *fakeProvider) AnalyzeCode(ctx context.Context, code string, language string) (*ai.Result, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProvider) Chat(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	f.received = messages
	return f.reply, f.err
}

type fakeConversationRepo struct {
	history []*models.ConversationTurn
	created []*models.ConversationTurn
	deleted int64
}

func (f *fakeConversationRepo) Create(ctx context.Context, turn *models.ConversationTurn) error {
	f.created = append(f.created, turn)
	return nil
}

func (f *fakeConversationRepo) GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ConversationTurn, error) {
	return f.history, nil
}

func (f *fakeConversationRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.ConversationTurn, error) {
	return f.history, nil
}

func (f *fakeConversationRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	f.deleted = int64(len(f.history))
	f.history = nil
	return f.deleted, nil
}

func TestChatReplaysHistory(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &fakeConversationRepo{
		history: []*models.ConversationTurn{
			{UserID: userID, Role: models.RoleUser, Message: "what is a slice?"},
			{UserID: userID, Role: models.RoleAssistant, Response: "a view over an array"},
		},
	}
	provider := &fakeProvider{reply: "capacity grows geometrically"}
	svc := New(provider, repo, zap.NewNop())

	reply, err := svc.Chat(context.Background(), userID, "how does append work?")
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if reply != "capacity grows geometrically" {
		t.Errorf("Unexpected reply %q", reply)
	}

	if len(provider.received) != 3 {
		t.Fatalf("Expected history plus new message, got %d messages", len(provider.received))
	}
	if provider.received[0].Role != "user" || provider.received[1].Role != "assistant" {
		t.Errorf("History roles out of order: %+v", provider.received)
	}
	if provider.received[2].Content != "how does append work?" {
		t.Errorf("New message should come last, got %q", provider.received[2].Content)
	}

	if len(repo.created) != 2 {
		t.Fatalf("Expected user and assistant turns stored, got %d", len(repo.created))
	}
	if repo.created[0].Role != models.RoleUser || repo.created[0].Message != "how does append work?" {
		t.Errorf("Unexpected stored user turn %+v", repo.created[0])
	}
	if repo.created[1].Role != models.RoleAssistant || repo.created[1].Response != reply {
		t.Errorf("Unexpected stored assistant turn %+v", repo.created[1])
	}
}

func TestChatProviderFailure(t *testing.T) {
	t.Parallel()

	repo := &fakeConversationRepo{}
	provider := &fakeProvider{err: errors.New("rate limited")}
	svc := New(provider, repo, zap.NewNop())

	reply, err := svc.Chat(context.Background(), uuid.New(), "hello")
	if err != nil {
		t.Fatalf("Provider failure should degrade, not error: %v", err)
	}
	if reply != FallbackReply {
		t.Errorf("Expected canned fallback, got %q", reply)
	}
	if len(repo.created) != 0 {
		t.Errorf("Failed exchanges must not be stored, got %d turns", len(repo.created))
	}
}

func TestClearHistory(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &fakeConversationRepo{
		history: []*models.ConversationTurn{
			{UserID: userID, Role: models.RoleUser, Message: "hi"},
		},
	}
	svc := New(&fakeProvider{}, repo, zap.NewNop())

	deleted, err := svc.ClearHistory(context.Background(), userID)
	if err != nil {
		t.Fatalf("ClearHistory returned error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted turn, got %d", deleted)
	}
}
