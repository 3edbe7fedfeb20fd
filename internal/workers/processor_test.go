package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/abcode/codelens/internal/models"
	"github.com/abcode/codelens/internal/queue"
	"github.com/abcode/codelens/internal/services/ai"
	"github.com/abcode/codelens/internal/services/analyzer"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeProvider struct{}

func (f *fakeProvider) AnalyzeCode(ctx context.Context, code string, language string) (*ai.Result, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProvider) Chat(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	return "", errors.New("not implemented")
}

type fakeAnalysisRepo struct {
	stored     map[uuid.UUID]*models.AnalysisRecord
	updated    *models.AnalysisRecord
	deletedFor *uuid.UUID
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{stored: make(map[uuid.UUID]*models.AnalysisRecord)}
}

func (f *fakeAnalysisRepo) Create(ctx context.Context, record *models.AnalysisRecord) error {
	f.stored[record.ID] = record
	return nil
}

func (f *fakeAnalysisRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error) {
	record, ok := f.stored[id]
	if !ok {
		return nil, errors.New("analysis not found")
	}
	return record, nil
}

func (f *fakeAnalysisRepo) GetByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AnalysisRecord, error) {
	return nil, nil
}

func (f *fakeAnalysisRepo) GetHistoryByUserID(ctx context.Context, userID uuid.UUID) ([]*models.AnalysisRecord, error) {
	return nil, nil
}

func (f *fakeAnalysisRepo) GetRawResponse(ctx context.Context, id uuid.UUID) (string, error) {
	record, err := f.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return record.RawResponse, nil
}

func (f *fakeAnalysisRepo) ListIDsByUserID(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, record := range f.stored {
		if record.UserID == userID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeAnalysisRepo) UpdateParsed(ctx context.Context, record *models.AnalysisRecord) error {
	f.updated = record
	return nil
}

func (f *fakeAnalysisRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	f.deletedFor = &userID
	var n int64
	for id, record := range f.stored {
		if record.UserID == userID {
			delete(f.stored, id)
			n++
		}
	}
	return n, nil
}

type fakeConversationRepo struct {
	deletedFor *uuid.UUID
	turns      int64
}

func (f *fakeConversationRepo) Create(ctx context.Context, turn *models.ConversationTurn) error {
	return nil
}

func (f *fakeConversationRepo) GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ConversationTurn, error) {
	return nil, nil
}

func (f *fakeConversationRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.ConversationTurn, error) {
	return nil, nil
}

func (f *fakeConversationRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	f.deletedFor = &userID
	return f.turns, nil
}

const storedMarkdown = `## Errors
**Syntax Error**: missing colon on line 1

## Corrected Code
` + "```python\nif x:\n    pass\n```" + `

## Recommendations
- Review control-flow syntax
`

func newProcessor(analyses *fakeAnalysisRepo, conversations *fakeConversationRepo) *JobProcessor {
	svc := analyzer.New(&fakeProvider{}, analyses, zap.NewNop())
	return NewJobProcessor(svc, analyses, conversations, nil, zap.NewNop())
}

func TestProcessReparseJob(t *testing.T) {
	t.Parallel()

	analyses := newFakeAnalysisRepo()
	userID := uuid.New()
	record := &models.AnalysisRecord{
		ID:          uuid.New(),
		UserID:      userID,
		CodeContent: "if x\n    pass",
		RawResponse: storedMarkdown,
		Language:    "unknown",
	}
	analyses.stored[record.ID] = record

	processor := newProcessor(analyses, &fakeConversationRepo{})
	job := queue.NewJob(queue.JobTypeReparseAnalysis, userID, &record.ID)

	if err := processor.ProcessReparseJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessReparseJob returned error: %v", err)
	}

	if analyses.updated == nil {
		t.Fatal("Expected the record to be rewritten")
	}
	if analyses.updated.TotalErrors != 1 {
		t.Errorf("Expected recomputed total errors 1, got %d", analyses.updated.TotalErrors)
	}
	if analyses.updated.Language != "python" {
		t.Errorf("Expected refreshed language, got %q", analyses.updated.Language)
	}
}

func TestProcessReparseJobRequiresAnalysisID(t *testing.T) {
	t.Parallel()

	processor := newProcessor(newFakeAnalysisRepo(), &fakeConversationRepo{})
	job := queue.NewJob(queue.JobTypeReparseAnalysis, uuid.New(), nil)

	if err := processor.ProcessReparseJob(context.Background(), job); err == nil {
		t.Fatal("Expected error for missing analysis ID")
	}
}

func TestProcessReparseJobOwnershipCheck(t *testing.T) {
	t.Parallel()

	analyses := newFakeAnalysisRepo()
	record := &models.AnalysisRecord{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		RawResponse: storedMarkdown,
	}
	analyses.stored[record.ID] = record

	processor := newProcessor(analyses, &fakeConversationRepo{})
	job := queue.NewJob(queue.JobTypeReparseAnalysis, uuid.New(), &record.ID)

	if err := processor.ProcessReparseJob(context.Background(), job); err == nil {
		t.Fatal("Expected ownership error for foreign analysis")
	}
	if analyses.updated != nil {
		t.Error("Foreign record must not be rewritten")
	}
}

func TestProcessPurgeJob(t *testing.T) {
	t.Parallel()

	analyses := newFakeAnalysisRepo()
	conversations := &fakeConversationRepo{turns: 4}
	userID := uuid.New()
	analyses.stored[uuid.New()] = &models.AnalysisRecord{ID: uuid.New(), UserID: userID}

	processor := newProcessor(analyses, conversations)
	job := queue.NewJob(queue.JobTypePurgeUser, userID, nil)

	if err := processor.ProcessPurgeJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessPurgeJob returned error: %v", err)
	}

	if analyses.deletedFor == nil || *analyses.deletedFor != userID {
		t.Error("Expected analyses to be deleted for the user")
	}
	if conversations.deletedFor == nil || *conversations.deletedFor != userID {
		t.Error("Expected conversations to be deleted for the user")
	}
}
