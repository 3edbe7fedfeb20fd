package analyzer

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
	result *ai.Result
	err    error
}

func (f *fakeProvider) AnalyzeCode(ctx context.Context, code string, language string) (*ai.Result, error) {
	return f.result, f.err
}

func (f *fakeProvider) Chat(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	return "", errors.New("not implemented")
}

type fakeAnalysisRepo struct {
	created   *models.AnalysisRecord
	stored    map[uuid.UUID]*models.AnalysisRecord
	updated   *models.AnalysisRecord
	createErr error
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{stored: make(map[uuid.UUID]*models.AnalysisRecord)}
}

func (f *fakeAnalysisRepo) Create(ctx context.Context, record *models.AnalysisRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = record
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
	return nil, nil
}

func (f *fakeAnalysisRepo) UpdateParsed(ctx context.Context, record *models.AnalysisRecord) error {
	f.updated = record
	return nil
}

func (f *fakeAnalysisRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

const sampleMarkdown = `## Errors
**Syntax Error**: missing colon on line 1

## Corrected Code
` + "```python\nif x:\n    handle()\n```" + `

## Explanation
**Syntax Error**: Control statements need a trailing colon.

## Recommendations
- Review control-flow syntax
`

func TestAnalyzeMarkdownPath(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{result: &ai.Result{RawMarkdown: sampleMarkdown}}
	repo := newFakeAnalysisRepo()
	svc := New(provider, repo, zap.NewNop())

	userID := uuid.New()
	payload, err := svc.Analyze(context.Background(), userID, "if x\n    handle()", "auto")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if repo.created == nil {
		t.Fatal("Expected a record to be stored")
	}
	if repo.created.Language != "python" {
		t.Errorf("Language should come from the code fence, got %q", repo.created.Language)
	}
	if repo.created.TotalErrors != 1 {
		t.Errorf("Expected 1 total error, got %d", repo.created.TotalErrors)
	}
	if repo.created.RawResponse != sampleMarkdown {
		t.Error("Raw response should be stored verbatim")
	}

	if payload.ID != repo.created.ID.String() {
		t.Errorf("Payload ID %q does not match record %q", payload.ID, repo.created.ID)
	}
	if payload.CorrectedCode != "if x:\n    handle()" {
		t.Errorf("Unexpected corrected code %q", payload.CorrectedCode)
	}
	if len(payload.Errors) != 1 || payload.Errors[0].Category != "Syntax Error" {
		t.Errorf("Unexpected payload errors %+v", payload.Errors)
	}
}

func TestAnalyzeProviderFailureStoresFallback(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{err: errors.New("connection refused")}
	repo := newFakeAnalysisRepo()
	svc := New(provider, repo, zap.NewNop())

	payload, err := svc.Analyze(context.Background(), uuid.New(), "print x", "python")
	if err != nil {
		t.Fatalf("Provider failure should degrade, not error: %v", err)
	}

	if repo.created == nil {
		t.Fatal("Fallback analysis should still be stored")
	}
	if len(payload.Errors) != 1 || payload.Errors[0].Category != "API Error" {
		t.Errorf("Expected a single API Error category, got %+v", payload.Errors)
	}
	if payload.CorrectedCode != "print x" {
		t.Errorf("Fallback should echo the code, got %q", payload.CorrectedCode)
	}
}

func TestAnalyzeStructuredPath(t *testing.T) {
	t.Parallel()

	structured := &models.StructuredAnalysis{
		Errors: []models.StructuredCategory{
			{
				Category:    "Syntax Error",
				Count:       1,
				Description: "Missing colon",
				Icon:        "X",
				Details: []models.StructuredDetail{
					{Line: 1, Message: "missing colon", CodeSnippet: "if x", Suggestion: "add a colon"},
				},
			},
		},
		CorrectedCode:   "if x:\n    pass",
		Explanations:    []string{"Control statements need a trailing colon."},
		Recommendations: []string{"Run a linter."},
	}
	provider := &fakeProvider{result: &ai.Result{
		RawMarkdown: ai.RenderMarkdown(structured, "python"),
		Structured:  structured,
	}}
	repo := newFakeAnalysisRepo()
	svc := New(provider, repo, zap.NewNop())

	payload, err := svc.Analyze(context.Background(), uuid.New(), "if x\n    pass", "auto")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if payload.CorrectedCode != "if x:\n    pass" {
		t.Errorf("Structured corrected code should win, got %q", payload.CorrectedCode)
	}
	detail := payload.Errors[0].Details[0]
	if detail.Correction != "add a colon" {
		t.Errorf("Suggestion should become the correction, got %+v", detail)
	}
}

func TestAnalyzeCreateFailure(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{result: &ai.Result{RawMarkdown: sampleMarkdown}}
	repo := newFakeAnalysisRepo()
	repo.createErr = errors.New("db down")
	svc := New(provider, repo, zap.NewNop())

	if _, err := svc.Analyze(context.Background(), uuid.New(), "code", "auto"); err == nil {
		t.Fatal("Expected storage error to propagate")
	}
}

func TestReparse(t *testing.T) {
	t.Parallel()

	repo := newFakeAnalysisRepo()
	record := &models.AnalysisRecord{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		CodeContent: "if x\n    handle()",
		RawResponse: sampleMarkdown,
		Language:    "unknown",
	}
	repo.stored[record.ID] = record

	svc := New(&fakeProvider{}, repo, zap.NewNop())
	if err := svc.Reparse(context.Background(), record.ID); err != nil {
		t.Fatalf("Reparse returned error: %v", err)
	}

	if repo.updated == nil {
		t.Fatal("Expected UpdateParsed to be called")
	}
	if repo.updated.TotalErrors != 1 {
		t.Errorf("Expected recomputed total errors 1, got %d", repo.updated.TotalErrors)
	}
	if repo.updated.Language != "python" {
		t.Errorf("Reparse should refresh the detected language, got %q", repo.updated.Language)
	}
	if repo.updated.CorrectedCode != "if x:\n    handle()" {
		t.Errorf("Unexpected corrected code %q", repo.updated.CorrectedCode)
	}
}

func TestReparseMissingRecord(t *testing.T) {
	t.Parallel()

	svc := New(&fakeProvider{}, newFakeAnalysisRepo(), zap.NewNop())
	if err := svc.Reparse(context.Background(), uuid.New()); err == nil {
		t.Fatal("Expected error for unknown analysis")
	}
}
