package ai

import (
	"context"

	"github.com/abcode/codelens/internal/models"
)

// Provider is the interface for AI code-analysis providers
type Provider interface {
	// AnalyzeCode analyzes source code and returns the upstream result in
	// both raw markdown form and, when the provider produced parseable JSON,
	// structured form
	AnalyzeCode(ctx context.Context, code string, language string) (*Result, error)

	// Chat handles a programming-assistance conversation and returns the
	// assistant's reply
	Chat(ctx context.Context, messages []ChatMessage) (string, error)
}

// Result is the outcome of one AnalyzeCode call. RawMarkdown is always set
// and is what gets persisted; Structured is nil when the upstream response
// could not be decoded as JSON.
type Result struct {
	RawMarkdown string
	Structured  *models.StructuredAnalysis
}

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ProviderFactory creates an AI provider from a flat config map
type ProviderFactory func(config map[string]string) (Provider, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (Provider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
