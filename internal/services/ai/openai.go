package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/abcode/codelens/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultModel is the default model to use
	DefaultModel = "llama-3.3-70b-versatile"
	// DefaultBaseURL is the default OpenAI-compatible API base URL
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 60 * time.Second

	// AnalysisMaxTokens bounds the analysis completion
	AnalysisMaxTokens = 4096
	// ChatMaxTokens bounds the chat completion
	ChatMaxTokens = 2048
	// AnalysisTemperature keeps analysis output consistent across runs
	AnalysisTemperature = 0.3
	// ChatTemperature allows more conversational variety
	ChatTemperature = 0.7

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

const analysisSystemPrompt = `You are an expert code analyzer. Analyze the provided code and identify ALL errors, issues, and areas for improvement.

Your response MUST be a valid JSON object with this EXACT structure:

{
  "errors": [
    {
      "category": "Error category name (e.g., 'Syntax Error', 'Logic Error', 'Indentation Error')",
      "count": number_of_occurrences,
      "description": "Brief description of this error category",
      "icon": "Use 'X' for critical errors, '!' for warnings, '?' for suggestions",
      "details": [
        {
          "line": line_number,
          "message": "Specific error message",
          "codeSnippet": "The problematic code",
          "suggestion": "How to fix this specific instance"
        }
      ]
    }
  ],
  "corrected_code": "Full corrected version of the code",
  "explanations": [
    "Explanation for first error category",
    "Explanation for second error category"
  ],
  "recommendations": [
    "General recommendation 1",
    "General recommendation 2"
  ]
}

IMPORTANT RULES:
1. Identify ALL types of errors: syntax errors, logic errors, indentation issues, missing colons, type mismatches, undefined variables, etc.
2. For EACH error instance, provide the exact line number, code snippet, and fix suggestion
3. Group similar errors into categories with accurate counts
4. Provide corrected code that fixes ALL identified issues
5. Explanations should be educational and beginner-friendly
6. Recommendations should focus on best practices and code quality improvements
7. Return ONLY valid JSON, no additional text or markdown
8. If the code has no errors, still provide an empty errors array and suggestions for improvement`

const chatSystemPrompt = `You are an expert programming assistant specialized in helping developers with code analysis, debugging, and software development.

Your expertise includes:
- Explaining code errors and bugs in detail
- Suggesting code improvements and best practices
- Helping with algorithm design and optimization
- Providing guidance on programming concepts across multiple languages (Python, JavaScript, Java, C++, etc.)
- Debugging assistance and error resolution
- Code refactoring suggestions
- Explaining design patterns and architectural decisions

Guidelines:
1. Always provide clear, concise, and educational explanations
2. When discussing code, use proper formatting with code blocks
3. Break down complex concepts into understandable parts
4. Provide practical examples when relevant
5. Be encouraging and supportive to learners
6. If you don't know something, be honest about it
7. Focus on helping users understand the "why" behind solutions, not just the "how"

You have access to the conversation history, so you can reference previous messages and maintain context throughout the discussion.`

// OpenAIProvider implements the Provider interface against any
// OpenAI-compatible chat-completions endpoint (OpenAI, Groq, and others)
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new provider with default base URL and no logger
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// AnalyzeCode sends code to the model and returns the analysis. When the
// response decodes as structured JSON, both forms are returned; otherwise
// the raw content is passed through for markdown parsing downstream.
func (p *OpenAIProvider) AnalyzeCode(ctx context.Context, code string, language string) (*Result, error) {
	prompt := fmt.Sprintf("Analyze this %s code:\n\n%s", language, code)
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(analysisSystemPrompt),
		openai.UserMessage(prompt),
	}
	req := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(p.model),
		Messages:    messages,
		MaxTokens:   openai.Int(AnalysisMaxTokens),
		Temperature: openai.Float(AnalysisTemperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	content, err := p.complete(ctx, "analyze_code", req, len(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to analyze code: %w", err)
	}

	structured, decodeErr := decodeStructured(content)
	if decodeErr != nil {
		// Not the JSON we asked for; let the markdown parser have a go at
		// the raw content instead of failing the whole request.
		if p.logger != nil {
			p.logger.Warn("structured_decode_failed",
				zap.String("model", p.model),
				zap.Error(decodeErr),
			)
		}
		return &Result{RawMarkdown: content}, nil
	}

	return &Result{
		RawMarkdown: RenderMarkdown(structured, language),
		Structured:  structured,
	}, nil
}

// Chat handles a programming-assistance conversation
func (p *OpenAIProvider) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	openAIMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	openAIMessages = append(openAIMessages, openai.SystemMessage(chatSystemPrompt))

	for _, msg := range messages {
		switch msg.Role {
		case "assistant":
			openAIMessages = append(openAIMessages, openai.AssistantMessage(msg.Content))
		default:
			openAIMessages = append(openAIMessages, openai.UserMessage(msg.Content))
		}
	}

	req := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(p.model),
		Messages:    openAIMessages,
		MaxTokens:   openai.Int(ChatMaxTokens),
		Temperature: openai.Float(ChatTemperature),
	}

	content, err := p.complete(ctx, "chat", req, len(messages))
	if err != nil {
		return "", fmt.Errorf("failed to chat: %w", err)
	}

	return content, nil
}

// complete sends one chat-completion request and returns the first choice
func (p *OpenAIProvider) complete(ctx context.Context, operation string, req openai.ChatCompletionNewParams, promptSize int) (string, error) {
	requestID := ExtractRequestID(ctx)
	userID := ExtractUserID(ctx)

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("prompt_size", promptSize),
			zap.String("user_id", userID),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)

	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", operation),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("user_id", userID),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", apiErr
		}
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}
	content := resp.Choices[0].Message.Content

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("user_id", userID),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return content, nil
}

// decodeStructured decodes model output into the structured analysis shape.
// Models sometimes wrap the JSON in prose or fences, so a brace-delimited
// substring is retried before giving up.
func decodeStructured(content string) (*models.StructuredAnalysis, error) {
	var analysis models.StructuredAnalysis
	raw := content
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		start := bytes.Index([]byte(raw), []byte("{"))
		end := bytes.LastIndex([]byte(raw), []byte("}"))
		if start == -1 || end == -1 || end <= start {
			return nil, fmt.Errorf("failed to parse analysis response: %w", err)
		}
		raw = raw[start : end+1]
		if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
			return nil, fmt.Errorf("failed to parse analysis response: %w", err)
		}
	}
	return &analysis, nil
}

// RegisterOpenAI registers the OpenAI-compatible provider with the registry
func RegisterOpenAI(registry *ProviderRegistry) {
	registry.Register("openai", func(config map[string]string) (Provider, error) {
		apiKey, ok := config["api_key"]
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("openai api_key is required")
		}

		model := config["model"]
		baseURL := config["base_url"]

		return NewOpenAIProviderWithLogger(apiKey, baseURL, model, nil, false), nil
	})
}
