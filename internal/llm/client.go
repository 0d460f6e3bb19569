// Package llm provides the completion service used by the story workflow,
// built on CloudWeGo Eino chat models.
package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// Provider identifies the LLM provider to use.
type Provider string

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider  Provider
	Model     string
	APIKey    string // Required for OpenAI, Anthropic and Gemini
	BaseURL   string // Ollama server or OpenAI-compatible endpoint
	MaxTokens int
}

// NewChatModel creates a chat model for the configured provider.
func NewChatModel(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModelForProvider(cfg.Provider)
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:   modelName,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return cm, nil

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		cm, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   modelName,
		})
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return cm, nil

	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic API key is required")
		}
		cm, err := claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     modelName,
			MaxTokens: maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("create claude model: %w", err)
		}
		return cm, nil

	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini API key is required")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}
		cm, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  modelName,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini model: %w", err)
		}
		return cm, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: openai, ollama, anthropic, gemini)", cfg.Provider)
	}
}

// ValidateProvider checks if the given provider string is supported.
func ValidateProvider(p string) (Provider, error) {
	switch Provider(p) {
	case ProviderOpenAI, ProviderOllama, ProviderAnthropic, ProviderGemini:
		return Provider(p), nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", p)
	}
}
