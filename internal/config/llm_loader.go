package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/josephgoksu/StoryWing/internal/llm"
)

// LoadLLMConfig loads LLM configuration from Viper and environment variables.
// Precedence: explicit Viper config > environment variables > defaults.
// A missing API key is not an error here; the chat model factory reports it
// for providers that need one.
func LoadLLMConfig() (llm.Config, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		provider = string(llm.DefaultProvider)
	}

	llmProvider, err := llm.ValidateProvider(provider)
	if err != nil {
		return llm.Config{}, fmt.Errorf("invalid provider: %w", err)
	}

	model := viper.GetString("llm.model")
	if model == "" {
		model = llm.DefaultModelForProvider(llmProvider)
	}

	baseURL := viper.GetString("llm.baseURL")
	if baseURL == "" && llmProvider == llm.ProviderOllama {
		baseURL = llm.DefaultOllamaURL
	}

	return llm.Config{
		Provider:  llmProvider,
		Model:     model,
		APIKey:    ResolveAPIKey(llmProvider),
		BaseURL:   baseURL,
		MaxTokens: viper.GetInt("llm.maxTokens"),
	}, nil
}

// ResolveAPIKey picks the key for provider: llm.apiKeys.<provider>, then
// the provider's env var, then llm.apiKey for OpenAI only so an OpenAI key
// is never sent elsewhere.
func ResolveAPIKey(provider llm.Provider) string {
	if key := configKey("llm.apiKeys." + string(provider)); key != "" {
		return key
	}
	if key := providerEnvKey(provider); key != "" {
		return key
	}
	if provider == llm.ProviderOpenAI {
		return configKey("llm.apiKey")
	}
	return ""
}

func configKey(path string) string {
	if !viper.IsSet(path) {
		return ""
	}
	return strings.TrimSpace(viper.GetString(path))
}

func providerEnvKey(provider llm.Provider) string {
	switch provider {
	case llm.ProviderOpenAI:
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	case llm.ProviderAnthropic:
		return strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	case llm.ProviderGemini:
		key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		if key == "" {
			key = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
		}
		return key
	default:
		return ""
	}
}
