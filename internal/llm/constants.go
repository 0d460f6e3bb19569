package llm

// Provider constants
const (
	// DefaultProvider is the default LLM provider
	DefaultProvider = ProviderOpenAI

	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// DefaultOllamaURL is the default URL for a local Ollama server.
const DefaultOllamaURL = "http://localhost:11434"

// DefaultMaxTokens bounds a single completion.
const DefaultMaxTokens = 4096

var defaultModels = map[Provider]string{
	ProviderOpenAI:    "gpt-5-mini",
	ProviderAnthropic: "claude-sonnet-4-5",
	ProviderGemini:    "gemini-2.5-flash",
	ProviderOllama:    "llama3.2",
}

// DefaultModelForProvider returns the model used when none is configured.
func DefaultModelForProvider(p Provider) string {
	return defaultModels[p]
}
