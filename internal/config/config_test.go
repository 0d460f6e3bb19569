package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/StoryWing/internal/llm"
)

func resetViperForTest(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadLLMConfig_Defaults(t *testing.T) {
	resetViperForTest(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := LoadLLMConfig()
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOpenAI, cfg.Provider)
	assert.Equal(t, llm.DefaultModelForProvider(llm.ProviderOpenAI), cfg.Model)
	assert.Equal(t, "sk-env", cfg.APIKey)
	assert.Empty(t, cfg.BaseURL)
}

func TestLoadLLMConfig_Ollama(t *testing.T) {
	resetViperForTest(t)
	viper.Set("llm.provider", "ollama")

	cfg, err := LoadLLMConfig()
	require.NoError(t, err)
	assert.Equal(t, llm.DefaultOllamaURL, cfg.BaseURL)
	assert.Empty(t, cfg.APIKey)
}

func TestLoadLLMConfig_InvalidProvider(t *testing.T) {
	resetViperForTest(t)
	viper.Set("llm.provider", "skynet")

	_, err := LoadLLMConfig()
	assert.ErrorContains(t, err, "invalid provider")
}

func TestResolveAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.Provider
		viperSet map[string]string
		env      map[string]string
		want     string
	}{
		{
			name:     "per-provider key wins",
			provider: llm.ProviderAnthropic,
			viperSet: map[string]string{"llm.apiKeys.anthropic": "cfg-key"},
			env:      map[string]string{"ANTHROPIC_API_KEY": "env-key"},
			want:     "cfg-key",
		},
		{
			name:     "env var",
			provider: llm.ProviderAnthropic,
			env:      map[string]string{"ANTHROPIC_API_KEY": " env-key "},
			want:     "env-key",
		},
		{
			name:     "env var beats legacy key",
			provider: llm.ProviderOpenAI,
			viperSet: map[string]string{"llm.apiKey": "legacy"},
			env:      map[string]string{"OPENAI_API_KEY": "env-key"},
			want:     "env-key",
		},
		{
			name:     "legacy key for openai",
			provider: llm.ProviderOpenAI,
			viperSet: map[string]string{"llm.apiKey": "legacy"},
			want:     "legacy",
		},
		{
			name:     "legacy key ignored for gemini",
			provider: llm.ProviderGemini,
			viperSet: map[string]string{"llm.apiKey": "legacy"},
			want:     "",
		},
		{
			name:     "gemini falls back to GOOGLE_API_KEY",
			provider: llm.ProviderGemini,
			env:      map[string]string{"GOOGLE_API_KEY": "google"},
			want:     "google",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViperForTest(t)
			for _, k := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.viperSet {
				viper.Set(k, v)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.want, ResolveAPIKey(tt.provider))
		})
	}
}

func TestGetDataPath(t *testing.T) {
	resetViperForTest(t)

	viper.Set("db.path", "/explicit")
	assert.Equal(t, "/explicit", GetDataPath())

	viper.Reset()
	t.Chdir(t.TempDir())
	xdg := t.TempDir()
	t.Setenv("XDG_DATA_HOME", xdg)
	assert.Equal(t, filepath.Join(xdg, "storywing"), GetDataPath())

	t.Setenv("XDG_DATA_HOME", "")
	orig := GetGlobalConfigDir
	t.Cleanup(func() { GetGlobalConfigDir = orig })
	GetGlobalConfigDir = func() (string, error) { return "/home/test/.storywing", nil }
	assert.Equal(t, "/home/test/.storywing/data", GetDataPath())
}

func TestLoadServerConfig(t *testing.T) {
	resetViperForTest(t)
	SetDefaults()

	cfg, err := LoadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultOrigins, cfg.Origins)

	viper.Set("server.port", 70000)
	_, err = LoadServerConfig()
	assert.Error(t, err)
}

func TestMinConfidence(t *testing.T) {
	resetViperForTest(t)
	assert.Equal(t, DefaultMinConfidence, MinConfidence())

	viper.Set("memory.minConfidence", 0.5)
	assert.Equal(t, 0.5, MinConfidence())

	viper.Set("memory.minConfidence", 4)
	assert.Equal(t, DefaultMinConfidence, MinConfidence())
}
