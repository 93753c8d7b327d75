package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobpulse/jobpulse/internal/profile"
)

func validConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Model:      "BAAI/bge-small-en-v1.5",
			Dimensions: 384,
			APIKey:     "embed-key",
		},
		LLM: LLMConfig{
			Model:  "meta-llama/Llama-3.1-8B-Instruct",
			APIKey: "llm-key",
		},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing embedding model", func(c *Config) { c.Embedding.Model = "" }, true},
		{"missing embedding key", func(c *Config) { c.Embedding.APIKey = "" }, true},
		{"missing LLM model", func(c *Config) { c.LLM.Model = "" }, true},
		{"missing LLM key", func(c *Config) { c.LLM.APIKey = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewConfigFromProfile(t *testing.T) {
	p := &profile.Profile{
		EmbeddingModel:      "text-embedding-3-small",
		EmbeddingDimensions: 1536,
		EmbeddingAPIKey:     "embed-key",
		EmbeddingBaseURL:    "https://example.com/v1",
		LLMModel:            "gpt-4o-mini",
		LLMAPIKey:           "llm-key",
		LLMMaxTokens:        512,
	}

	cfg := NewConfigFromProfile(p)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 1536, cfg.Embedding.Dimensions)
	assert.Equal(t, "https://example.com/v1", cfg.Embedding.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 512, cfg.LLM.MaxTokens)
}

func TestServiceConstructorsRequireKey(t *testing.T) {
	_, err := NewEmbeddingService(&EmbeddingConfig{Model: "m"})
	assert.Error(t, err)

	_, err = NewLLMService(&LLMConfig{Model: "m"})
	assert.Error(t, err)
}

func TestMessageHelpers(t *testing.T) {
	sys := SystemPrompt("be helpful")
	assert.Equal(t, "system", sys.Role)

	usr := UserMessage("hello")
	assert.Equal(t, "user", usr.Role)
	assert.Equal(t, "hello", usr.Content)
}
