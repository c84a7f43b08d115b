package config

import (
	"os"
	"sync"
)

type LLMConfig struct {
	Provider string // "openrouter" or "gemini"
}

var (
	llmConfig *LLMConfig
	llmOnce   sync.Once
)

func LoadLLMConfig() *LLMConfig {
	llmOnce.Do(func() {
		provider := os.Getenv("LLM_PROVIDER")
		if provider == "" {
			provider = "openrouter"
		}
		llmConfig = &LLMConfig{Provider: provider}
	})
	return llmConfig
}
