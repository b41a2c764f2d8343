package llm

import (
	"context"
	"log"

	"github.com/xiaot623/gogo/datachat/internal/config"
)

// NewLLMClient creates an LLM client for the configured provider. Mock mode
// (LLM_MODE=MOCK or LLM_PROVIDER=mock) always wins.
func NewLLMClient(ctx context.Context, cfg *config.Config) (LLMClient, error) {
	if cfg.MockMode() {
		log.Println("LLM mock mode detected, using mock LLM client")
		return NewMockClient(), nil
	}

	switch cfg.LLMProvider {
	case "gemini":
		return NewGeminiClient(ctx, cfg.LLMAPIKey, cfg.LLMTimeout)
	default:
		return NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout), nil
	}
}
