// Package llm provides the text-generation collaborators behind the rewrite
// and generate stages.
package llm

import (
	"context"
	"fmt"

	"reportqa/internal/config"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_generator.go -package=mocks reportqa/internal/llm Generator

// Generator produces text from a prompt. Implementations must be safe for
// concurrent use; they are created once at startup and shared across requests.
type Generator interface {
	// Generate returns the model's completion for the given system instruction
	// and user prompt.
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// NewGenerator creates the generation collaborator selected by configuration.
// The choice is fixed for the process lifetime.
func NewGenerator(ctx context.Context, cfg *config.Config) (Generator, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return NewGeminiGenerator(ctx, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTemperature)
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTemperature), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
	}
}
