package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"reportqa/internal/retry"
	"reportqa/internal/service"
)

// GeminiGenerator generates text with the Gemini API.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float64
}

// NewGeminiGenerator creates a generator backed by Gemini.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, temperature float64) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiGenerator{
		client:      client,
		model:       model,
		temperature: temperature,
	}, nil
}

// Generate returns the model's completion for the system instruction and prompt.
func (g *GeminiGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(g.temperature)),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", retry.ClassifyGenAI(service.GenerationError("generate content", err), err)
	}

	text := resp.Text()
	if text == "" {
		return "", service.GenerationError("generate content", fmt.Errorf("empty completion"))
	}
	return text, nil
}
