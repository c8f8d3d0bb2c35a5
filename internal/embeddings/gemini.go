package embeddings

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"reportqa/internal/retry"
	"reportqa/internal/service"
)

// GeminiEmbedder generates dense embeddings with the Gemini API.
type GeminiEmbedder struct {
	client       *genai.Client
	model        string
	expectedSize int
}

// NewGeminiEmbedder creates a dense embedder backed by Gemini.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, expectedSize int) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiEmbedder{
		client:       client,
		model:        model,
		expectedSize: expectedSize,
	}, nil
}

// Embed generates the dense embedding for text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, service.EmbeddingError("dense embed", fmt.Errorf("empty input"))
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType: "SEMANTIC_SIMILARITY",
	})
	if err != nil {
		return nil, retry.ClassifyGenAI(service.EmbeddingError("dense embed", err), err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, service.EmbeddingError("dense embed", fmt.Errorf("no embedding returned"))
	}

	vector := resp.Embeddings[0].Values
	if e.expectedSize > 0 && len(vector) != e.expectedSize {
		return nil, service.EmbeddingError("dense embed",
			fmt.Errorf("vector size mismatch: expected %d, got %d", e.expectedSize, len(vector)))
	}
	return vector, nil
}
