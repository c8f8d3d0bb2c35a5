package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"reportqa/internal/retry"
	"reportqa/internal/service"
)

// OpenAIEmbedder generates dense embeddings through an OpenAI-compatible
// /v1/embeddings endpoint (OpenAI, llama.cpp, vLLM and similar servers).
type OpenAIEmbedder struct {
	BaseURL      string
	APIKey       string
	Model        string
	ExpectedSize int
	client       *http.Client
}

// NewOpenAIEmbedder creates a dense embedder against an OpenAI-compatible API.
// expectedSize is the vector size the model is known to produce; every
// response is validated against it so a misconfigured model fails loudly.
func NewOpenAIEmbedder(baseURL, apiKey, model string, expectedSize int) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Model:        model,
		ExpectedSize: expectedSize,
		client:       http.DefaultClient,
	}
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingData struct {
	Embedding []float64 `json:"embedding"`
}

type embeddingsResponse struct {
	Data []embeddingData `json:"data"`
}

// Embed generates the dense embedding for text.
func (c *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, service.EmbeddingError("dense embed", fmt.Errorf("empty input"))
	}

	url := fmt.Sprintf("%s/v1/embeddings", c.BaseURL)

	body, err := json.Marshal(embeddingsRequest{Model: c.Model, Input: []string{text}})
	if err != nil {
		return nil, service.EmbeddingError("marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, service.EmbeddingError("create request", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// Transport errors (refused connections, timeouts) are retryable.
		return nil, retry.MarkTransient(service.EmbeddingError("send request", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		statusErr := service.EmbeddingError("dense embed", fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw)))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, retry.MarkTransient(statusErr)
		}
		return nil, statusErr
	}

	var parsed embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, service.EmbeddingError("decode response", err)
	}
	if len(parsed.Data) != 1 {
		return nil, service.EmbeddingError("dense embed", fmt.Errorf("expected 1 embedding, got %d", len(parsed.Data)))
	}
	if len(parsed.Data[0].Embedding) != c.ExpectedSize {
		return nil, service.EmbeddingError("dense embed",
			fmt.Errorf("vector size mismatch: expected %d, got %d", c.ExpectedSize, len(parsed.Data[0].Embedding)))
	}

	vector := make([]float32, len(parsed.Data[0].Embedding))
	for i, v := range parsed.Data[0].Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}
