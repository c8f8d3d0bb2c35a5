package llm

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

// OpenAIGenerator talks to an OpenAI-compatible chat-completions API
// (OpenAI, llama.cpp, vLLM and similar servers).
type OpenAIGenerator struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	client      *http.Client
}

// NewOpenAIGenerator creates a generator against an OpenAI-compatible API.
func NewOpenAIGenerator(baseURL, apiKey, model string, temperature float64) *OpenAIGenerator {
	return &OpenAIGenerator{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		Model:       model,
		Temperature: temperature,
		client:      http.DefaultClient,
	}
}

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatChoice struct {
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

// Generate sends a chat completion request and returns the completion text.
func (c *OpenAIGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	url := fmt.Sprintf("%s/v1/chat/completions", c.BaseURL)

	messages := make([]ChatMessage, 0, 2)
	if system != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: system})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.Model,
		Messages:    messages,
		Temperature: c.Temperature,
	})
	if err != nil {
		return "", service.GenerationError("marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", service.GenerationError("create request", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", retry.MarkTransient(service.GenerationError("send request", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		statusErr := service.GenerationError("chat completion", fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw)))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return "", retry.MarkTransient(statusErr)
		}
		return "", statusErr
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", service.GenerationError("decode response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", service.GenerationError("chat completion", fmt.Errorf("no choices returned"))
	}

	return parsed.Choices[0].Message.Content, nil
}
