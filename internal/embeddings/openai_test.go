package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reportqa/internal/retry"
	"reportqa/internal/service"
)

func TestNewOpenAIEmbedder(t *testing.T) {
	client := NewOpenAIEmbedder("http://localhost:8081", "test-key", "test-model", 768)
	if client == nil {
		t.Fatal("NewOpenAIEmbedder() returned nil")
	}
	if client.ExpectedSize != 768 {
		t.Errorf("ExpectedSize = %v, want 768", client.ExpectedSize)
	}
}

func TestOpenAIEmbedderEmbed(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		serverResp    func(w http.ResponseWriter, r *http.Request)
		wantErr       bool
		wantTransient bool
		wantSize      int
	}{
		{
			name: "successful embedding",
			text: "Hello",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/embeddings" {
					t.Errorf("expected /v1/embeddings, got %s", r.URL.Path)
				}
				resp := embeddingsResponse{
					Data: []embeddingData{{Embedding: make([]float64, 768)}},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantSize: 768,
		},
		{
			name:    "empty input",
			text:    "",
			wantErr: true,
		},
		{
			name: "vector size mismatch",
			text: "Hello",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				resp := embeddingsResponse{
					Data: []embeddingData{{Embedding: make([]float64, 128)}},
				}
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantErr: true,
		},
		{
			name: "server error is transient",
			text: "Hello",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "overloaded", http.StatusServiceUnavailable)
			},
			wantErr:       true,
			wantTransient: true,
		},
		{
			name: "auth error is permanent",
			text: "Hello",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bad key", http.StatusUnauthorized)
			},
			wantErr:       true,
			wantTransient: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := tt.serverResp
			if handler == nil {
				handler = func(w http.ResponseWriter, r *http.Request) {
					t.Error("server should not be called")
				}
			}
			server := httptest.NewServer(http.HandlerFunc(handler))
			defer server.Close()

			client := NewOpenAIEmbedder(server.URL, "test-key", "test-model", 768)
			vector, err := client.Embed(context.Background(), tt.text)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, service.ErrEmbedding) {
					t.Errorf("expected ErrEmbedding kind, got %v", err)
				}
				if got := retry.IsTransient(err); got != tt.wantTransient {
					t.Errorf("IsTransient = %v, want %v", got, tt.wantTransient)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(vector) != tt.wantSize {
				t.Errorf("vector size = %d, want %d", len(vector), tt.wantSize)
			}
		})
	}
}
