// Package embeddings provides the dense and sparse query/document embedding
// collaborators used by retrieval and ingestion.
package embeddings

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks reportqa/internal/embeddings DenseEmbedder,SparseEmbedder

import (
	"context"
	"fmt"

	"reportqa/internal/config"
)

// SparseVector is a weighted mapping from token indices to scores, the shape
// Qdrant expects for sparse (keyword-style) vectors. Indices and Values are
// parallel slices.
type SparseVector struct {
	Indices []uint32
	Values  []float32
}

// IsZero reports whether the vector has no entries.
func (v SparseVector) IsZero() bool {
	return len(v.Indices) == 0
}

// DenseEmbedder produces fixed-length semantic vectors.
type DenseEmbedder interface {
	// Embed returns the dense embedding for text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SparseEmbedder produces sparse keyword-weighted vectors.
type SparseEmbedder interface {
	// Embed returns the sparse embedding for text.
	Embed(ctx context.Context, text string) (SparseVector, error)
}

// NewDenseEmbedder creates the dense embedding collaborator selected by
// configuration. The choice is fixed for the process lifetime.
func NewDenseEmbedder(ctx context.Context, cfg *config.Config) (DenseEmbedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderGemini:
		return NewGeminiEmbedder(ctx, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingVectorSize)
	case config.ProviderOpenAI:
		return NewOpenAIEmbedder(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingVectorSize), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.EmbeddingProvider)
	}
}
