package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks reportqa/internal/vectorstore VectorStore

import (
	"context"

	"reportqa/internal/embeddings"
)

// Chunk is a retrievable unit of ingested document text plus its metadata.
type Chunk struct {
	ID      string
	Content string
	Source  string
	Year    int
}

// ScoredChunk is a chunk with its retrieval score.
type ScoredChunk struct {
	Chunk
	Score float32
}

// Point represents a chunk with both its vectors, ready for upsert.
type Point struct {
	ID     string
	Dense  []float32
	Sparse embeddings.SparseVector
	Meta   map[string]any
}

// HybridResult carries the outcome of a hybrid search. Backends that fuse
// rankings server-side populate Fused; backends that return one ranked list
// per modality populate Dense and Sparse and leave Fused nil. The retriever
// normalizes both shapes.
type HybridResult struct {
	Fused  []ScoredChunk
	Dense  []ScoredChunk
	Sparse []ScoredChunk
}

// PreFused reports whether the backend already fused the rankings.
func (r HybridResult) PreFused() bool {
	return r.Fused != nil
}

// VectorStore defines the interface for hybrid vector storage operations.
type VectorStore interface {
	// EnsureCollection creates the collection with dense and sparse vector
	// spaces if it does not exist, and validates the dense size otherwise.
	EnsureCollection(ctx context.Context, collection string, denseSize int) error

	// CollectionExists checks if a collection exists.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// HybridSearch runs a dense+sparse search for the query vectors. A
	// non-empty years filter restricts candidates to chunks whose year
	// metadata matches any of the given years.
	HybridSearch(ctx context.Context, collection string, dense []float32, sparse embeddings.SparseVector, k int, years []int) (HybridResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error
}
