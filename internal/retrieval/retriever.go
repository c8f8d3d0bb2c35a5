// Package retrieval implements hybrid dense+sparse retrieval with rank fusion.
package retrieval

import (
	"context"
	"sync"

	"reportqa/internal/contextutil"
	"reportqa/internal/embeddings"
	"reportqa/internal/fusion"
	"reportqa/internal/retry"
	"reportqa/internal/service"
	"reportqa/internal/vectorstore"
)

// DefaultTopK is the number of chunks returned when none is configured.
const DefaultTopK = 5

// Retriever finds the document chunks most relevant to a query.
type Retriever interface {
	// Retrieve returns up to top-K chunks for the query, restricted to the
	// given years when the slice is non-empty.
	Retrieve(ctx context.Context, query string, years []int) ([]vectorstore.ScoredChunk, error)
}

// HybridRetriever embeds the query in both modalities concurrently, runs a
// hybrid vector search and fuses the rankings. When the backend fuses
// server-side the result is used as-is; otherwise the two ranked lists are
// merged in-process with RRF.
type HybridRetriever struct {
	dense      embeddings.DenseEmbedder
	sparse     embeddings.SparseEmbedder
	store      vectorstore.VectorStore
	collection string
	topK       int
	rrfK       int
	policy     retry.Policy
}

// NewHybridRetriever creates a retriever. topK and rrfK fall back to their
// defaults when non-positive.
func NewHybridRetriever(
	dense embeddings.DenseEmbedder,
	sparse embeddings.SparseEmbedder,
	store vectorstore.VectorStore,
	collection string,
	topK int,
	rrfK int,
	policy retry.Policy,
) *HybridRetriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if rrfK <= 0 {
		rrfK = fusion.DefaultK
	}
	return &HybridRetriever{
		dense:      dense,
		sparse:     sparse,
		store:      store,
		collection: collection,
		topK:       topK,
		rrfK:       rrfK,
		policy:     policy,
	}
}

// Retrieve returns the top-K chunks for the query.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, years []int) ([]vectorstore.ScoredChunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	denseVec, sparseVec, err := r.embedQuery(ctx, query)
	if err != nil {
		logger.ErrorContext(ctx, "query embedding failed", "error", err)
		return nil, err
	}

	var result vectorstore.HybridResult
	err = retry.Do(ctx, r.policy, func(ctx context.Context) error {
		var searchErr error
		result, searchErr = r.store.HybridSearch(ctx, r.collection, denseVec, sparseVec, r.topK, years)
		return searchErr
	})
	if err != nil {
		logger.ErrorContext(ctx, "hybrid search failed", "error", err)
		return nil, err
	}

	chunks, err := r.fuse(result)
	if err != nil {
		return nil, service.SearchError("rank fusion", err)
	}

	if len(chunks) > r.topK {
		chunks = chunks[:r.topK]
	}

	logger.InfoContext(ctx, "retrieval completed",
		"results", len(chunks), "top_k", r.topK, "years", years, "pre_fused", result.PreFused())
	return chunks, nil
}

// embedQuery computes the dense and sparse query embeddings concurrently.
// Both calls run under the retry policy; either failure fails the join.
func (r *HybridRetriever) embedQuery(ctx context.Context, query string) ([]float32, embeddings.SparseVector, error) {
	var (
		wg        sync.WaitGroup
		denseVec  []float32
		sparseVec embeddings.SparseVector
		denseErr  error
		sparseErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		denseErr = retry.Do(ctx, r.policy, func(ctx context.Context) error {
			var err error
			denseVec, err = r.dense.Embed(ctx, query)
			return err
		})
	}()
	go func() {
		defer wg.Done()
		sparseErr = retry.Do(ctx, r.policy, func(ctx context.Context) error {
			var err error
			sparseVec, err = r.sparse.Embed(ctx, query)
			return err
		})
	}()
	wg.Wait()

	if denseErr != nil {
		return nil, embeddings.SparseVector{}, denseErr
	}
	if sparseErr != nil {
		return nil, embeddings.SparseVector{}, sparseErr
	}
	return denseVec, sparseVec, nil
}

// fuse normalizes both collaborator shapes to one ranked chunk list.
func (r *HybridRetriever) fuse(result vectorstore.HybridResult) ([]vectorstore.ScoredChunk, error) {
	if result.PreFused() {
		return result.Fused, nil
	}

	denseIDs := make([]string, len(result.Dense))
	byID := make(map[string]vectorstore.Chunk, len(result.Dense)+len(result.Sparse))
	for i, chunk := range result.Dense {
		denseIDs[i] = chunk.ID
		byID[chunk.ID] = chunk.Chunk
	}
	sparseIDs := make([]string, len(result.Sparse))
	for i, chunk := range result.Sparse {
		sparseIDs[i] = chunk.ID
		if _, ok := byID[chunk.ID]; !ok {
			byID[chunk.ID] = chunk.Chunk
		}
	}

	fused, err := fusion.Fuse(denseIDs, sparseIDs, r.rrfK)
	if err != nil {
		return nil, err
	}

	chunks := make([]vectorstore.ScoredChunk, 0, len(fused))
	for _, f := range fused {
		chunks = append(chunks, vectorstore.ScoredChunk{
			Chunk: byID[f.ID],
			Score: float32(f.Score),
		})
	}
	return chunks, nil
}
