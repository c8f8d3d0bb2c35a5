package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"reportqa/internal/config"
	"reportqa/internal/contextutil"
	"reportqa/internal/embeddings"
	"reportqa/internal/retry"
	"reportqa/internal/service"
)

// Named vector spaces within the collection. Every point carries both.
const (
	denseVectorName  = "dense"
	sparseVectorName = "sparse"
)

// Payload keys written at ingestion time and read back at query time.
const (
	payloadContent    = "content"
	payloadSource     = "source"
	payloadYear       = "year"
	payloadChunkIndex = "chunk_index"
)

// prefetchMultiplier widens the per-modality candidate pool before fusion.
const prefetchMultiplier = 2

// QdrantStore implements VectorStore using Qdrant with named dense and sparse
// vectors. Depending on fusionMode it either asks Qdrant to fuse the two
// rankings server-side (native RRF) or returns both ranked lists for the
// retriever to fuse in-process.
type QdrantStore struct {
	client     *qdrant.Client
	fusionMode string
}

// NewQdrantStore creates a new Qdrant vector store client.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) is derived from the HTTP port.
func NewQdrantStore(urlStr, fusionMode string) (*QdrantStore, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334 // Default gRPC port
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	if fusionMode == "" {
		fusionMode = config.FusionNative
	}

	return &QdrantStore{
		client:     client,
		fusionMode: fusionMode,
	}, nil
}

// EnsureCollection creates the collection with named dense and sparse vector
// spaces if it does not exist, and validates the dense size otherwise.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string, denseSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", collection, "dense_size", denseSize)
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
				denseVectorName: {
					Size:     uint64(denseSize),
					Distance: qdrant.Distance_Cosine,
				},
			}),
			SparseVectorsConfig: qdrant.NewSparseVectorsConfig(map[string]*qdrant.SparseVectorParams{
				sparseVectorName: {},
			}),
		})
		if err != nil {
			return classifyQdrantErr(service.SearchError("create collection", err), err)
		}
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return classifyQdrantErr(service.SearchError("get collection info", err), err)
	}
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParamsMap()
	if params == nil {
		return service.SearchError("validate collection", fmt.Errorf("collection %s has no named vectors", collection))
	}
	denseParams, ok := params.GetMap()[denseVectorName]
	if !ok {
		return service.SearchError("validate collection", fmt.Errorf("collection %s is missing the %q vector space", collection, denseVectorName))
	}
	if denseParams.GetSize() != uint64(denseSize) {
		return service.SearchError("validate collection",
			fmt.Errorf("dense vector size mismatch: collection has %d, config expects %d", denseParams.GetSize(), denseSize))
	}
	return nil
}

// CollectionExists checks if a collection exists.
func (s *QdrantStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return false, classifyQdrantErr(service.SearchError("check collection existence", err), err)
	}
	return exists, nil
}

// Upsert inserts or updates points in the collection.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, point := range points {
		qdrantPoint := &qdrant.PointStruct{
			Id: qdrant.NewID(point.ID),
			Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
				denseVectorName:  qdrant.NewVectorDense(point.Dense),
				sparseVectorName: qdrant.NewVectorSparse(point.Sparse.Indices, point.Sparse.Values),
			}),
		}
		if len(point.Meta) > 0 {
			qdrantPoint.Payload = qdrant.NewValueMap(point.Meta)
		}
		qdrantPoints = append(qdrantPoints, qdrantPoint)
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         qdrantPoints,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
		return classifyQdrantErr(service.SearchError("upsert points", err), err)
	}

	logger.InfoContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// HybridSearch runs a dense+sparse search with an optional year filter.
func (s *QdrantStore) HybridSearch(ctx context.Context, collection string, dense []float32, sparse embeddings.SparseVector, k int, years []int) (HybridResult, error) {
	if k <= 0 {
		return HybridResult{}, service.SearchError("hybrid search", fmt.Errorf("k must be greater than 0"))
	}

	filter := yearFilter(years)

	if s.fusionMode == config.FusionClient {
		return s.searchSeparate(ctx, collection, dense, sparse, k, filter)
	}
	return s.searchNative(ctx, collection, dense, sparse, k, filter)
}

// searchNative asks Qdrant to fuse dense and sparse rankings server-side with
// its built-in RRF, mirroring a prefetch-per-modality query.
func (s *QdrantStore) searchNative(ctx context.Context, collection string, dense []float32, sparse embeddings.SparseVector, k int, filter *qdrant.Filter) (HybridResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	prefetchLimit := uint64(k * prefetchMultiplier)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Prefetch: []*qdrant.PrefetchQuery{
			{
				Query:  qdrant.NewQueryDense(dense),
				Using:  qdrant.PtrOf(denseVectorName),
				Filter: filter,
				Limit:  qdrant.PtrOf(prefetchLimit),
			},
			{
				Query:  qdrant.NewQuerySparse(sparse.Indices, sparse.Values),
				Using:  qdrant.PtrOf(sparseVectorName),
				Filter: filter,
				Limit:  qdrant.PtrOf(prefetchLimit),
			},
		},
		Query:       qdrant.NewQueryFusion(qdrant.Fusion_RRF),
		Limit:       qdrant.PtrOf(uint64(k)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "native hybrid search failed", "collection", collection, "error", err)
		return HybridResult{}, classifyQdrantErr(service.SearchError("hybrid search", err), err)
	}

	result := HybridResult{Fused: scoredChunks(points)}
	logger.DebugContext(ctx, "native hybrid search completed", "collection", collection, "results", len(result.Fused))
	return result, nil
}

// searchSeparate issues one query per modality and returns both ranked lists
// for in-process fusion.
func (s *QdrantStore) searchSeparate(ctx context.Context, collection string, dense []float32, sparse embeddings.SparseVector, k int, filter *qdrant.Filter) (HybridResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	limit := uint64(k * prefetchMultiplier)

	densePoints, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQueryDense(dense),
		Using:          qdrant.PtrOf(denseVectorName),
		Filter:         filter,
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "dense search failed", "collection", collection, "error", err)
		return HybridResult{}, classifyQdrantErr(service.SearchError("dense search", err), err)
	}

	sparsePoints, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuerySparse(sparse.Indices, sparse.Values),
		Using:          qdrant.PtrOf(sparseVectorName),
		Filter:         filter,
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "sparse search failed", "collection", collection, "error", err)
		return HybridResult{}, classifyQdrantErr(service.SearchError("sparse search", err), err)
	}

	result := HybridResult{
		Dense:  scoredChunks(densePoints),
		Sparse: scoredChunks(sparsePoints),
	}
	logger.DebugContext(ctx, "separate hybrid search completed",
		"collection", collection, "dense_results", len(result.Dense), "sparse_results", len(result.Sparse))
	return result, nil
}

// Delete removes points by their IDs.
func (s *QdrantStore) Delete(ctx context.Context, collection string, ids []string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(ids) == 0 {
		return nil
	}

	qdrantIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		qdrantIDs = append(qdrantIDs, qdrant.NewID(id))
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelector(qdrantIDs...),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete points", "collection", collection, "count", len(ids), "error", err)
		return classifyQdrantErr(service.SearchError("delete points", err), err)
	}

	logger.InfoContext(ctx, "deleted points", "collection", collection, "count", len(ids))
	return nil
}

// yearFilter builds a match-any filter over the year payload field.
// Returns nil when no years are given so no filter is applied.
func yearFilter(years []int) *qdrant.Filter {
	if len(years) == 0 {
		return nil
	}
	conditions := make([]*qdrant.Condition, 0, len(years))
	for _, year := range years {
		conditions = append(conditions, qdrant.NewMatchInt(payloadYear, int64(year)))
	}
	return &qdrant.Filter{Should: conditions}
}

// scoredChunks converts scored points into chunks, reading the payload fields
// written at ingestion time.
func scoredChunks(points []*qdrant.ScoredPoint) []ScoredChunk {
	chunks := make([]ScoredChunk, 0, len(points))
	for _, point := range points {
		chunk := ScoredChunk{Score: point.GetScore()}
		chunk.ID = point.GetId().GetUuid()
		payload := point.GetPayload()
		if v, ok := payload[payloadContent]; ok {
			chunk.Content = v.GetStringValue()
		}
		if v, ok := payload[payloadSource]; ok {
			chunk.Source = v.GetStringValue()
		}
		if v, ok := payload[payloadYear]; ok {
			chunk.Year = int(v.GetIntegerValue())
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// classifyQdrantErr marks gRPC-level availability failures as transient so
// the retry policy picks them up.
func classifyQdrantErr(wrapped, cause error) error {
	switch status.Code(cause) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return retry.MarkTransient(wrapped)
	}
	return wrapped
}
