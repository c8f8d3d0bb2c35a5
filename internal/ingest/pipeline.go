package ingest

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"reportqa/internal/contextutil"
	"reportqa/internal/embeddings"
	"reportqa/internal/retry"
	"reportqa/internal/storage"
	"reportqa/internal/vectorstore"
)

// pointNamespace makes chunk point IDs deterministic: re-indexing the same
// document/chunk position yields the same Qdrant point ID.
var pointNamespace = uuid.MustParse("8a6e1c6e-2b9f-4f54-9c0d-5a4f8c3d2e10")

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Pipeline indexes report files into the vector store and document catalog.
type Pipeline struct {
	docs        storage.DocumentStore
	dense       embeddings.DenseEmbedder
	sparse      embeddings.SparseEmbedder
	vectorStore vectorstore.VectorStore
	collection  string
	chunker     *Chunker
	policy      retry.Policy
}

// NewPipeline creates an indexing pipeline.
func NewPipeline(
	docs storage.DocumentStore,
	dense embeddings.DenseEmbedder,
	sparse embeddings.SparseEmbedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	policy retry.Policy,
) *Pipeline {
	return &Pipeline{
		docs:        docs,
		dense:       dense,
		sparse:      sparse,
		vectorStore: vectorStore,
		collection:  collection,
		chunker:     NewChunker(),
		policy:      policy,
	}
}

// IndexFile indexes a single report file. Unchanged files (by content hash)
// are skipped. Re-indexing a changed file replaces its previous points.
func (p *Pipeline) IndexFile(ctx context.Context, path string) error {
	logger := contextutil.LoggerFromContext(ctx)
	name := filepath.Base(path)

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	hashHex := fmt.Sprintf("%x", sha256.Sum256(content))

	existing, err := p.docs.GetByName(ctx, name)
	if err != nil && err != storage.ErrNotFound {
		return fmt.Errorf("failed to check existing document: %w", err)
	}
	if existing != nil && existing.Hash == hashHex {
		logger.DebugContext(ctx, "skipping unchanged file", "name", name, "hash", hashHex)
		return nil
	}

	sections := p.chunker.Chunk(content)
	if len(sections) == 0 {
		logger.WarnContext(ctx, "no chunks generated", "name", name)
		return nil
	}

	year := YearFromName(name)

	points := make([]vectorstore.Point, len(sections))
	for i, section := range sections {
		text := section.Text
		if section.Heading != "" {
			text = section.Heading + "\n" + text
		}

		var denseVec []float32
		err := retry.Do(ctx, p.policy, func(ctx context.Context) error {
			var embedErr error
			denseVec, embedErr = p.dense.Embed(ctx, text)
			return embedErr
		})
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d of %s: %w", i, name, err)
		}

		sparseVec, err := p.sparse.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("failed to sparse-encode chunk %d of %s: %w", i, name, err)
		}

		points[i] = vectorstore.Point{
			ID:     PointID(name, i),
			Dense:  denseVec,
			Sparse: sparseVec,
			Meta: map[string]any{
				"content":     text,
				"source":      name,
				"year":        year,
				"chunk_index": i,
			},
		}
	}

	// Drop stale points left over when the document shrank.
	if existing != nil && existing.ChunkCount > len(sections) {
		var stale []string
		for i := len(sections); i < existing.ChunkCount; i++ {
			stale = append(stale, PointID(name, i))
		}
		if err := p.vectorStore.Delete(ctx, p.collection, stale); err != nil {
			logger.WarnContext(ctx, "failed to delete stale points", "name", name, "error", err)
		}
	}

	if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}

	doc := &storage.Document{
		Name:       name,
		Year:       year,
		ChunkCount: len(sections),
		Hash:       hashHex,
	}
	if err := p.docs.Upsert(ctx, doc); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	logger.InfoContext(ctx, "indexed document", "name", name, "chunks", len(sections), "year", year)
	return nil
}

// IndexDir indexes every markdown file under dir. Per-file errors are logged
// and counted but do not stop the run.
func (p *Pipeline) IndexDir(ctx context.Context, dir string) error {
	logger := contextutil.LoggerFromContext(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read documents directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)

	logger.InfoContext(ctx, "starting indexing", "total_files", len(files))

	var successCount, errorCount int
	for _, file := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := p.IndexFile(ctx, file); err != nil {
			errorCount++
			logger.ErrorContext(ctx, "failed to index file", "file", file, "error", err)
			continue
		}
		successCount++
	}

	logger.InfoContext(ctx, "indexing completed",
		"total_files", len(files), "success", successCount, "errors", errorCount)

	if errorCount > 0 {
		return fmt.Errorf("indexing completed with %d errors", errorCount)
	}
	return nil
}

// PointID returns the deterministic vector store ID for a chunk position.
func PointID(name string, index int) string {
	return uuid.NewSHA1(pointNamespace, []byte(name+"#"+strconv.Itoa(index))).String()
}

// YearFromName extracts a four-digit year from a file name, 0 when absent.
func YearFromName(name string) int {
	match := yearPattern.FindString(name)
	if match == "" {
		return 0
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return year
}
