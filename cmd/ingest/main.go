package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"reportqa/internal/config"
	"reportqa/internal/embeddings"
	"reportqa/internal/ingest"
	"reportqa/internal/retry"
	"reportqa/internal/storage"
	"reportqa/internal/vectorstore"
)

func main() {
	var docsDir string
	flag.StringVar(&docsDir, "dir", "", "directory with markdown reports (defaults to DOCS_DIR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if docsDir == "" {
		docsDir = cfg.DocsDir
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.FusionMode)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.EmbeddingVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}

	denseEmbedder, err := embeddings.NewDenseEmbedder(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	policy := retry.DefaultPolicy()
	if cfg.RetryAttempts > 0 {
		policy.Attempts = uint(cfg.RetryAttempts)
	}
	if cfg.RetryBaseDelay > 0 {
		policy.BaseDelay = cfg.RetryBaseDelay
	}
	if cfg.CallTimeout > 0 {
		policy.Timeout = cfg.CallTimeout
	}

	pipeline := ingest.NewPipeline(
		storage.NewDocumentRepo(db),
		denseEmbedder,
		embeddings.NewBM25Encoder(),
		vectorStore,
		cfg.QdrantCollection,
		policy,
	)

	slog.Info("Indexing documents", "dir", docsDir, "collection", cfg.QdrantCollection)
	if err := pipeline.IndexDir(ctx, docsDir); err != nil {
		log.Fatalf("Indexing failed: %v", err)
	}
	slog.Info("Indexing finished")
}
