package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reportqa/internal/config"
	"reportqa/internal/embeddings"
	"reportqa/internal/http"
	"reportqa/internal/llm"
	"reportqa/internal/rag"
	"reportqa/internal/retrieval"
	"reportqa/internal/retry"
	"reportqa/internal/storage"
	"reportqa/internal/vectorstore"
	"reportqa/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
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
	slog.Info("Database initialized", "path", cfg.DBPath)

	ctx := context.Background()

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.FusionMode)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.EmbeddingVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready",
		"collection", cfg.QdrantCollection, "vector_size", cfg.EmbeddingVectorSize, "fusion_mode", cfg.FusionMode)

	denseEmbedder, err := embeddings.NewDenseEmbedder(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}
	sparseEncoder := embeddings.NewBM25Encoder()

	generator, err := llm.NewGenerator(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}
	slog.Info("LLM client ready", "provider", cfg.LLMProvider, "model", cfg.LLMModel)

	policy := retryPolicy(cfg)
	retriever := retrieval.NewHybridRetriever(
		denseEmbedder,
		sparseEncoder,
		vectorStore,
		cfg.QdrantCollection,
		cfg.TopK,
		cfg.RRFK,
		policy,
	)

	ragEngine := rag.NewEngine(workflow.New(generator, retriever, policy))
	slog.Info("RAG engine initialized")

	router := http.NewRouter(&http.Deps{
		RAGEngine:   ragEngine,
		Documents:   storage.NewDocumentRepo(db),
		VectorStore: vectorStore,
		DB:          db,
		Collection:  cfg.QdrantCollection,
	})

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting API server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown did not complete cleanly", "error", err)
	}
}

// retryPolicy builds the shared collaborator retry policy from configuration.
func retryPolicy(cfg *config.Config) retry.Policy {
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
	return policy
}
