// Package http wires the API routes and request middleware.
package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"reportqa/internal/handlers"
	"reportqa/internal/rag"
	"reportqa/internal/storage"
	"reportqa/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	RAGEngine   rag.Engine
	Documents   storage.DocumentStore
	VectorStore vectorstore.VectorStore
	DB          *sql.DB
	Collection  string
}

// NewRouter creates the HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	askHandler := handlers.NewAskHandler(deps.RAGEngine)
	documentsHandler := handlers.NewDocumentsHandler(deps.Documents)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.DB, deps.Collection)

	r.Route("/api/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/ask", askHandler)
		r.Method(http.MethodGet, "/documents", documentsHandler)
	})

	r.Method(http.MethodGet, "/healthz", healthHandler)

	return r
}
