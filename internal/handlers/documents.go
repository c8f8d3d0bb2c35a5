package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"reportqa/internal/contextutil"
	"reportqa/internal/storage"
)

// DocumentsHandler lists the indexed report documents.
type DocumentsHandler struct {
	docs storage.DocumentStore
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(docs storage.DocumentStore) *DocumentsHandler {
	return &DocumentsHandler{docs: docs}
}

// DocumentResponse represents one indexed document.
type DocumentResponse struct {
	Name       string `json:"name"`
	Year       int    `json:"year,omitempty"`
	ChunkCount int    `json:"chunk_count"`
	IndexedAt  string `json:"indexed_at"`
}

// DocumentsResponse represents the document listing.
type DocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

// ServeHTTP returns all indexed documents ordered by name.
func (h *DocumentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	docs, err := h.docs.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list documents", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	resp := DocumentsResponse{Documents: make([]DocumentResponse, len(docs))}
	for i, doc := range docs {
		resp.Documents[i] = DocumentResponse{
			Name:       doc.Name,
			Year:       doc.Year,
			ChunkCount: doc.ChunkCount,
			IndexedAt:  doc.IndexedAt.UTC().Format(time.RFC3339),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
