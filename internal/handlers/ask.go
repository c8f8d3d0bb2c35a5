// Package handlers implements the HTTP endpoints of the API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"reportqa/internal/contextutil"
	"reportqa/internal/rag"
	"reportqa/internal/service"
)

// AskHandler handles HTTP requests for questions over the report corpus.
type AskHandler struct {
	ragEngine rag.Engine
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(ragEngine rag.Engine) *AskHandler {
	return &AskHandler{ragEngine: ragEngine}
}

// AskRequest represents the HTTP request payload.
// This mirrors rag.AskRequest but is defined here for HTTP layer separation.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse represents the HTTP response payload.
type AskResponse struct {
	// The generated answer
	Answer string `json:"answer"`

	// Distinct report names the answer drew on
	Sources []string `json:"sources"`

	// Search-optimized form of the question
	RewrittenQuestion string `json:"rewritten_question"`

	// Years detected in the question, if any
	YearsExtracted []int `json:"years_extracted"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP answers a question using the indexed report corpus.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ragResp, err := h.ragEngine.Ask(ctx, rag.AskRequest{Question: req.Question})
	if err != nil {
		h.handleEngineError(w, r, err)
		return
	}

	resp := AskResponse{
		Answer:            ragResp.Answer,
		Sources:           ragResp.Sources,
		RewrittenQuestion: ragResp.RewrittenQuestion,
		YearsExtracted:    ragResp.YearsExtracted,
	}
	if resp.Sources == nil {
		resp.Sources = []string{}
	}
	if resp.YearsExtracted == nil {
		resp.YearsExtracted = []int{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// handleEngineError maps engine errors to HTTP status codes. Response bodies
// stay generic; the full error is only logged.
func (h *AskHandler) handleEngineError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "ask request failed", "error", err)

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		var valErr *service.ValidationError
		if errors.As(err, &valErr) {
			writeError(w, http.StatusBadRequest, valErr.Message)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request")
	case errors.Is(err, service.ErrSearch):
		writeError(w, http.StatusServiceUnavailable, "Vector store unavailable")
	case errors.Is(err, service.ErrEmbedding), errors.Is(err, service.ErrGeneration):
		writeError(w, http.StatusBadGateway, "External service error")
	default:
		writeError(w, http.StatusInternalServerError, "Failed to process question")
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
