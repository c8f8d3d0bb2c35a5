// Package rag exposes question answering over the indexed report corpus.
package rag

import (
	"context"
	"strings"

	"reportqa/internal/contextutil"
	"reportqa/internal/service"
	"reportqa/internal/workflow"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks reportqa/internal/rag Engine

// Engine provides RAG (Retrieval-Augmented Generation) functionality.
type Engine interface {
	// Ask answers a question by retrieving relevant report chunks and
	// generating an answer from them.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
}

// ragEngine implements the Engine interface over the pipeline workflow.
type ragEngine struct {
	workflow *workflow.Workflow
}

// NewEngine creates a new RAG engine.
func NewEngine(wf *workflow.Workflow) Engine {
	return &ragEngine{workflow: wf}
}

// Ask answers a question over the report corpus.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return AskResponse{}, &service.ValidationError{Field: "question", Message: "question must not be empty"}
	}

	logger.InfoContext(ctx, "question received", "question", question)

	state, err := e.workflow.Run(ctx, question)
	if err != nil {
		return AskResponse{}, err
	}

	return AskResponse{
		Answer:            state.Answer,
		Sources:           state.Sources,
		RewrittenQuestion: state.RewrittenQuestion,
		YearsExtracted:    state.Years,
	}, nil
}
