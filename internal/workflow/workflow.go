package workflow

import (
	"context"

	"reportqa/internal/llm"
	"reportqa/internal/retrieval"
	"reportqa/internal/retry"
)

// Workflow composes the three pipeline stages. It holds no per-request state
// and is safe for concurrent use.
type Workflow struct {
	generator llm.Generator
	retriever retrieval.Retriever
	policy    retry.Policy
}

// New creates a workflow over the given collaborators.
func New(generator llm.Generator, retriever retrieval.Retriever, policy retry.Policy) *Workflow {
	return &Workflow{
		generator: generator,
		retriever: retriever,
		policy:    policy,
	}
}

// Run executes rewrite, retrieve and generate in order. The rewrite stage
// degrades on failure; retrieval and generation failures abort and return
// the partially filled state alongside the error.
func (w *Workflow) Run(ctx context.Context, question string) (State, error) {
	state := State{Question: question}

	w.rewrite(ctx, &state)

	chunks, err := w.retriever.Retrieve(ctx, state.RewrittenQuestion, state.Years)
	if err != nil {
		return state, err
	}
	state.Chunks = chunks

	if err := w.generate(ctx, &state); err != nil {
		return state, err
	}
	return state, nil
}
