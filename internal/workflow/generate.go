package workflow

import (
	"context"
	"strings"

	"reportqa/internal/contextutil"
	"reportqa/internal/retry"
)

// generate produces the final answer from the retrieved chunks. A failure
// here aborts the request. With no chunks the model is still called, over an
// empty-context note, so it can decline in its own words.
func (w *Workflow) generate(ctx context.Context, state *State) error {
	logger := contextutil.LoggerFromContext(ctx)

	prompt, sources := generatePrompt(state.Question, state.Chunks)

	var answer string
	err := retry.Do(ctx, w.policy, func(ctx context.Context) error {
		var genErr error
		answer, genErr = w.generator.Generate(ctx, generateSystemPrompt, prompt)
		return genErr
	})
	if err != nil {
		logger.ErrorContext(ctx, "answer generation failed", "error", err)
		return err
	}

	state.Answer = strings.TrimSpace(answer)
	state.Sources = sources
	logger.InfoContext(ctx, "answer generated",
		"answer_chars", len(state.Answer), "sources", len(sources))
	return nil
}
