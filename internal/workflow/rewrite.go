package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"reportqa/internal/contextutil"
	"reportqa/internal/retry"
)

// rewriteOutput is the structured result the rewrite prompt asks for.
type rewriteOutput struct {
	Query string `json:"query"`
	Years []int  `json:"years"`
}

// rewrite normalizes the question for search and extracts year mentions.
// Failures are never fatal: the pipeline continues with the original question
// and no year filter.
func (w *Workflow) rewrite(ctx context.Context, state *State) {
	logger := contextutil.LoggerFromContext(ctx)

	state.RewrittenQuestion = state.Question
	state.Years = nil

	var raw string
	err := retry.Do(ctx, w.policy, func(ctx context.Context) error {
		var genErr error
		raw, genErr = w.generator.Generate(ctx, rewriteSystemPrompt, rewritePrompt(state.Question))
		return genErr
	})
	if err != nil {
		logger.WarnContext(ctx, "query rewrite failed, using original question", "error", err)
		return
	}

	out, err := parseRewriteOutput(raw)
	if err != nil {
		logger.WarnContext(ctx, "query rewrite returned malformed output, using original question", "error", err)
		return
	}

	state.RewrittenQuestion = out.Query
	state.Years = out.Years
	logger.InfoContext(ctx, "question rewritten",
		"rewritten", out.Query, "years", out.Years)
}

// parseRewriteOutput decodes the model's JSON, tolerating a markdown code
// fence around it.
func parseRewriteOutput(raw string) (rewriteOutput, error) {
	text := strings.TrimSpace(raw)
	if after, ok := strings.CutPrefix(text, "```json"); ok {
		text = after
	} else if after, ok := strings.CutPrefix(text, "```"); ok {
		text = after
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	text = strings.TrimSpace(text)

	var out rewriteOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return rewriteOutput{}, fmt.Errorf("decode rewrite output: %w", err)
	}
	if strings.TrimSpace(out.Query) == "" {
		return rewriteOutput{}, fmt.Errorf("rewrite output has empty query")
	}
	return out, nil
}
