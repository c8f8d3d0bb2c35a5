// Package workflow runs the question-answering pipeline: rewrite the
// question, retrieve supporting chunks, generate an answer from them.
package workflow

import "reportqa/internal/vectorstore"

// State carries a single request through the pipeline stages. Each stage
// reads the fields of earlier stages and fills in its own; nothing is shared
// across requests.
type State struct {
	// Question is the user's original question, untouched.
	Question string

	// RewrittenQuestion is the search-optimized form of the question. Equal
	// to Question when the rewrite stage fell back.
	RewrittenQuestion string

	// Years extracted from the question, empty when none were mentioned.
	Years []int

	// Chunks are the retrieved context chunks in fused rank order.
	Chunks []vectorstore.ScoredChunk

	// Answer is the generated answer text.
	Answer string

	// Sources are the distinct document names whose chunks reached the
	// generation prompt, in first-appearance order.
	Sources []string
}
