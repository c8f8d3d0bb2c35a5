package workflow

import (
	"fmt"
	"strings"

	"reportqa/internal/vectorstore"
)

const rewriteSystemPrompt = `You rewrite user questions about corporate reports into search queries.
Respond with a single JSON object and nothing else:
{"query": "<rewritten query in English, optimized for search>", "years": [<years mentioned in the question, as integers>]}
Use an empty array for "years" when the question mentions no year.`

const rewriteTemplate = `Rewrite this question for document search:

%s`

const generateSystemPrompt = `You answer questions about corporate reports using only the provided context.
If the context does not contain the information needed, say that you cannot answer from the available reports.
Do not use outside knowledge. Be concise and factual.`

const emptyContextNote = "No relevant documents were found for this question."

func rewritePrompt(question string) string {
	return fmt.Sprintf(rewriteTemplate, question)
}

// generatePrompt renders each chunk under its source document heading so the
// model can attribute statements. Returns the prompt and the distinct source
// names in first-appearance order.
func generatePrompt(question string, chunks []vectorstore.ScoredChunk) (string, []string) {
	var b strings.Builder
	b.WriteString("Context:\n\n")

	sources := make([]string, 0, len(chunks))
	seen := make(map[string]struct{}, len(chunks))
	if len(chunks) == 0 {
		b.WriteString(emptyContextNote)
		b.WriteString("\n")
	}
	for _, chunk := range chunks {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", chunk.Source, chunk.Content)
		if _, ok := seen[chunk.Source]; !ok {
			seen[chunk.Source] = struct{}{}
			sources = append(sources, chunk.Source)
		}
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String(), sources
}
