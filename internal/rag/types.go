package rag

// AskRequest represents a question over the report corpus.
type AskRequest struct {
	// Question is the user's question to answer.
	Question string `json:"question"`
}

// AskResponse represents the answer to an AskRequest.
type AskResponse struct {
	// Answer is the generated answer text.
	Answer string `json:"answer"`
	// Sources are the distinct report names the answer drew on.
	Sources []string `json:"sources"`
	// RewrittenQuestion is the search-optimized form of the question.
	RewrittenQuestion string `json:"rewritten_question"`
	// YearsExtracted are the years detected in the question, if any.
	YearsExtracted []int `json:"years_extracted"`
}
