package embeddings

import (
	"context"
	"hash/fnv"
	"sort"
	"strings"
	"unicode"

	"reportqa/internal/service"
)

// BM25 parameters matching common sparse-encoder defaults.
const (
	bm25K1         = 1.2
	bm25B          = 0.75
	bm25AvgDocLen  = 256.0
	minSparseToken = 2
)

var sparseStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "was": {}, "were": {}, "with": {}, "what": {}, "which": {},
	"who": {}, "how": {}, "this": {}, "that": {}, "these": {}, "those": {},
}

// BM25Encoder is a deterministic in-process sparse embedder. Tokens are
// lowercased, stopword-filtered and hashed to indices with FNV-1a; values are
// BM25 term-frequency weights with document-length normalization. Ingestion
// and query paths share one encoder so the token-to-index mapping matches.
type BM25Encoder struct{}

// NewBM25Encoder creates a sparse encoder.
func NewBM25Encoder() *BM25Encoder {
	return &BM25Encoder{}
}

// Embed returns the sparse embedding for text. The result is sorted by index
// so identical inputs produce identical vectors.
func (e *BM25Encoder) Embed(ctx context.Context, text string) (SparseVector, error) {
	if err := ctx.Err(); err != nil {
		return SparseVector{}, service.EmbeddingError("sparse embed", err)
	}

	tokens := sparseTokens(text)
	if len(tokens) == 0 {
		return SparseVector{}, nil
	}

	freq := make(map[uint32]float32, len(tokens))
	for _, token := range tokens {
		freq[tokenIndex(token)]++
	}

	docLen := float32(len(tokens))
	norm := float32(bm25K1) * (1 - bm25B + bm25B*docLen/bm25AvgDocLen)

	indices := make([]uint32, 0, len(freq))
	for idx := range freq {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	values := make([]float32, len(indices))
	for i, idx := range indices {
		tf := freq[idx]
		values[i] = tf * (bm25K1 + 1) / (tf + norm)
	}

	return SparseVector{Indices: indices, Values: values}, nil
}

// sparseTokens splits text into lowercase alphanumeric tokens with stopwords
// and single-character tokens removed.
func sparseTokens(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}

	fields := strings.Fields(builder.String())
	tokens := make([]string, 0, len(fields))
	for _, token := range fields {
		if len(token) < minSparseToken {
			continue
		}
		if _, isStop := sparseStopwords[token]; isStop {
			continue
		}
		tokens = append(tokens, token)
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

func tokenIndex(token string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return h.Sum32()
}
