package knowledge

import (
	"context"
	"strings"
)

// Searcher is the part of Index a Retriever needs.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Hit, error)
}

// Retriever turns the top k hits for a question into a single context block.
type Retriever struct {
	Index Searcher
	K     int
}

func NewRetriever(ix Searcher, k int) *Retriever {
	if k <= 0 {
		k = 1
	}
	return &Retriever{Index: ix, K: k}
}

// Context returns the matching chunks joined by blank lines, or "" when the
// index has nothing.
func (r *Retriever) Context(ctx context.Context, question string) (string, error) {
	hits, err := r.Index.Search(ctx, question, r.K)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		if c := strings.TrimSpace(h.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
