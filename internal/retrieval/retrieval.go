// Package retrieval finds the corpus entry whose question is closest to a query.
package retrieval

import (
	"context"
	"fmt"

	"ragqa/internal/corpus"
	"ragqa/internal/domain"
)

// Retrieve encodes query and scans every embedding in ix by cosine
// similarity. The highest score wins; exact ties go to the lowest position.
// The returned similarity is the raw cosine value.
func Retrieve(ctx context.Context, query string, ix *corpus.Index, enc domain.Encoder) (domain.QueryResult, error) {
	if ix.Len() == 0 {
		return domain.QueryResult{}, domain.ErrEmptyIndex
	}
	if enc == nil {
		return domain.QueryResult{}, &domain.ModelUnavailableError{Encoder: "none", Err: fmt.Errorf("no encoder configured")}
	}
	vecs, err := enc.Encode(ctx, []string{query})
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("encode query: %w", err)
	}
	if len(vecs) != 1 {
		return domain.QueryResult{}, domain.NewEncodingError(enc.Name(), "expected 1 query vector, got %d", len(vecs))
	}
	q := vecs[0]
	if q.Dim() != ix.Dimension() {
		return domain.QueryResult{}, domain.NewEncodingError(enc.Name(), "query dimension %d does not match index dimension %d", q.Dim(), ix.Dimension())
	}

	best, score := Scan(q, ix)
	return domain.QueryResult{
		Entry:      ix.Entry(best),
		Position:   best,
		Similarity: score,
	}, nil
}

// Scan returns the position and cosine similarity of the best match for q.
// ix must be non-empty and share q's dimension.
func Scan(q domain.Vector, ix *corpus.Index) (int, float64) {
	qNorm := q.Norm()
	best := 0
	bestScore := domain.CosineWithNorms(q, ix.Embedding(0), qNorm, ix.Norm(0))
	for i := 1; i < ix.Len(); i++ {
		score := domain.CosineWithNorms(q, ix.Embedding(i), qNorm, ix.Norm(i))
		// Strictly greater keeps the first occurrence on ties.
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore
}
