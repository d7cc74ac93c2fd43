package corpus

import (
	"errors"
	"fmt"

	"ragqa/internal/domain"
)

// Index holds the corpus entries and their precomputed question embeddings.
// It is never mutated after construction and is safe for concurrent reads.
type Index struct {
	entries    []domain.CorpusEntry
	embeddings []domain.Vector
	norms      []float64
	dim        int
}

// NewIndex builds an Index from aligned entries and embeddings.
// embeddings[i] must encode entries[i].Question; all vectors share one dimension.
func NewIndex(entries []domain.CorpusEntry, embeddings []domain.Vector) (*Index, error) {
	if len(entries) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	if len(entries) != len(embeddings) {
		return nil, fmt.Errorf("entries and embeddings length mismatch: %d vs %d", len(entries), len(embeddings))
	}
	dim := embeddings[0].Dim()
	if dim == 0 {
		return nil, errors.New("embeddings have zero dimension")
	}
	ix := &Index{
		entries:    make([]domain.CorpusEntry, len(entries)),
		embeddings: make([]domain.Vector, len(embeddings)),
		norms:      make([]float64, len(embeddings)),
		dim:        dim,
	}
	copy(ix.entries, entries)
	for i, v := range embeddings {
		if v.Dim() != dim {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, v.Dim(), dim)
		}
		ix.embeddings[i] = v
		ix.norms[i] = v.Norm()
	}
	return ix, nil
}

// Len returns the number of entries. A nil Index has length 0.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

// Dimension returns the embedding dimension.
func (ix *Index) Dimension() int { return ix.dim }

// Entry returns the entry at position i.
func (ix *Index) Entry(i int) domain.CorpusEntry { return ix.entries[i] }

// Embedding returns the embedding of entry i.
func (ix *Index) Embedding(i int) domain.Vector { return ix.embeddings[i] }

// Norm returns the precomputed norm of embedding i.
func (ix *Index) Norm(i int) float64 { return ix.norms[i] }

// Entries returns a copy of all entries in corpus order.
func (ix *Index) Entries() []domain.CorpusEntry {
	out := make([]domain.CorpusEntry, len(ix.entries))
	copy(out, ix.entries)
	return out
}
