package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"ragqa/internal/corpus"
	"ragqa/internal/domain"
	"ragqa/internal/retrieval"
)

// QAService answers questions against an owned encoder and corpus index.
// The index reference is swapped atomically, so concurrent Answer calls never
// observe a partially built index and need no locking.
type QAService struct {
	encoder domain.Encoder
	index   atomic.Pointer[corpus.Index]
}

var _ domain.QAService = (*QAService)(nil)

// NewQAService returns a ready service. It fails when the encoder is missing
// or the index is empty; there is no partially ready state.
func NewQAService(encoder domain.Encoder, index *corpus.Index) (*QAService, error) {
	if encoder == nil {
		return nil, &domain.ModelUnavailableError{Encoder: "none", Err: errors.New("no encoder configured")}
	}
	if index.Len() == 0 {
		return nil, domain.ErrEmptyIndex
	}
	s := &QAService{encoder: encoder}
	s.index.Store(index)
	return s, nil
}

// Answer returns the corpus entry whose question best matches query.
// A failing query leaves the service and its index untouched.
func (s *QAService) Answer(ctx context.Context, query string) (domain.QueryResult, error) {
	return retrieval.Retrieve(ctx, query, s.index.Load(), s.encoder)
}

// Index returns the index currently used for answers.
func (s *QAService) Index() *corpus.Index { return s.index.Load() }

// Swap replaces the whole index. Queries already running keep the index they started with.
func (s *QAService) Swap(index *corpus.Index) error {
	if index.Len() == 0 {
		return domain.ErrEmptyIndex
	}
	if index.Dimension() != s.index.Load().Dimension() {
		return fmt.Errorf("index dimension %d does not match current %d", index.Dimension(), s.index.Load().Dimension())
	}
	s.index.Store(index)
	return nil
}

// Rebuild builds a new index from rows with the service's encoder and swaps
// it in only if the build succeeds.
func (s *QAService) Rebuild(ctx context.Context, rows []domain.CorpusEntry, opts corpus.BuildOptions) error {
	ix, err := corpus.Build(ctx, rows, s.encoder, opts)
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	if err := s.Swap(ix); err != nil {
		return err
	}
	log.Printf("index rebuilt: %d entries", ix.Len())
	return nil
}
