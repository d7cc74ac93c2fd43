package corpus

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"ragqa/internal/domain"
	"ragqa/internal/logging"
	"ragqa/internal/progress"
)

// DefaultBatchSize is used when BuildOptions.BatchSize is not positive.
const DefaultBatchSize = 256

// BuildOptions controls how much of the source is embedded and how.
type BuildOptions struct {
	// SampleSize caps how many leading rows are embedded.
	SampleSize int
	// BatchSize is the number of questions per Encode call.
	BatchSize int
	// Workers bounds how many batches are encoded at once.
	Workers int
	// Progress is optional.
	Progress progress.Reporter
}

// Build embeds the first min(SampleSize, len(rows)) questions and returns the
// resulting Index. It fails with domain.ErrEmptyCorpus when nothing remains
// after truncation, and never returns a partially built index.
func Build(ctx context.Context, rows []domain.CorpusEntry, enc domain.Encoder, opts BuildOptions) (*Index, error) {
	if enc == nil {
		return nil, &domain.ModelUnavailableError{Encoder: "none", Err: errors.New("no encoder configured")}
	}
	n := min(opts.SampleSize, len(rows))
	if n <= 0 {
		return nil, domain.ErrEmptyCorpus
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	sample := rows[:n]
	questions := make([]string, n)
	for i, row := range sample {
		questions[i] = row.Question
	}

	if opts.Progress != nil {
		opts.Progress.Start(n)
		defer opts.Progress.Finish()
	}

	// Each batch owns the slots [start, end) so results land in corpus order
	// regardless of which goroutine finishes first.
	embeddings := make([]domain.Vector, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < n; start += batchSize {
		end := min(start+batchSize, n)
		g.Go(func() error {
			vecs, err := enc.Encode(gctx, questions[start:end])
			if err != nil {
				return fmt.Errorf("failed to embed batch %d-%d: %w", start, end, err)
			}
			if len(vecs) != end-start {
				return domain.NewEncodingError(enc.Name(), "batch %d-%d: expected %d vectors, got %d", start, end, end-start, len(vecs))
			}
			copy(embeddings[start:end], vecs)
			logging.Debugf("encoded questions %d-%d", start, end)
			if opts.Progress != nil {
				opts.Progress.Add(end - start)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dim := embeddings[0].Dim()
	for i, v := range embeddings {
		if v.Dim() != dim || dim == 0 {
			return nil, domain.NewEncodingError(enc.Name(), "embedding %d has dimension %d, want %d", i, v.Dim(), dim)
		}
	}
	return NewIndex(sample, embeddings)
}
