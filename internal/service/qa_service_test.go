package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/corpus"
	"ragqa/internal/domain"
	"ragqa/internal/embedding/hashing"
)

var rows = []domain.CorpusEntry{
	{Question: "விவசாயத்தில் பயிர் சுழற்சி ஏன் முக்கியம்?", Answer: "இது மண் அரிப்பு மற்றும் குறைவதைத் தடுக்க உதவுகிறது"},
	{Question: "மண் அரிப்பைத் தடுக்கும் விவசாயம் என்ன?", Answer: "பயிர் சுழற்சி முறை"},
}

func newService(t *testing.T) (*QAService, *hashing.Encoder) {
	t.Helper()
	enc, err := hashing.NewEncoder(hashing.Config{Dimension: 512, NGramMin: 2, NGramMax: 4})
	require.NoError(t, err)
	ix, err := corpus.Build(context.Background(), rows, enc, corpus.BuildOptions{SampleSize: 100, BatchSize: 256})
	require.NoError(t, err)
	svc, err := NewQAService(enc, ix)
	require.NoError(t, err)
	return svc, enc
}

func TestNewQAServiceRequiresDependencies(t *testing.T) {
	enc, err := hashing.NewEncoder(hashing.Config{Dimension: 16, NGramMin: 2, NGramMax: 2})
	require.NoError(t, err)

	_, err = NewQAService(nil, nil)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)

	svc, err := NewQAService(enc, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyIndex)
	assert.Nil(t, svc)
}

func TestAnswer(t *testing.T) {
	svc, _ := newService(t)

	res, err := svc.Answer(context.Background(), "பயிர் சுழற்சி முக்கியத்துவம்")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Position)
	assert.Equal(t, rows[0].Answer, res.Entry.Answer)
	assert.Greater(t, res.Similarity, 0.0)
}

func TestAnswerErrorDoesNotBreakService(t *testing.T) {
	svc, _ := newService(t)
	before := svc.Index()

	_, err := svc.Answer(context.Background(), string([]byte{0xff}))
	assert.ErrorIs(t, err, domain.ErrEncoding)
	assert.Same(t, before, svc.Index())

	res, err := svc.Answer(context.Background(), rows[1].Question)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Position)
}

func TestRebuildSwapsOnlyOnSuccess(t *testing.T) {
	svc, _ := newService(t)
	before := svc.Index()

	err := svc.Rebuild(context.Background(), nil, corpus.BuildOptions{SampleSize: 10})
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)
	assert.Same(t, before, svc.Index())

	more := append([]domain.CorpusEntry{{Question: "நெல் பயிருக்கு எவ்வளவு தண்ணீர் தேவை?", Answer: "5 செ.மீ."}}, rows...)
	require.NoError(t, svc.Rebuild(context.Background(), more, corpus.BuildOptions{SampleSize: 10, BatchSize: 1}))
	assert.Equal(t, 3, svc.Index().Len())

	res, err := svc.Answer(context.Background(), "நெல் தண்ணீர்")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Position)
}

func TestSwapRejectsEmptyIndex(t *testing.T) {
	svc, _ := newService(t)
	assert.ErrorIs(t, svc.Swap(nil), domain.ErrEmptyIndex)
}

func TestConcurrentAnswersDuringSwap(t *testing.T) {
	svc, enc := newService(t)
	alt, err := corpus.Build(context.Background(), rows[:1], enc, corpus.BuildOptions{SampleSize: 1})
	require.NoError(t, err)
	full := svc.Index()

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				res, err := svc.Answer(context.Background(), rows[0].Question)
				if err != nil {
					errs <- err
					return
				}
				if res.Position != 0 || res.Entry != rows[0] {
					errs <- fmt.Errorf("unexpected match %d", res.Position)
					return
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			require.NoError(t, svc.Swap(alt))
		} else {
			require.NoError(t, svc.Swap(full))
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
