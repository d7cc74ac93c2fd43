package retrieval

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/corpus"
	"ragqa/internal/domain"
	"ragqa/internal/embedding/hashing"
)

var tamilCorpus = []domain.CorpusEntry{
	{Question: "விவசாயத்தில் பயிர் சுழற்சி ஏன் முக்கியம்?", Answer: "இது மண் அரிப்பு மற்றும் குறைவதைத் தடுக்க உதவுகிறது"},
	{Question: "மண் அரிப்பைத் தடுக்கும் விவசாயம் என்ன?", Answer: "பயிர் சுழற்சி முறை"},
	{Question: "நெல் பயிருக்கு எவ்வளவு தண்ணீர் தேவை?", Answer: "வயலில் 5 செ.மீ. நீர் நிலை வைக்கவும்"},
	{Question: "தக்காளி செடியில் இலைச் சுருட்டல் நோயை எப்படி கட்டுப்படுத்துவது?", Answer: "வெள்ளை ஈக்களைக் கட்டுப்படுத்தவும்"},
	{Question: "மண் பரிசோதனை எப்போது செய்ய வேண்டும்?", Answer: "விதைப்புக்கு முன்"},
}

func newEncoder(t *testing.T) *hashing.Encoder {
	t.Helper()
	enc, err := hashing.NewEncoder(hashing.Config{Dimension: 512, NGramMin: 2, NGramMax: 4})
	require.NoError(t, err)
	return enc
}

func buildIndex(t *testing.T, enc domain.Encoder, rows []domain.CorpusEntry) *corpus.Index {
	t.Helper()
	ix, err := corpus.Build(context.Background(), rows, enc, corpus.BuildOptions{SampleSize: len(rows), BatchSize: 2})
	require.NoError(t, err)
	return ix
}

func TestRetrieveParaphraseEndToEnd(t *testing.T) {
	enc := newEncoder(t)
	ix := buildIndex(t, enc, tamilCorpus[:2])

	res, err := Retrieve(context.Background(), "பயிர் சுழற்சி முக்கியத்துவம்", ix, enc)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Position)
	assert.Equal(t, tamilCorpus[0], res.Entry)

	q, err := enc.Encode(context.Background(), []string{"பயிர் சுழற்சி முக்கியத்துவம்"})
	require.NoError(t, err)
	other := q[0].Cosine(ix.Embedding(1))
	assert.Greater(t, res.Similarity-other, 0.1, "match should be clearly ahead of the other entry")
}

func TestRetrieveSelfSimilarity(t *testing.T) {
	enc := newEncoder(t)
	ix := buildIndex(t, enc, tamilCorpus)

	for i, e := range tamilCorpus {
		res, err := Retrieve(context.Background(), e.Question, ix, enc)
		require.NoError(t, err)
		assert.Equal(t, i, res.Position)
		assert.GreaterOrEqual(t, res.Similarity, 0.99)

		q, err := enc.Encode(context.Background(), []string{e.Question})
		require.NoError(t, err)
		for j := range tamilCorpus {
			if j != i {
				assert.GreaterOrEqual(t, res.Similarity, q[0].Cosine(ix.Embedding(j)))
			}
		}
	}
}

func TestRetrieveIsDeterministicAndInRange(t *testing.T) {
	enc := newEncoder(t)
	ix := buildIndex(t, enc, tamilCorpus)

	for _, query := range []string{"நெல் தண்ணீர்", "tomato leaf curl", "மண்", "?", "பயிர் பயிர் பயிர்"} {
		first, err := Retrieve(context.Background(), query, ix, enc)
		require.NoError(t, err)
		second, err := Retrieve(context.Background(), query, ix, enc)
		require.NoError(t, err)

		assert.Equal(t, first.Position, second.Position)
		assert.Equal(t, math.Float64bits(first.Similarity), math.Float64bits(second.Similarity))
		require.GreaterOrEqual(t, first.Position, 0)
		require.Less(t, first.Position, ix.Len())
		assert.Equal(t, ix.Entry(first.Position), first.Entry)
		assert.GreaterOrEqual(t, first.Similarity, -1.0-1e-9)
		assert.LessOrEqual(t, first.Similarity, 1.0+1e-9)
	}
}

func TestRetrieveTieBreaksToLowestPosition(t *testing.T) {
	enc := newEncoder(t)
	rows := []domain.CorpusEntry{
		{Question: "மண் பரிசோதனை", Answer: "other"},
		{Question: "பயிர் சுழற்சி", Answer: "first"},
		{Question: "பயிர் சுழற்சி", Answer: "second"},
	}
	ix := buildIndex(t, enc, rows)

	for i := 0; i < 10; i++ {
		res, err := Retrieve(context.Background(), "பயிர் சுழற்சி", ix, enc)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Position)
		assert.Equal(t, "first", res.Entry.Answer)
	}
}

func TestRetrieveEmptyQueryIsLowConfidence(t *testing.T) {
	enc := newEncoder(t)
	ix := buildIndex(t, enc, tamilCorpus)

	res, err := Retrieve(context.Background(), "", ix, enc)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Position)
	assert.Equal(t, 0.0, res.Similarity)
}

func TestRetrieveErrors(t *testing.T) {
	enc := newEncoder(t)

	_, err := Retrieve(context.Background(), "x", nil, enc)
	assert.ErrorIs(t, err, domain.ErrEmptyIndex)

	ix := buildIndex(t, enc, tamilCorpus)
	_, err = Retrieve(context.Background(), string([]byte{0xff, 0xfe}), ix, enc)
	assert.ErrorIs(t, err, domain.ErrEncoding)

	small, err := hashing.NewEncoder(hashing.Config{Dimension: 8, NGramMin: 2, NGramMax: 2})
	require.NoError(t, err)
	_, err = Retrieve(context.Background(), "x", ix, small)
	assert.ErrorIs(t, err, domain.ErrEncoding)

	_, err = Retrieve(context.Background(), "x", ix, nil)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestScanZeroNormEmbeddings(t *testing.T) {
	ix, err := corpus.NewIndex(
		[]domain.CorpusEntry{{Question: "a"}, {Question: "b"}},
		[]domain.Vector{domain.NewVector([]float32{0, 0}), domain.NewVector([]float32{0, 1})},
	)
	require.NoError(t, err)

	pos, score := Scan(domain.NewVector([]float32{0, 2}), ix)
	assert.Equal(t, 1, pos)
	assert.InDelta(t, 1.0, score, 1e-9)

	pos, score = Scan(domain.NewVector([]float32{0, 0}), ix)
	assert.Equal(t, 0, pos)
	assert.Equal(t, 0.0, score)
}
