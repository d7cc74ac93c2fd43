package tfidf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/domain"
)

var questions = []string{
	"விவசாயத்தில் பயிர் சுழற்சி ஏன் முக்கியம்?",
	"மண் அரிப்பைத் தடுக்கும் விவசாயம் என்ன?",
}

func TestFitRejectsEmptyCorpus(t *testing.T) {
	_, err := Fit(nil, 0)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)

	_, err = Fit([]string{"?!", "the and"}, 0)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestFitVocabularyIsSortedAndStable(t *testing.T) {
	a, err := Fit(questions, 0)
	require.NoError(t, err)
	b, err := Fit(questions, 0)
	require.NoError(t, err)

	assert.Equal(t, a.vocabulary, b.vocabulary)
	assert.Equal(t, a.idf, b.idf)
	// ஏன் and என்ன are stopwords.
	assert.Equal(t, 8, a.Dimension())
	_, ok := a.vocabulary["ஏன்"]
	assert.False(t, ok)
}

func TestEncodeSelfSimilarity(t *testing.T) {
	enc, err := Fit(questions, 0)
	require.NoError(t, err)

	vecs, err := enc.Encode(context.Background(), questions)
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	again, err := enc.Encode(context.Background(), questions[:1])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, again[0].Cosine(vecs[0]), 0.99)
	// The two questions share no vocabulary.
	assert.InDelta(t, 0.0, vecs[0].Cosine(vecs[1]), 1e-9)
}

func TestEncodeUnknownWordsGiveZeroVector(t *testing.T) {
	enc, err := Fit(questions, 0)
	require.NoError(t, err)

	vecs, err := enc.Encode(context.Background(), []string{"", "tractor"})
	require.NoError(t, err)
	assert.True(t, vecs[0].IsZero())
	assert.True(t, vecs[1].IsZero())
	assert.Equal(t, enc.Dimension(), vecs[1].Dim())
}

func TestEncodeRejectsInvalidUTF8(t *testing.T) {
	enc, err := Fit(questions, 0)
	require.NoError(t, err)

	_, err = enc.Encode(context.Background(), []string{string([]byte{0xff})})
	assert.ErrorIs(t, err, domain.ErrEncoding)
}

func TestNameTracksInputCap(t *testing.T) {
	a, err := Fit(questions, 0)
	require.NoError(t, err)
	b, err := Fit(questions, 5)
	require.NoError(t, err)

	assert.Equal(t, "tfidf-v8-r2048", a.Name())
	assert.NotEqual(t, a.Name(), b.Name())
}
