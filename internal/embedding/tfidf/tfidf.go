package tfidf

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"ragqa/internal/domain"
	"ragqa/internal/embedding"
)

// Encoder implements a TF-IDF vectorizer over a vocabulary fitted once.
// After Fit it is read-only and safe for concurrent use.
type Encoder struct {
	vocabulary map[string]int
	idf        []float64
	maxRunes   int
	stopwords  map[string]struct{}
}

// Fit builds the vocabulary and IDF values from the provided corpus.
// maxRunes bounds each input; 0 selects embedding.DefaultMaxInputRunes.
func Fit(corpus []string, maxRunes int) (*Encoder, error) {
	if maxRunes == 0 {
		maxRunes = embedding.DefaultMaxInputRunes
	}
	e := &Encoder{maxRunes: maxRunes, stopwords: defaultStopwords()}
	if len(corpus) == 0 {
		return nil, &domain.ModelUnavailableError{Encoder: "tfidf", Err: errors.New("empty corpus for TF-IDF fit")}
	}
	// Build vocabulary and document frequencies
	df := make(map[string]int)
	for i, text := range corpus {
		tokens, err := e.tokenize(text)
		if err != nil {
			return nil, &domain.ModelUnavailableError{Encoder: "tfidf", Err: fmt.Errorf("corpus text %d: %w", i, err)}
		}
		seen := make(map[string]struct{})
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	// Create stable ordering for vocabulary
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return nil, &domain.ModelUnavailableError{Encoder: "tfidf", Err: errors.New("no tokens found in corpus")}
	}
	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		e.vocabulary[term] = i
		// Smoothed IDF
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return e, nil
}

// Name returns the identifier of this encoder implementation.
func (e *Encoder) Name() string { return fmt.Sprintf("tfidf-v%d-r%d", len(e.idf), e.maxRunes) }

// Dimension returns the vocabulary size.
func (e *Encoder) Dimension() int { return len(e.idf) }

// Encode computes the TF-IDF vector of each text.
func (e *Encoder) Encode(ctx context.Context, texts []string) ([]domain.Vector, error) {
	out := make([]domain.Vector, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := e.embed(text)
		if err != nil {
			return nil, &domain.EncodingError{Encoder: e.Name(), Err: fmt.Errorf("text %d: %w", i, err)}
		}
		out[i] = vec
	}
	return out, nil
}

func (e *Encoder) embed(text string) (domain.Vector, error) {
	vec := make([]float64, len(e.idf))
	tokens, err := e.tokenize(text)
	if err != nil {
		return domain.Vector{}, err
	}
	tf := make(map[int]int)
	total := 0
	for _, tok := range tokens {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return domain.NewVector64(vec), nil
	}
	for idx, count := range tf {
		tfv := float64(count) / float64(total)
		vec[idx] = tfv * e.idf[idx]
	}
	// L2 normalize in index order so the result is reproducible bit for bit.
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return domain.NewVector64(vec), nil
}

func (e *Encoder) tokenize(text string) ([]string, error) {
	normalized, err := embedding.Normalize(text, e.maxRunes)
	if err != nil {
		return nil, err
	}
	raw := embedding.Words(normalized)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "so", "such", "into", "about", "can", "will", "just", "should", "now",
		"ஒரு", "மற்றும்", "இது", "அது", "என்ன", "ஏன்", "எப்படி", "எது", "உள்ள", "என்று",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
