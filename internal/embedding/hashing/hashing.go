package hashing

import (
	"context"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"ragqa/internal/domain"
	"ragqa/internal/embedding"
)

// Config configures the feature-hashing encoder.
type Config struct {
	Dimension     int
	NGramMin      int
	NGramMax      int
	MaxInputRunes int
}

// Encoder maps text to word and character n-gram features hashed into a
// fixed number of signed buckets. It holds no state besides its settings,
// so every string is encoded independently of the batch it arrives in.
type Encoder struct {
	dim      int
	ngramMin int
	ngramMax int
	maxRunes int
}

// NewEncoder validates cfg and returns an encoder.
func NewEncoder(cfg Config) (*Encoder, error) {
	if cfg.Dimension <= 0 {
		return nil, &domain.ModelUnavailableError{Encoder: "hashing", Err: fmt.Errorf("invalid dimension %d", cfg.Dimension)}
	}
	if cfg.NGramMin <= 0 || cfg.NGramMax < cfg.NGramMin {
		return nil, &domain.ModelUnavailableError{Encoder: "hashing", Err: fmt.Errorf("invalid n-gram range %d..%d", cfg.NGramMin, cfg.NGramMax)}
	}
	maxRunes := cfg.MaxInputRunes
	if maxRunes == 0 {
		maxRunes = embedding.DefaultMaxInputRunes
	}
	return &Encoder{dim: cfg.Dimension, ngramMin: cfg.NGramMin, ngramMax: cfg.NGramMax, maxRunes: maxRunes}, nil
}

// Name returns the identifier of this encoder implementation.
func (e *Encoder) Name() string {
	return fmt.Sprintf("hashing-d%d-n%d-%d-r%d", e.dim, e.ngramMin, e.ngramMax, e.maxRunes)
}

// Dimension returns the dimensionality of the produced vectors.
func (e *Encoder) Dimension() int { return e.dim }

// Encode returns one vector per text.
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
	normalized, err := embedding.Normalize(text, e.maxRunes)
	if err != nil {
		return domain.Vector{}, err
	}

	// Features are accumulated in first-seen order so the float sums, and
	// therefore the output bits, do not depend on map iteration.
	var order []string
	counts := make(map[string]int)
	add := func(f string) {
		if counts[f] == 0 {
			order = append(order, f)
		}
		counts[f]++
	}
	for _, w := range embedding.Words(normalized) {
		add("w:" + w)
		runes := []rune("<" + w + ">")
		for n := e.ngramMin; n <= e.ngramMax; n++ {
			for i := 0; i+n <= len(runes); i++ {
				add("c:" + string(runes[i:i+n]))
			}
		}
	}

	acc := make([]float64, e.dim)
	for _, f := range order {
		h := xxhash.Sum64String(f)
		idx := int(h % uint64(e.dim))
		weight := 1 + math.Log(float64(counts[f]))
		if h>>63 == 1 {
			weight = -weight
		}
		acc[idx] += weight
	}

	norm := 0.0
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range acc {
			acc[i] /= norm
		}
	}
	return domain.NewVector64(acc), nil
}
