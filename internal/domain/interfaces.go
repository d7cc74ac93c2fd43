package domain

import (
	"context"
	"time"
)

// CorpusEntry is a single question/answer pair from the source corpus.
// Its identity is its 0-based position in the corpus.
type CorpusEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QueryResult is the best corpus match for a query.
type QueryResult struct {
	Entry      CorpusEntry `json:"entry"`
	Position   int         `json:"position"`
	Similarity float64     `json:"similarity"`
}

// Feedback records whether an answer was useful to the person who asked.
type Feedback struct {
	ID         string
	Query      string
	Position   int
	Similarity float64
	Helpful    bool
	CreatedAt  time.Time
}

// Encoder converts free text into fixed-dimension vectors.
// Implementations must return one vector per input, in input order, and the
// same dimension on every call.
type Encoder interface {
	Name() string
	Dimension() int
	Encode(ctx context.Context, texts []string) ([]Vector, error)
}

// QAService defines the operation exposed to front-ends.
type QAService interface {
	Answer(ctx context.Context, query string) (QueryResult, error)
}

// FeedbackRecorder persists answer feedback.
type FeedbackRecorder interface {
	RecordFeedback(ctx context.Context, fb Feedback) error
}
