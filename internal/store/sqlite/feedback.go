package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ragqa/internal/domain"
)

// RecordFeedback stores a helpful / not-helpful vote for an answer.
func (s *Store) RecordFeedback(ctx context.Context, fb domain.Feedback) error {
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now()
	}
	helpful := 0
	if fb.Helpful {
		helpful = 1
	}
	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO feedback (id, query, position, similarity, helpful, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		fb.ID, fb.Query, fb.Position, fb.Similarity, helpful, fb.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// FeedbackStats returns the number of helpful and unhelpful votes.
func (s *Store) FeedbackStats(ctx context.Context) (helpful, unhelpful int, err error) {
	err = s.sqlDB.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(helpful), 0), COALESCE(SUM(1 - helpful), 0) FROM feedback",
	).Scan(&helpful, &unhelpful)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return helpful, unhelpful, nil
}

// RecentFeedback returns up to limit votes, newest first.
func (s *Store) RecentFeedback(ctx context.Context, limit int) ([]domain.Feedback, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT id, query, position, similarity, helpful, created_at FROM feedback ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var out []domain.Feedback
	for rows.Next() {
		var (
			fb      domain.Feedback
			helpful int
			created string
		)
		if err := rows.Scan(&fb.ID, &fb.Query, &fb.Position, &fb.Similarity, &helpful, &created); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		fb.Helpful = helpful == 1
		if fb.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("invalid feedback time %q: %w", created, err)
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}
