// ABOUTME: Feedback storage operations for SQLite
// ABOUTME: Ratings reference logged requests; the pipeline never reads them back
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harper/retail-nlp/internal/models"
)

// ErrUnknownQuery is returned when feedback references a request that was never logged
var ErrUnknownQuery = errors.New("unknown query id")

// FeedbackStore handles feedback persistence
type FeedbackStore struct {
	db *DB
}

// NewFeedbackStore creates a new FeedbackStore
func NewFeedbackStore(db *DB) *FeedbackStore {
	return &FeedbackStore{db: db}
}

// Save validates and stores feedback, assigning ID and timestamp when missing
func (s *FeedbackStore) Save(ctx context.Context, fb *models.Feedback) error {
	if err := fb.Validate(); err != nil {
		return err
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM query_logs WHERE id = ?`, fb.QueryID.String()).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", ErrUnknownQuery, fb.QueryID)
	}
	if err != nil {
		return err
	}

	if fb.ID == uuid.Nil {
		fb.ID = uuid.New()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, query_id, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, fb.ID.String(), fb.QueryID.String(), fb.Rating, nullString(fb.Comment), fb.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving feedback: %w", err)
	}
	return nil
}

// ListByQuery returns all feedback for a logged request, oldest first
func (s *FeedbackStore) ListByQuery(ctx context.Context, queryID uuid.UUID) ([]models.Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query_id, rating, comment, created_at
		FROM feedback
		WHERE query_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, queryID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Feedback
	for rows.Next() {
		var (
			fb      models.Feedback
			id, qid string
			comment sql.NullString
		)
		if err := rows.Scan(&id, &qid, &fb.Rating, &comment, &fb.CreatedAt); err != nil {
			return nil, err
		}
		fb.ID, _ = uuid.Parse(id)
		fb.QueryID, _ = uuid.Parse(qid)
		if comment.Valid {
			fb.Comment = comment.String
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

// AverageRating returns the mean rating and count across all feedback
func (s *FeedbackStore) AverageRating(ctx context.Context) (float64, int, error) {
	var (
		avg   sql.NullFloat64
		count int
	)
	err := s.db.QueryRowContext(ctx, `SELECT AVG(rating), COUNT(*) FROM feedback`).Scan(&avg, &count)
	if err != nil {
		return 0, 0, err
	}
	return avg.Float64, count, nil
}

// nullString converts empty strings to NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
