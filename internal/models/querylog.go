// ABOUTME: Append-only query log records and user feedback
// ABOUTME: Feedback is keyed by the logged request ID and never read by the pipeline
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidFeedback is returned for out-of-range ratings or oversized comments
var ErrInvalidFeedback = errors.New("invalid feedback")

// MaxFeedbackComment is the longest accepted feedback comment, in characters
const MaxFeedbackComment = 1000

// QueryLogRecord is the one record emitted per processed request
type QueryLogRecord struct {
	ID             uuid.UUID      `json:"id"`
	ConversationID uuid.UUID      `json:"conversation_id"`
	UserRole       UserRole       `json:"user_role"`
	QueryText      string         `json:"query_text"`
	Result         PipelineResult `json:"result"`
	Transitions    []Transition   `json:"transitions,omitempty"`
	Latency        time.Duration  `json:"latency"`
	Cached         bool           `json:"cached"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Feedback is a user rating of a logged request
type Feedback struct {
	ID        uuid.UUID `json:"id"`
	QueryID   uuid.UUID `json:"query_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks rating range and comment length
func (f Feedback) Validate() error {
	if f.QueryID == uuid.Nil {
		return fmt.Errorf("%w: query id is required", ErrInvalidFeedback)
	}
	if f.Rating < 1 || f.Rating > 5 {
		return fmt.Errorf("%w: rating must be 1-5, got %d", ErrInvalidFeedback, f.Rating)
	}
	if len([]rune(f.Comment)) > MaxFeedbackComment {
		return fmt.Errorf("%w: comment exceeds %d characters", ErrInvalidFeedback, MaxFeedbackComment)
	}
	return nil
}
