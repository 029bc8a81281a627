// ABOUTME: Append-only query log storage
// ABOUTME: Persists one record per request with the full result and stage timings
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harper/retail-nlp/internal/models"
)

// QueryLogStore handles query log persistence
type QueryLogStore struct {
	db *DB
}

// NewQueryLogStore creates a new QueryLogStore
func NewQueryLogStore(db *DB) *QueryLogStore {
	return &QueryLogStore{db: db}
}

// Append inserts a record. Existing IDs are rejected; the log is never updated.
func (s *QueryLogStore) Append(ctx context.Context, rec models.QueryLogRecord) error {
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	transitions, err := json.Marshal(rec.Transitions)
	if err != nil {
		return fmt.Errorf("marshaling transitions: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO query_logs (id, conversation_id, user_role, query_text, intent, confidence,
			routed_endpoint, blocked, cached, latency_ms, result, transitions, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID.String(), rec.ConversationID.String(), string(rec.UserRole), rec.QueryText,
		string(rec.Result.Intent), rec.Result.Confidence, rec.Result.RoutedEndpoint,
		rec.Result.Blocked, rec.Cached, rec.Latency.Milliseconds(),
		string(result), string(transitions), createdAt.UTC())
	if err != nil {
		return fmt.Errorf("appending query log: %w", err)
	}
	return nil
}

// GetByID retrieves a record by ID, or nil if absent
func (s *QueryLogStore) GetByID(ctx context.Context, id uuid.UUID) (*models.QueryLogRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectQueryLogs+` WHERE id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records, err := scanQueryLogs(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// ListRecent returns the newest records first
func (s *QueryLogStore) ListRecent(ctx context.Context, limit int) ([]models.QueryLogRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectQueryLogs+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanQueryLogs(rows)
}

// ListByConversation returns a conversation's records in arrival order
func (s *QueryLogStore) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.QueryLogRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectQueryLogs+` WHERE conversation_id = ? ORDER BY created_at ASC, rowid ASC`, conversationID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanQueryLogs(rows)
}

// Count returns the number of logged requests
func (s *QueryLogStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM query_logs`).Scan(&n)
	return n, err
}

const selectQueryLogs = `
	SELECT id, conversation_id, user_role, query_text, cached, latency_ms, result, transitions, created_at
	FROM query_logs`

func scanQueryLogs(rows *sql.Rows) ([]models.QueryLogRecord, error) {
	var records []models.QueryLogRecord

	for rows.Next() {
		var (
			rec         models.QueryLogRecord
			id, convID  string
			role        string
			latencyMs   int64
			result      string
			transitions sql.NullString
		)
		if err := rows.Scan(&id, &convID, &role, &rec.QueryText, &rec.Cached, &latencyMs,
			&result, &transitions, &rec.CreatedAt); err != nil {
			return nil, err
		}

		var err error
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing log id: %w", err)
		}
		if rec.ConversationID, err = uuid.Parse(convID); err != nil {
			return nil, fmt.Errorf("parsing conversation id: %w", err)
		}
		rec.UserRole = models.UserRole(role)
		rec.Latency = time.Duration(latencyMs) * time.Millisecond
		if err := json.Unmarshal([]byte(result), &rec.Result); err != nil {
			return nil, fmt.Errorf("decoding result: %w", err)
		}
		if transitions.Valid && transitions.String != "" && transitions.String != "null" {
			if err := json.Unmarshal([]byte(transitions.String), &rec.Transitions); err != nil {
				return nil, fmt.Errorf("decoding transitions: %w", err)
			}
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}
