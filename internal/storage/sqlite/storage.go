// ABOUTME: Unified Storage layer that wraps all SQLite stores
// ABOUTME: Records processed requests and serves the retrieval index artifact
package sqlite

import (
	"context"
	"fmt"

	"github.com/harper/retail-nlp/internal/models"
)

// Storage manages all persistent data for the pipeline using SQLite
type Storage struct {
	db       *DB
	Logs     *QueryLogStore
	Feedback *FeedbackStore
	Index    *IndexStore
}

// NewStorage opens storage at the given database path
func NewStorage(dbPath string) (*Storage, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newStorage(db), nil
}

// NewStorageInMemory creates an in-memory storage (for testing)
func NewStorageInMemory() (*Storage, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return newStorage(db), nil
}

func newStorage(db *DB) *Storage {
	return &Storage{
		db:       db,
		Logs:     NewQueryLogStore(db),
		Feedback: NewFeedbackStore(db),
		Index:    NewIndexStore(db),
	}
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record appends a processed request to the query log
func (s *Storage) Record(ctx context.Context, rec models.QueryLogRecord) error {
	return s.Logs.Append(ctx, rec)
}
