// ABOUTME: Retrieval index artifact storage for SQLite
// ABOUTME: Stores embedded corpus documents as vector BLOBs in insertion order
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/harper/retail-nlp/internal/models"
)

// IndexMeta describes the embedder that produced an index artifact
type IndexMeta struct {
	Provider  string
	Dimension int
	BuiltAt   time.Time
}

// IndexStore persists the offline-built retrieval index
type IndexStore struct {
	db *DB
}

// NewIndexStore creates a new IndexStore
func NewIndexStore(db *DB) *IndexStore {
	return &IndexStore{db: db}
}

// Replace atomically swaps the whole artifact for a freshly built one
func (s *IndexStore) Replace(ctx context.Context, meta IndexMeta, entries []models.IndexEntry) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM index_documents`); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM index_meta`); err != nil {
		return fmt.Errorf("clearing index meta: %w", err)
	}
	if err := writeMeta(ctx, tx, meta); err != nil {
		return err
	}
	if err := insertEntries(ctx, tx, meta.Dimension, entries); err != nil {
		return err
	}
	return tx.Commit()
}

// Append adds documents to an existing artifact. The embedder must match.
func (s *IndexStore) Append(ctx context.Context, meta IndexMeta, entries []models.IndexEntry) error {
	current, err := s.Meta(ctx)
	if err != nil {
		return err
	}
	if current == nil {
		return s.Replace(ctx, meta, entries)
	}
	if current.Provider != meta.Provider || current.Dimension != meta.Dimension {
		return fmt.Errorf("index was built with %s/%d, cannot append %s/%d vectors",
			current.Provider, current.Dimension, meta.Provider, meta.Dimension)
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertEntries(ctx, tx, meta.Dimension, entries); err != nil {
		return err
	}
	return tx.Commit()
}

// Meta returns the artifact header, or nil when no index was built
func (s *IndexStore) Meta(ctx context.Context) (*IndexMeta, error) {
	var meta IndexMeta
	err := s.db.QueryRowContext(ctx, `SELECT provider, dimension, built_at FROM index_meta WHERE id = 1`).
		Scan(&meta.Provider, &meta.Dimension, &meta.BuiltAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// Load returns the header and every entry in insertion order
func (s *IndexStore) Load(ctx context.Context) (*IndexMeta, []models.IndexEntry, error) {
	meta, err := s.Meta(ctx)
	if err != nil || meta == nil {
		return meta, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id, collection, text, metadata, vector
		FROM index_documents
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []models.IndexEntry
	for rows.Next() {
		var (
			entry    models.IndexEntry
			metadata sql.NullString
			blob     []byte
		)
		if err := rows.Scan(&entry.ID, &entry.Collection, &entry.Text, &metadata, &blob); err != nil {
			return nil, nil, err
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &entry.Metadata); err != nil {
				return nil, nil, fmt.Errorf("decoding metadata for %s: %w", entry.ID, err)
			}
		}
		entry.Vector = blobToVector(blob)
		entries = append(entries, entry)
	}
	return meta, entries, rows.Err()
}

// Count returns the number of indexed documents
func (s *IndexStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM index_documents`).Scan(&n)
	return n, err
}

func writeMeta(ctx context.Context, tx *sql.Tx, meta IndexMeta) error {
	builtAt := meta.BuiltAt
	if builtAt.IsZero() {
		builtAt = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO index_meta (id, provider, dimension, built_at) VALUES (1, ?, ?, ?)`,
		meta.Provider, meta.Dimension, builtAt)
	if err != nil {
		return fmt.Errorf("writing index meta: %w", err)
	}
	return nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, dim int, entries []models.IndexEntry) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_documents (doc_id, collection, text, metadata, vector)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			collection = excluded.collection,
			text = excluded.text,
			metadata = excluded.metadata,
			vector = excluded.vector
	`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		if len(e.Vector) != dim {
			return fmt.Errorf("invalid embedding dimension for %s: expected %d, got %d", e.ID, dim, len(e.Vector))
		}
		var metadata sql.NullString
		if len(e.Metadata) > 0 {
			raw, err := json.Marshal(e.Metadata)
			if err != nil {
				return err
			}
			metadata = sql.NullString{String: string(raw), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.Collection, e.Text, metadata, vectorToBlob(e.Vector)); err != nil {
			return fmt.Errorf("inserting %s: %w", e.ID, err)
		}
	}
	return nil
}

// vectorToBlob converts a float64 slice to binary blob
func vectorToBlob(vector []float64) []byte {
	blob := make([]byte, len(vector)*8)
	for i, v := range vector {
		binary.LittleEndian.PutUint64(blob[i*8:], math.Float64bits(v))
	}
	return blob
}

// blobToVector converts a binary blob to float64 slice
func blobToVector(blob []byte) []float64 {
	count := len(blob) / 8
	vector := make([]float64, count)
	for i := 0; i < count; i++ {
		bits := binary.LittleEndian.Uint64(blob[i*8:])
		vector[i] = math.Float64frombits(bits)
	}
	return vector
}
