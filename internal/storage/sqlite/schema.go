// ABOUTME: SQLite database schema for the query log, feedback and retrieval index
// ABOUTME: Creates all tables and indexes for local storage
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Append-only query log, one row per processed request
CREATE TABLE IF NOT EXISTS query_logs (
    id TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    user_role TEXT NOT NULL,
    query_text TEXT NOT NULL,
    intent TEXT NOT NULL,
    confidence REAL NOT NULL,
    routed_endpoint TEXT,
    blocked INTEGER NOT NULL DEFAULT 0,
    cached INTEGER NOT NULL DEFAULT 0,
    latency_ms INTEGER NOT NULL DEFAULT 0,
    result TEXT NOT NULL,
    transitions TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- User feedback keyed by logged request
CREATE TABLE IF NOT EXISTS feedback (
    id TEXT PRIMARY KEY,
    query_id TEXT NOT NULL REFERENCES query_logs(id) ON DELETE CASCADE,
    rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
    comment TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Retrieval index artifact: one row per embedded corpus document
CREATE TABLE IF NOT EXISTS index_documents (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    doc_id TEXT NOT NULL UNIQUE,
    collection TEXT NOT NULL,
    text TEXT NOT NULL,
    metadata TEXT,
    vector BLOB NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Index artifact header: which embedder produced the vectors
CREATE TABLE IF NOT EXISTS index_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    provider TEXT NOT NULL,
    dimension INTEGER NOT NULL,
    built_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes for efficient querying
CREATE INDEX IF NOT EXISTS idx_query_logs_conversation ON query_logs(conversation_id);
CREATE INDEX IF NOT EXISTS idx_query_logs_created ON query_logs(created_at);
CREATE INDEX IF NOT EXISTS idx_query_logs_intent ON query_logs(intent);
CREATE INDEX IF NOT EXISTS idx_feedback_query ON feedback(query_id);
CREATE INDEX IF NOT EXISTS idx_index_documents_collection ON index_documents(collection);
`
