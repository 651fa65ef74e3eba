// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/opschat/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrThreadNotFound = errors.New("thread not found")
)

// =============================================================================
// SCHEMA
// =============================================================================

// Schema is the SQLite schema for the local message index.
const Schema = `
CREATE TABLE IF NOT EXISTS threads (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    created_at INTEGER NOT NULL,  -- Unix timestamp
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    thread_id TEXT NOT NULL,
    role TEXT NOT NULL,           -- user, assistant, system
    type TEXT NOT NULL DEFAULT 'text',
    content TEXT NOT NULL,
    created_at INTEGER NOT NULL,  -- Unix timestamp
    FOREIGN KEY(thread_id) REFERENCES threads(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_messages_thread_id ON messages(thread_id);
CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at);
`

// =============================================================================
// STORE
// =============================================================================

// Store is the SQLite-backed thread/message index.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the index at path and applies the schema.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply index schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// PutThread inserts or updates a thread.
func (s *Store) PutThread(ctx context.Context, thread *model.Thread) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO threads (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at
	`, thread.ID, thread.Title, thread.CreatedAt.Unix(), thread.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("put thread %s: %w", thread.ID, err)
	}
	return nil
}

// PutMessage inserts or updates a message and bumps its thread's
// updated_at.
func (s *Store) PutMessage(ctx context.Context, msg *model.Message) error {
	msgType := msg.Type
	if msgType == "" {
		msgType = "text"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, thread_id, role, type, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content
	`, msg.ID, msg.ThreadID, string(msg.Role), msgType, msg.Content, msg.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("put message %s: %w", msg.ID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE threads SET updated_at = ? WHERE id = ?`,
		time.Now().Unix(), msg.ThreadID)
	if err != nil {
		return fmt.Errorf("touch thread %s: %w", msg.ThreadID, err)
	}
	return nil
}

// =============================================================================
// READ OPERATIONS (search.ThreadIndex)
// =============================================================================

// Thread fetches one thread by ID.
func (s *Store) Thread(ctx context.Context, id string) (*model.Thread, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM threads WHERE id = ?`, id)

	var thread model.Thread
	var created, updated int64
	if err := row.Scan(&thread.ID, &thread.Title, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, id)
		}
		return nil, fmt.Errorf("load thread %s: %w", id, err)
	}
	thread.CreatedAt = time.Unix(created, 0)
	thread.UpdatedAt = time.Unix(updated, 0)
	return &thread, nil
}

// Threads lists threads by ID, most recently updated first. An empty
// id list means all threads.
func (s *Store) Threads(ctx context.Context, ids []string) ([]model.Thread, error) {
	query := `SELECT id, title, created_at, updated_at FROM threads`
	var args []interface{}
	if len(ids) > 0 {
		placeholders := make([]string, len(ids))
		for i, id := range ids {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += ` WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var threads []model.Thread
	for rows.Next() {
		var thread model.Thread
		var created, updated int64
		if err := rows.Scan(&thread.ID, &thread.Title, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		thread.CreatedAt = time.Unix(created, 0)
		thread.UpdatedAt = time.Unix(updated, 0)
		threads = append(threads, thread)
	}
	return threads, rows.Err()
}

// Messages lists a thread's messages in creation order.
func (s *Store) Messages(ctx context.Context, threadID string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, thread_id, role, type, content, created_at
		FROM messages WHERE thread_id = ? ORDER BY created_at ASC
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("list messages for thread %s: %w", threadID, err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		var role string
		var created int64
		if err := rows.Scan(&msg.ID, &msg.ThreadID, &role, &msg.Type, &msg.Content, &created); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = model.Role(role)
		msg.CreatedAt = time.Unix(created, 0)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
