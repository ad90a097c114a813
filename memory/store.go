// Package memory persists conversation threads for the guide agent in
// SQLite.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hoangvvo/guide-agent/internal/log"
	"github.com/hoangvvo/guide-agent/llm"
)

// ErrNotFound is returned when a requested thread does not exist.
var ErrNotFound = errors.New("record not found")

// Thread is a conversation. ResourceID groups threads by owner, for example
// an A2A caller or a CLI user.
type Thread struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store holds the database connection.
type Store struct {
	conn *sql.DB
	now  func() time.Time
}

// New opens the store at path and migrates it. ":memory:" opens a private
// in-memory database.
func New(path string) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps an in-memory
	// database alive for the lifetime of the store.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		log.CloseError("memory database", conn.Close())
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{conn: conn, now: time.Now}
	if err := s.Migrate(); err != nil {
		log.CloseError("memory database", conn.Close())
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// CreateThread inserts a new thread with a random ID.
func (s *Store) CreateThread(ctx context.Context, resourceID, title string) (*Thread, error) {
	return s.insertThread(ctx, uuid.NewString(), resourceID, title)
}

// EnsureThread returns the thread with id, creating it for resourceID when
// missing. A thread owned by another resource is reported as ErrNotFound.
func (s *Store) EnsureThread(ctx context.Context, id, resourceID string) (*Thread, error) {
	thread, err := s.GetThread(ctx, id)
	if err == nil {
		if thread.ResourceID != resourceID {
			return nil, fmt.Errorf("%w: thread %s", ErrNotFound, id)
		}
		return thread, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.insertThread(ctx, id, resourceID, "")
}

func (s *Store) insertThread(ctx context.Context, id, resourceID, title string) (*Thread, error) {
	now := s.now().UTC()
	thread := &Thread{
		ID:         id,
		ResourceID: resourceID,
		Title:      title,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO threads (id, resource_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		thread.ID, thread.ResourceID, thread.Title, thread.CreatedAt, thread.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert thread: %w", err)
	}
	return thread, nil
}

// GetThread retrieves a thread by ID.
func (s *Store) GetThread(ctx context.Context, id string) (*Thread, error) {
	thread := &Thread{}
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, resource_id, title, created_at, updated_at
		FROM threads WHERE id = ?`, id,
	).Scan(&thread.ID, &thread.ResourceID, &thread.Title, &thread.CreatedAt, &thread.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return thread, nil
}

// ListThreads returns the threads of resourceID, most recently updated first.
func (s *Store) ListThreads(ctx context.Context, resourceID string) ([]*Thread, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, resource_id, title, created_at, updated_at
		FROM threads WHERE resource_id = ? ORDER BY updated_at DESC, id`, resourceID)
	if err != nil {
		return nil, err
	}
	defer func() { log.CloseError("thread rows", rows.Close()) }()

	var threads []*Thread
	for rows.Next() {
		thread := &Thread{}
		if err := rows.Scan(&thread.ID, &thread.ResourceID, &thread.Title, &thread.CreatedAt, &thread.UpdatedAt); err != nil {
			return nil, err
		}
		threads = append(threads, thread)
	}
	return threads, rows.Err()
}

// DeleteThread removes a thread and its messages.
func (s *Store) DeleteThread(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessages stores messages at the end of the thread in one
// transaction.
func (s *Store) AppendMessages(ctx context.Context, threadID string, messages ...llm.Message) (err error) {
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Warn("failed to roll back message append", "thread", threadID, "error", rbErr)
			}
		}
	}()

	now := s.now().UTC()
	res, err := tx.ExecContext(ctx, `UPDATE threads SET updated_at = ? WHERE id = ?`, now, threadID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}

	var next int
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sequence), -1) + 1 FROM messages WHERE thread_id = ?`, threadID,
	).Scan(&next); err != nil {
		return err
	}

	for i, msg := range messages {
		content, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encode message %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, thread_id, sequence, role, content, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), threadID, next+i, string(msg.Role()), string(content), now,
		); err != nil {
			return fmt.Errorf("insert message %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// ListMessages returns the last n messages of the thread in conversation
// order. n <= 0 returns every message. A window never opens in the middle of
// a tool exchange: messages before its first user message are dropped.
func (s *Store) ListMessages(ctx context.Context, threadID string, n int) ([]llm.Message, error) {
	if _, err := s.GetThread(ctx, threadID); err != nil {
		return nil, err
	}

	query := `SELECT content FROM messages WHERE thread_id = ? ORDER BY sequence DESC`
	args := []any{threadID}
	if n > 0 {
		query += ` LIMIT ?`
		args = append(args, n)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { log.CloseError("message rows", rows.Close()) }()

	messages := []llm.Message{}
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		var msg llm.Message
		if err := json.Unmarshal([]byte(content), &msg); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.Reverse(messages)
	if n > 0 {
		start := slices.IndexFunc(messages, func(m llm.Message) bool { return m.UserMessage != nil })
		if start < 0 {
			return []llm.Message{}, nil
		}
		messages = messages[start:]
	}
	return messages, nil
}
