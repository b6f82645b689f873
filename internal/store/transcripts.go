package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/agentconsole/internal/domain"
)

// ErrSessionNotFound is returned when a chat session id is unknown.
var ErrSessionNotFound = errors.New("chat session not found")

// SearchHit is one chat message matched by a transcript search.
type SearchHit struct {
	domain.ChatMessage
	Rank float64 `json:"rank"`
}

// Transcripts stores chat sessions and their messages.
type Transcripts struct {
	db  *DB
	now func() time.Time
}

// NewTranscripts creates a transcript store using the given database.
func NewTranscripts(db *DB) *Transcripts {
	return &Transcripts{db: db, now: time.Now}
}

// Create starts a new chat session for an agent/alias pair.
func (t *Transcripts) Create(agentID, aliasID string) (*domain.ChatSession, error) {
	now := t.now().UTC()
	sess := &domain.ChatSession{
		ID:        uuid.New().String(),
		AgentID:   agentID,
		AliasID:   aliasID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := t.db.sql.Exec(
		`INSERT INTO chat_sessions (id, agent_id, alias_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, agentID, aliasID, now.Format(time.DateTime), now.Format(time.DateTime),
	)
	if err != nil {
		return nil, fmt.Errorf("creating chat session: %w", err)
	}
	return sess, nil
}

// Get returns a session with its messages.
func (t *Transcripts) Get(id string) (*domain.ChatSession, error) {
	var sess domain.ChatSession
	var createdAt, updatedAt string
	err := t.db.sql.QueryRow(
		`SELECT id, agent_id, alias_id, created_at, updated_at FROM chat_sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.AgentID, &sess.AliasID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading chat session: %w", err)
	}
	sess.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	sess.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)

	sess.Messages, err = t.History(id)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Append adds a message to a session and bumps its updated time.
func (t *Transcripts) Append(msg domain.ChatMessage) error {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = t.now()
	}
	ts = ts.UTC()

	tx, err := t.db.sql.Begin()
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE chat_sessions SET updated_at = ? WHERE id = ?`,
		ts.Format(time.DateTime), msg.SessionID,
	)
	if err != nil {
		return fmt.Errorf("touching chat session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}

	if _, err := tx.Exec(
		`INSERT INTO chat_messages (session_id, agent_id, role, content, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.SessionID, msg.AgentID, msg.Role, msg.Content, ts.Format(time.DateTime),
	); err != nil {
		return fmt.Errorf("appending chat message: %w", err)
	}
	return tx.Commit()
}

// History returns a session's messages in the order they were appended.
func (t *Transcripts) History(sessionID string) ([]domain.ChatMessage, error) {
	rows, err := t.db.sql.Query(
		`SELECT session_id, agent_id, role, content, timestamp, 0
		 FROM chat_messages WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}
	defer rows.Close()

	hits, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	msgs := make([]domain.ChatMessage, len(hits))
	for i, h := range hits {
		msgs[i] = h.ChatMessage
	}
	return msgs, nil
}

// ListForAgent returns an agent's sessions, most recently active first.
// Messages are not loaded.
func (t *Transcripts) ListForAgent(agentID string, limit int) ([]domain.ChatSession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := t.db.sql.Query(
		`SELECT id, agent_id, alias_id, created_at, updated_at
		 FROM chat_sessions WHERE agent_id = ?
		 ORDER BY updated_at DESC, rowid DESC LIMIT ?`,
		agentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing chat sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.ChatSession
	for rows.Next() {
		var s domain.ChatSession
		var createdAt, updatedAt string
		if err := rows.Scan(&s.ID, &s.AgentID, &s.AliasID, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		s.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
		s.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Search runs a full-text query over message content. An empty agentID
// searches every agent. Limit of 0 defaults to 20.
func (t *Transcripts) Search(agentID, query string, limit int) ([]SearchHit, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := t.db.sql.Query(
		`SELECT m.session_id, m.agent_id, m.role, m.content, m.timestamp, rank
		 FROM chat_messages_fts
		 JOIN chat_messages m ON m.id = chat_messages_fts.rowid
		 WHERE chat_messages_fts MATCH ?
		   AND (? = '' OR m.agent_id = ?)
		 ORDER BY rank
		 LIMIT ?`,
		match, agentID, agentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching transcripts: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// ftsQuery turns free text into an FTS5 expression: every whitespace
// separated term becomes a quoted string, so punctuation is plain text and
// all terms must match.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, term := range terms {
		terms[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

// DeleteForAgent removes every session and message of an agent.
func (t *Transcripts) DeleteForAgent(agentID string) error {
	tx, err := t.db.sql.Begin()
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	// foreign_keys is per connection, so the cascade is not relied on.
	if _, err := tx.Exec(`DELETE FROM chat_messages WHERE agent_id = ?`, agentID); err != nil {
		return fmt.Errorf("deleting chat messages: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM chat_sessions WHERE agent_id = ?`, agentID); err != nil {
		return fmt.Errorf("deleting chat sessions: %w", err)
	}
	return tx.Commit()
}

func scanMessages(rows *sql.Rows) ([]SearchHit, error) {
	var out []SearchHit
	for rows.Next() {
		var h SearchHit
		var ts string
		if err := rows.Scan(&h.SessionID, &h.AgentID, &h.Role, &h.Content, &ts, &h.Rank); err != nil {
			return nil, err
		}
		h.Timestamp, _ = time.Parse(time.DateTime, ts)
		out = append(out, h)
	}
	return out, rows.Err()
}
