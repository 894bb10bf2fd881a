// Package sessionstore persists a reference agent's session history —
// messages and tool call records — to a SQLite database, so a session
// started in one process can be resumed by session/load in another.
package sessionstore

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"acp"
)

// Message represents a single message in a session's conversation history.
type Message struct {
	Role      string // "user", "agent", "system"
	Content   string
	Timestamp time.Time
}

// ToolCallRecord tracks a tool invocation made during a session.
type ToolCallRecord struct {
	ID        acp.ToolCallID
	Title     string
	Kind      string
	Status    string
	Content   string // summary of the result
	Timestamp time.Time
}

// SessionRecord holds the full state of a single agent session including
// its conversation history and tool call records.
type SessionRecord struct {
	ID        acp.SessionID
	CWD       string
	Messages  []Message
	ToolCalls []ToolCallRecord
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists session records to a SQLite database opened at path (use
// ":memory:" for a process-local, non-persisted store in tests).
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if necessary) the SQLite database at path and
// ensures its schema exists.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sessionstore: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	cwd TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	session_id TEXT NOT NULL REFERENCES sessions(id),
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS tool_calls (
	session_id TEXT NOT NULL REFERENCES sessions(id),
	tool_call_id TEXT NOT NULL,
	title TEXT NOT NULL,
	kind TEXT NOT NULL,
	status TEXT NOT NULL,
	content TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);
`
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("sessionstore: migrate: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Create inserts a new session record. If a session with the given ID
// already exists it is overwritten.
func (s *Store) Create(id acp.SessionID, cwd string) (*SessionRecord, error) {
	now := time.Now()
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO sessions (id, cwd, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		string(id), cwd, now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("sessionstore: create %s: %w", id, err)
	}
	return &SessionRecord{ID: id, CWD: cwd, CreatedAt: now, UpdatedAt: now}, nil
}

// Get loads a session and its full history, or returns (nil, nil) if it
// does not exist.
func (s *Store) Get(id acp.SessionID) (*SessionRecord, error) {
	row := s.db.QueryRow(`SELECT cwd, created_at, updated_at FROM sessions WHERE id = ?`, string(id))
	var cwd string
	var createdAt, updatedAt int64
	switch err := row.Scan(&cwd, &createdAt, &updatedAt); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
	default:
		return nil, fmt.Errorf("sessionstore: get %s: %w", id, err)
	}

	rec := &SessionRecord{
		ID:        id,
		CWD:       cwd,
		CreatedAt: time.Unix(0, createdAt),
		UpdatedAt: time.Unix(0, updatedAt),
	}

	msgs, err := s.db.Query(`SELECT role, content, timestamp FROM messages WHERE session_id = ? ORDER BY timestamp`, string(id))
	if err != nil {
		return nil, fmt.Errorf("sessionstore: load messages for %s: %w", id, err)
	}
	defer msgs.Close()
	for msgs.Next() {
		var m Message
		var ts int64
		if err := msgs.Scan(&m.Role, &m.Content, &ts); err != nil {
			return nil, fmt.Errorf("sessionstore: scan message for %s: %w", id, err)
		}
		m.Timestamp = time.Unix(0, ts)
		rec.Messages = append(rec.Messages, m)
	}

	tcs, err := s.db.Query(`SELECT tool_call_id, title, kind, status, content, timestamp FROM tool_calls WHERE session_id = ? ORDER BY timestamp`, string(id))
	if err != nil {
		return nil, fmt.Errorf("sessionstore: load tool calls for %s: %w", id, err)
	}
	defer tcs.Close()
	for tcs.Next() {
		var tc ToolCallRecord
		var ts int64
		if err := tcs.Scan(&tc.ID, &tc.Title, &tc.Kind, &tc.Status, &tc.Content, &ts); err != nil {
			return nil, fmt.Errorf("sessionstore: scan tool call for %s: %w", id, err)
		}
		tc.Timestamp = time.Unix(0, ts)
		rec.ToolCalls = append(rec.ToolCalls, tc)
	}

	return rec, nil
}

// AddMessage appends a message to the session's conversation history.
func (s *Store) AddMessage(sessionID acp.SessionID, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO messages (session_id, role, content, timestamp) VALUES (?, ?, ?, ?)`,
		string(sessionID), msg.Role, msg.Content, msg.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sessionstore: add message to %s: %w", sessionID, err)
	}
	return s.touch(sessionID)
}

// AddToolCall appends a tool call record to the session.
func (s *Store) AddToolCall(sessionID acp.SessionID, tc ToolCallRecord) error {
	if tc.Timestamp.IsZero() {
		tc.Timestamp = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO tool_calls (session_id, tool_call_id, title, kind, status, content, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(sessionID), string(tc.ID), tc.Title, tc.Kind, tc.Status, tc.Content, tc.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sessionstore: add tool call to %s: %w", sessionID, err)
	}
	return s.touch(sessionID)
}

// UpdateToolCall finds the most recent tool call record with the given ID
// within the session and updates its status and content fields, preserving
// the "present field overwrites, absent field preserved" semantics the wire
// protocol's ToolCallUpdate carries (empty status/content leave the
// existing value in place).
func (s *Store) UpdateToolCall(sessionID acp.SessionID, toolCallID acp.ToolCallID, status, content string) error {
	if status == "" && content == "" {
		return nil
	}

	var query string
	var args []any
	switch {
	case status != "" && content != "":
		query = `UPDATE tool_calls SET status = ?, content = ? WHERE session_id = ? AND tool_call_id = ? AND timestamp = (SELECT MAX(timestamp) FROM tool_calls WHERE session_id = ? AND tool_call_id = ?)`
		args = []any{status, content, string(sessionID), string(toolCallID), string(sessionID), string(toolCallID)}
	case status != "":
		query = `UPDATE tool_calls SET status = ? WHERE session_id = ? AND tool_call_id = ? AND timestamp = (SELECT MAX(timestamp) FROM tool_calls WHERE session_id = ? AND tool_call_id = ?)`
		args = []any{status, string(sessionID), string(toolCallID), string(sessionID), string(toolCallID)}
	default:
		query = `UPDATE tool_calls SET content = ? WHERE session_id = ? AND tool_call_id = ? AND timestamp = (SELECT MAX(timestamp) FROM tool_calls WHERE session_id = ? AND tool_call_id = ?)`
		args = []any{content, string(sessionID), string(toolCallID), string(sessionID), string(toolCallID)}
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("sessionstore: update tool call %s/%s: %w", sessionID, toolCallID, err)
	}
	return s.touch(sessionID)
}

func (s *Store) touch(sessionID acp.SessionID) error {
	_, err := s.db.Exec(`UPDATE sessions SET updated_at = ? WHERE id = ?`, time.Now().UnixNano(), string(sessionID))
	if err != nil {
		return fmt.Errorf("sessionstore: touch %s: %w", sessionID, err)
	}
	return nil
}

// List returns every session's ID and CWD, ordered by creation time.
func (s *Store) List() ([]*SessionRecord, error) {
	rows, err := s.db.Query(`SELECT id, cwd, created_at, updated_at FROM sessions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("sessionstore: list: %w", err)
	}
	defer rows.Close()

	var out []*SessionRecord
	for rows.Next() {
		var id, cwd string
		var createdAt, updatedAt int64
		if err := rows.Scan(&id, &cwd, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("sessionstore: scan list row: %w", err)
		}
		out = append(out, &SessionRecord{
			ID:        acp.SessionID(id),
			CWD:       cwd,
			CreatedAt: time.Unix(0, createdAt),
			UpdatedAt: time.Unix(0, updatedAt),
		})
	}
	return out, nil
}

// Delete removes a session and its history.
func (s *Store) Delete(id acp.SessionID) error {
	if _, err := s.db.Exec(`DELETE FROM tool_calls WHERE session_id = ?`, string(id)); err != nil {
		return fmt.Errorf("sessionstore: delete tool calls for %s: %w", id, err)
	}
	if _, err := s.db.Exec(`DELETE FROM messages WHERE session_id = ?`, string(id)); err != nil {
		return fmt.Errorf("sessionstore: delete messages for %s: %w", id, err)
	}
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, string(id)); err != nil {
		return fmt.Errorf("sessionstore: delete session %s: %w", id, err)
	}
	return nil
}
