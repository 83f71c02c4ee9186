package folio

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dnnweb/folio/chat"
	"github.com/dnnweb/folio/status"
)

// ErrNotFound is returned when a snapshot or project does not exist.
var ErrNotFound = errors.New("not found")

// statusRetention bounds how long status checks are kept.
const statusRetention = 7 * 24 * time.Hour

// Store wraps the SQLite database holding content snapshots, the API
// status history and chat transcripts.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers run while a writer holds the lock; writers wait up to
	// busy_timeout instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS snapshots (
    key TEXT PRIMARY KEY,
    body TEXT NOT NULL,
    saved_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS status_checks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    state TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    checked_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_status_checks_checked_at ON status_checks(checked_at);
CREATE TABLE IF NOT EXISTS chat_messages (
    id TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    message TEXT NOT NULL,
    is_user INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    seq INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_messages_conversation ON chat_messages(conversation_id, seq);
`)
	return err
}

// SaveSnapshot stores v as the last good copy of the resource named key.
func (s *Store) SaveSnapshot(key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	_, err = s.db.Exec(`INSERT INTO snapshots (key, body, saved_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET body = excluded.body, saved_at = excluded.saved_at`,
		key, string(body), formatTime(time.Now()))
	return err
}

// LoadSnapshot decodes the snapshot named key into dst and returns when it
// was saved. It returns ErrNotFound when no snapshot exists.
func (s *Store) LoadSnapshot(key string, dst any) (time.Time, error) {
	var body, savedAt string
	err := s.db.QueryRow(`SELECT body, saved_at FROM snapshots WHERE key = ?`, key).Scan(&body, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return time.Time{}, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return parseTime(savedAt), nil
}

// RecordStatus appends a status check and prunes old history.
func (s *Store) RecordStatus(snap status.Snapshot) error {
	if _, err := s.db.Exec(`INSERT INTO status_checks (state, detail, checked_at) VALUES (?, ?, ?)`,
		string(snap.State), snap.Detail, formatTime(snap.CheckedAt)); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM status_checks WHERE checked_at < ?`,
		formatTime(snap.CheckedAt.Add(-statusRetention)))
	return err
}

// StatusHistory returns the most recent checks, newest first.
func (s *Store) StatusHistory(limit int) ([]status.Snapshot, error) {
	rows, err := s.db.Query(`SELECT state, detail, checked_at FROM status_checks ORDER BY checked_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []status.Snapshot
	for rows.Next() {
		var state, detail, checkedAt string
		if err := rows.Scan(&state, &detail, &checkedAt); err != nil {
			return nil, err
		}
		out = append(out, status.Snapshot{
			State:     status.State(state),
			Detail:    detail,
			CheckedAt: parseTime(checkedAt),
		})
	}
	return out, rows.Err()
}

// AppendMessage adds m to the end of a conversation.
func (s *Store) AppendMessage(conversationID string, m chat.Message) error {
	isUser := 0
	if m.IsUser {
		isUser = 1
	}
	_, err := s.db.Exec(`INSERT INTO chat_messages (id, conversation_id, message, is_user, created_at, seq)
VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM chat_messages WHERE conversation_id = ?))`,
		m.ID, conversationID, m.Message, isUser, formatTime(m.Timestamp), conversationID)
	return err
}

// ListMessages returns a conversation in the order it was written.
func (s *Store) ListMessages(conversationID string) ([]chat.Message, error) {
	rows, err := s.db.Query(`SELECT id, message, is_user, created_at FROM chat_messages WHERE conversation_id = ? ORDER BY seq`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chat.Message
	for rows.Next() {
		var m chat.Message
		var isUser int
		var createdAt string
		if err := rows.Scan(&m.ID, &m.Message, &isUser, &createdAt); err != nil {
			return nil, err
		}
		m.IsUser = isUser == 1
		m.Timestamp = parseTime(createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteConversationsBefore removes conversations whose last message is older than cutoff.
func (s *Store) DeleteConversationsBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM chat_messages WHERE conversation_id IN (
    SELECT conversation_id FROM chat_messages GROUP BY conversation_id HAVING MAX(created_at) < ?
)`, formatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// timestamps are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
