package store

import "context"

// Session roles for history entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HistoryEntry is one turn of conversation history.
type HistoryEntry struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// Session is the durable per-user conversation record. ActiveSubmodule is
// always a valid submodule of ActiveModule; transitions are validated by the
// bot layer before a session is saved.
type Session struct {
	UserID          string
	ActiveModule    string
	ActiveSubmodule string
	History         []HistoryEntry
	UpdatedTs       int64
}

// FindSession is the query object for sessions.
type FindSession struct {
	UserID string
}

func (s *Store) GetSession(ctx context.Context, find *FindSession) (*Session, error) {
	return s.driver.GetSession(ctx, find)
}

func (s *Store) UpsertSession(ctx context.Context, upsert *Session) (*Session, error) {
	return s.driver.UpsertSession(ctx, upsert)
}
