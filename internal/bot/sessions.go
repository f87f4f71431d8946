package bot

import (
	"context"
	"time"

	"github.com/gthalib/tulip/plugin/ai/dispatch"
	"github.com/gthalib/tulip/store"
)

// SessionStore is the slice of the durable store the session service needs.
// *store.Store satisfies it.
type SessionStore interface {
	GetSession(ctx context.Context, find *store.FindSession) (*store.Session, error)
	UpsertSession(ctx context.Context, upsert *store.Session) (*store.Session, error)
}

// Sessions manages per-user session records. All mutations happen on the
// in-memory copy and are committed by a single Save; the router's per-user
// lock keeps concurrent turns from interleaving between Load and Save.
type Sessions struct {
	store    SessionStore
	tree     *dispatch.Tree
	capacity int
}

// NewSessions creates the session service. capacity bounds history length.
func NewSessions(store SessionStore, tree *dispatch.Tree, capacity int) *Sessions {
	return &Sessions{
		store:    store,
		tree:     tree,
		capacity: capacity,
	}
}

// Load returns the user's session, or a fresh default session positioned at
// (Base, Main) when none exists yet. Absence is not an error.
func (s *Sessions) Load(ctx context.Context, userID string) (*store.Session, error) {
	session, err := s.store.GetSession(ctx, &store.FindSession{UserID: userID})
	if err != nil {
		return nil, err
	}
	if session == nil {
		session = &store.Session{
			UserID:          userID,
			ActiveModule:    dispatch.ModuleBase,
			ActiveSubmodule: dispatch.SubmoduleMain,
		}
	}
	return session, nil
}

// AppendTurn appends one history entry, evicting the oldest once the
// capacity is exceeded.
func (s *Sessions) AppendTurn(session *store.Session, role, content string) {
	session.History = append(session.History, store.HistoryEntry{
		Role:    role,
		Content: content,
	})
	if overflow := len(session.History) - s.capacity; overflow > 0 {
		session.History = session.History[overflow:]
	}
}

// Transition moves the session to the given (module, submodule) pair after
// validating it against the dispatch tree.
func (s *Sessions) Transition(session *store.Session, module, submodule string) error {
	if !s.tree.ValidPair(module, submodule) {
		return ErrInvalidTransition
	}
	session.ActiveModule = module
	session.ActiveSubmodule = submodule
	return nil
}

// Save commits the session in a single atomic upsert.
func (s *Sessions) Save(ctx context.Context, session *store.Session) error {
	session.UpdatedTs = time.Now().Unix()
	_, err := s.store.UpsertSession(ctx, session)
	return err
}
