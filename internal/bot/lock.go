package bot

import "sync"

// userLocker serializes turns per user: a second message from the same user
// waits for the in-flight turn's save before its own load. Entries are
// reference counted so the map does not grow with the user population.
type userLocker struct {
	mu    sync.Mutex
	users map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocker() *userLocker {
	return &userLocker{users: map[string]*userLock{}}
}

// Lock acquires the lock for userID and returns its release func. The
// release must run on every exit path of a turn.
func (l *userLocker) Lock(userID string) func() {
	l.mu.Lock()
	entry, ok := l.users[userID]
	if !ok {
		entry = &userLock{}
		l.users[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.users, userID)
		}
		l.mu.Unlock()
	}
}
