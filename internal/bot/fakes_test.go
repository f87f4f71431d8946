package bot

import (
	"context"

	"github.com/gthalib/tulip/plugin/ai/classifier"
	"github.com/gthalib/tulip/store"
)

// fakeSessionStore is an in-memory SessionStore.
type fakeSessionStore struct {
	sessions map[string]*store.Session
	getErr   error
	saveErr  error
	saves    int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]*store.Session{}}
}

func (f *fakeSessionStore) GetSession(_ context.Context, find *store.FindSession) (*store.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	session, ok := f.sessions[find.UserID]
	if !ok {
		return nil, nil
	}
	copied := *session
	copied.History = append([]store.HistoryEntry(nil), session.History...)
	return &copied, nil
}

func (f *fakeSessionStore) UpsertSession(_ context.Context, upsert *store.Session) (*store.Session, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	copied := *upsert
	copied.History = append([]store.HistoryEntry(nil), upsert.History...)
	f.sessions[upsert.UserID] = &copied
	f.saves++
	return upsert, nil
}

// fakeWhitelistStore is an in-memory, order-preserving WhitelistStore.
type fakeWhitelistStore struct {
	entries   []string
	addErr    error
	removeErr error
	listErr   error
}

func (f *fakeWhitelistStore) AddWhitelistEntry(_ context.Context, phoneNumber string) error {
	if f.addErr != nil {
		return f.addErr
	}
	for _, entry := range f.entries {
		if entry == phoneNumber {
			return nil
		}
	}
	f.entries = append(f.entries, phoneNumber)
	return nil
}

func (f *fakeWhitelistStore) RemoveWhitelistEntry(_ context.Context, phoneNumber string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	kept := f.entries[:0]
	for _, entry := range f.entries {
		if entry != phoneNumber {
			kept = append(kept, entry)
		}
	}
	f.entries = kept
	return nil
}

func (f *fakeWhitelistStore) ListWhitelistEntries(_ context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.entries...), nil
}

// fakeClassifier returns a scripted result or error, optionally through a
// hook so tests can observe or block in-flight turns.
type fakeClassifier struct {
	result *classifier.Result
	err    error
	hook   func(ctx context.Context, session *store.Session, message string)
}

func (f *fakeClassifier) Classify(ctx context.Context, session *store.Session, message string) (*classifier.Result, error) {
	if f.hook != nil {
		f.hook(ctx, session, message)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}
