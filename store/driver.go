package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Session model related methods.
	GetSession(ctx context.Context, find *FindSession) (*Session, error)
	UpsertSession(ctx context.Context, upsert *Session) (*Session, error)

	// Whitelist model related methods.
	AddWhitelistEntry(ctx context.Context, phoneNumber string) error
	RemoveWhitelistEntry(ctx context.Context, phoneNumber string) error
	HasWhitelistEntry(ctx context.Context, phoneNumber string) (bool, error)
	ListWhitelistEntries(ctx context.Context) ([]string, error)

	// InferenceModel model related methods.
	UpsertInferenceModel(ctx context.Context, upsert *InferenceModel) (*InferenceModel, error)
	ListInferenceModels(ctx context.Context, find *FindInferenceModel) ([]*InferenceModel, error)
	UpdateInferenceModelSuspension(ctx context.Context, update *UpdateInferenceModelSuspension) error
}
