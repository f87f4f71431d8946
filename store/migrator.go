package store

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
)

// Schema is intentionally small enough to bootstrap with plain DDL instead of
// versioned migration files. Every statement is idempotent.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS session (
		user_id TEXT PRIMARY KEY,
		active_module TEXT NOT NULL DEFAULT 'Base',
		active_submodule TEXT NOT NULL DEFAULT 'Main',
		history TEXT NOT NULL DEFAULT '[]',
		updated_ts BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS whitelist (
		phone_number TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS inference_model (
		name TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		rank INTEGER NOT NULL DEFAULT 0,
		suspended_until BIGINT,
		error_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT NOT NULL DEFAULT ''
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS session (
		user_id TEXT PRIMARY KEY,
		active_module TEXT NOT NULL DEFAULT 'Base',
		active_submodule TEXT NOT NULL DEFAULT 'Main',
		history TEXT NOT NULL DEFAULT '[]',
		updated_ts BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS whitelist (
		phone_number TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS inference_model (
		name TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		rank INTEGER NOT NULL DEFAULT 0,
		suspended_until BIGINT,
		error_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT NOT NULL DEFAULT ''
	)`,
}

// Migrate applies the schema for the configured driver.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check store initialization")
	}
	if initialized {
		return nil
	}

	var schema []string
	switch s.profile.Driver {
	case "sqlite":
		schema = sqliteSchema
	case "postgres":
		schema = postgresSchema
	default:
		return errors.Errorf("unknown db driver %q: only 'sqlite' and 'postgres' are supported", s.profile.Driver)
	}

	db := s.driver.GetDB()
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to apply schema")
		}
	}

	slog.Info("store schema initialized", "driver", s.profile.Driver)
	return nil
}
