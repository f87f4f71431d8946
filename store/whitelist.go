package store

import "context"

// The whitelist is a set of phone numbers allowed to talk to the bot.
// Adds and removes are idempotent at the storage layer; insertion order
// is not preserved.

func (s *Store) AddWhitelistEntry(ctx context.Context, phoneNumber string) error {
	return s.driver.AddWhitelistEntry(ctx, phoneNumber)
}

func (s *Store) RemoveWhitelistEntry(ctx context.Context, phoneNumber string) error {
	return s.driver.RemoveWhitelistEntry(ctx, phoneNumber)
}

func (s *Store) HasWhitelistEntry(ctx context.Context, phoneNumber string) (bool, error) {
	return s.driver.HasWhitelistEntry(ctx, phoneNumber)
}

func (s *Store) ListWhitelistEntries(ctx context.Context) ([]string, error) {
	return s.driver.ListWhitelistEntries(ctx)
}
