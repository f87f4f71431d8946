package sqlite

import (
	"context"

	"github.com/pkg/errors"
)

func (d *DB) AddWhitelistEntry(ctx context.Context, phoneNumber string) error {
	_, err := d.db.ExecContext(ctx,
		"INSERT INTO whitelist (phone_number) VALUES (?) ON CONFLICT (phone_number) DO NOTHING",
		phoneNumber,
	)
	if err != nil {
		return errors.Wrap(err, "failed to add whitelist entry")
	}
	return nil
}

func (d *DB) RemoveWhitelistEntry(ctx context.Context, phoneNumber string) error {
	_, err := d.db.ExecContext(ctx,
		"DELETE FROM whitelist WHERE phone_number = ?",
		phoneNumber,
	)
	if err != nil {
		return errors.Wrap(err, "failed to remove whitelist entry")
	}
	return nil
}

func (d *DB) HasWhitelistEntry(ctx context.Context, phoneNumber string) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM whitelist WHERE phone_number = ?)",
		phoneNumber,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check whitelist entry")
	}
	return exists, nil
}

func (d *DB) ListWhitelistEntries(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT phone_number FROM whitelist ORDER BY phone_number")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list whitelist entries")
	}
	defer rows.Close()

	var list []string
	for rows.Next() {
		var phoneNumber string
		if err := rows.Scan(&phoneNumber); err != nil {
			return nil, errors.Wrap(err, "failed to scan whitelist entry")
		}
		list = append(list, phoneNumber)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate whitelist entries")
	}
	return list, nil
}
