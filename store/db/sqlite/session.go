package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/gthalib/tulip/store"
)

func (d *DB) GetSession(ctx context.Context, find *store.FindSession) (*store.Session, error) {
	session := store.Session{UserID: find.UserID}
	var history string
	err := d.db.QueryRowContext(ctx, `
		SELECT active_module, active_submodule, history, updated_ts
		FROM session
		WHERE user_id = ?`,
		find.UserID,
	).Scan(&session.ActiveModule, &session.ActiveSubmodule, &history, &session.UpdatedTs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get session")
	}

	if err := json.Unmarshal([]byte(history), &session.History); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal session history")
	}
	return &session, nil
}

func (d *DB) UpsertSession(ctx context.Context, upsert *store.Session) (*store.Session, error) {
	history, err := json.Marshal(upsert.History)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal session history")
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO session (user_id, active_module, active_submodule, history, updated_ts)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			active_module = excluded.active_module,
			active_submodule = excluded.active_submodule,
			history = excluded.history,
			updated_ts = excluded.updated_ts`,
		upsert.UserID, upsert.ActiveModule, upsert.ActiveSubmodule, string(history), upsert.UpdatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert session")
	}
	return upsert, nil
}
