package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/gthalib/tulip/store"
)

func (d *DB) UpsertInferenceModel(ctx context.Context, upsert *store.InferenceModel) (*store.InferenceModel, error) {
	// Suspension state is preserved on re-registration so a restart does not
	// reset a suspended backend.
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO inference_model (name, provider, rank)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			provider = excluded.provider,
			rank = excluded.rank`,
		upsert.Name, upsert.Provider, upsert.Rank,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert inference model")
	}
	return upsert, nil
}

func (d *DB) ListInferenceModels(ctx context.Context, find *store.FindInferenceModel) ([]*store.InferenceModel, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.Name != nil {
		where, args = append(where, "name = ?"), append(args, *find.Name)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT name, provider, rank, suspended_until, error_count, last_error
		FROM inference_model
		WHERE `+joinAnd(where)+`
		ORDER BY rank`,
		args...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list inference models")
	}
	defer rows.Close()

	var list []*store.InferenceModel
	for rows.Next() {
		var model store.InferenceModel
		var suspendedUntil sql.NullInt64
		if err := rows.Scan(
			&model.Name,
			&model.Provider,
			&model.Rank,
			&suspendedUntil,
			&model.ErrorCount,
			&model.LastError,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan inference model")
		}
		if suspendedUntil.Valid {
			ts := time.Unix(suspendedUntil.Int64, 0)
			model.SuspendedUntil = &ts
		}
		list = append(list, &model)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate inference models")
	}
	return list, nil
}

func (d *DB) UpdateInferenceModelSuspension(ctx context.Context, update *store.UpdateInferenceModelSuspension) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE inference_model
		SET suspended_until = ?, error_count = error_count + 1, last_error = ?
		WHERE name = ?`,
		update.SuspendedUntil.Unix(), update.LastError, update.Name,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update inference model suspension")
	}
	return nil
}
