package sqlite

import (
	"context"
	"database/sql"
)

// SettingsDB is a sqlite-backed dao.SettingsRepository, persisting the
// settings bag as a single-row opaque JSON blob.
type SettingsDB struct {
	db *sql.DB
}

func (r *SettingsDB) Load(ctx context.Context) (string, error) {
	var data string
	row := r.db.QueryRowContext(ctx, `SELECT data FROM settings WHERE id = 1;`)
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return "{}", nil
		}
		return "", wrapDBError(err)
	}
	return data, nil
}

func (r *SettingsDB) Save(ctx context.Context, json string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (id, data) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data;`, json)
	return wrapDBError(err)
}
