package sqlite

import (
	"context"
	"database/sql"

	"github.com/etymolog/etymolog/server/dao"
)

// PhonemesDB is a sqlite-backed dao.PhonemeRepository.
type PhonemesDB struct {
	db *sql.DB
}

func scanPhoneme(row interface{ Scan(...any) error }) (dao.Phoneme, error) {
	var p dao.Phoneme
	var useAuto int
	err := row.Scan(&p.ID, &p.GraphemeID, &p.Phoneme, &useAuto, &p.Context)
	if err != nil {
		return dao.Phoneme{}, wrapDBError(err)
	}
	p.UseInAutoSpelling = useAuto != 0
	return p, nil
}

func (r *PhonemesDB) Add(ctx context.Context, p dao.Phoneme) (dao.Phoneme, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO phonemes (grapheme_id, phoneme, use_in_auto_spelling, context) VALUES (?, ?, ?, ?);`,
		p.GraphemeID, p.Phoneme, boolToInt(p.UseInAutoSpelling), p.Context,
	)
	if err != nil {
		return dao.Phoneme{}, wrapDBError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return dao.Phoneme{}, wrapDBError(err)
	}
	return r.GetByID(ctx, id)
}

func (r *PhonemesDB) GetByID(ctx context.Context, id int64) (dao.Phoneme, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, grapheme_id, phoneme, use_in_auto_spelling, context FROM phonemes WHERE id = ?;`, id)
	return scanPhoneme(row)
}

func (r *PhonemesDB) GetByGraphemeID(ctx context.Context, graphemeID int64) ([]dao.Phoneme, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, grapheme_id, phoneme, use_in_auto_spelling, context FROM phonemes WHERE grapheme_id = ? ORDER BY id ASC;`, graphemeID)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var out []dao.Phoneme
	for rows.Next() {
		p, err := scanPhoneme(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, wrapDBError(rows.Err())
}

func (r *PhonemesDB) Update(ctx context.Context, id int64, p dao.Phoneme) (dao.Phoneme, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE phonemes SET phoneme = ?, use_in_auto_spelling = ?, context = ? WHERE id = ?;`,
		p.Phoneme, boolToInt(p.UseInAutoSpelling), p.Context, id,
	)
	if err != nil {
		return dao.Phoneme{}, wrapDBError(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return dao.Phoneme{}, wrapDBError(err)
	} else if n < 1 {
		return dao.Phoneme{}, dao.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *PhonemesDB) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM phonemes WHERE id = ?;`, id)
	if err != nil {
		return wrapDBError(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return wrapDBError(err)
	} else if n < 1 {
		return dao.ErrNotFound
	}
	return nil
}

func (r *PhonemesDB) DeleteAllForGrapheme(ctx context.Context, graphemeID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM phonemes WHERE grapheme_id = ?;`, graphemeID)
	return wrapDBError(err)
}

func (r *PhonemesDB) GetAutoSpelling(ctx context.Context) ([]dao.Phoneme, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, grapheme_id, phoneme, use_in_auto_spelling, context FROM phonemes WHERE use_in_auto_spelling = 1 ORDER BY id ASC;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var out []dao.Phoneme
	for rows.Next() {
		p, err := scanPhoneme(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, wrapDBError(rows.Err())
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
