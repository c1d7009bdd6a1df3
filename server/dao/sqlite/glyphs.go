package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/etymolog/etymolog/server/dao"
)

// GlyphsDB is a sqlite-backed dao.GlyphRepository.
type GlyphsDB struct {
	db *sql.DB
}

func scanGlyph(row interface {
	Scan(...any) error
}) (dao.Glyph, error) {
	var g dao.Glyph
	var created, updated int64
	err := row.Scan(&g.ID, &g.Name, &g.SVGData, &g.Category, &g.Notes, &created, &updated)
	if err != nil {
		return dao.Glyph{}, wrapDBError(err)
	}
	g.CreatedAt = time.Unix(created, 0)
	g.UpdatedAt = time.Unix(updated, 0)
	return g, nil
}

func (r *GlyphsDB) Create(ctx context.Context, g dao.Glyph) (dao.Glyph, error) {
	now := time.Now().Unix()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO glyphs (name, svg_data, category, notes, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?);`,
		g.Name, g.SVGData, g.Category, g.Notes, now, now,
	)
	if err != nil {
		return dao.Glyph{}, wrapDBError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return dao.Glyph{}, wrapDBError(err)
	}
	return r.GetByID(ctx, id)
}

func (r *GlyphsDB) GetByID(ctx context.Context, id int64) (dao.Glyph, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, svg_data, category, notes, created_at, updated_at FROM glyphs WHERE id = ?;`, id)
	return scanGlyph(row)
}

func (r *GlyphsDB) GetAll(ctx context.Context) ([]dao.Glyph, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, svg_data, category, notes, created_at, updated_at FROM glyphs ORDER BY id ASC;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Glyph
	for rows.Next() {
		g, err := scanGlyph(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, g)
	}
	return all, wrapDBError(rows.Err())
}

func (r *GlyphsDB) GetAllWithUsage(ctx context.Context) ([]dao.GlyphUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.svg_data, g.category, g.notes, g.created_at, g.updated_at,
		       (SELECT count(*) FROM grapheme_glyphs gg WHERE gg.glyph_id = g.id) AS usage_count
		FROM glyphs g ORDER BY g.id ASC;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.GlyphUsage
	for rows.Next() {
		var gu dao.GlyphUsage
		var created, updated int64
		if err := rows.Scan(&gu.ID, &gu.Name, &gu.SVGData, &gu.Category, &gu.Notes, &created, &updated, &gu.UsageCount); err != nil {
			return nil, wrapDBError(err)
		}
		gu.CreatedAt = time.Unix(created, 0)
		gu.UpdatedAt = time.Unix(updated, 0)
		all = append(all, gu)
	}
	return all, wrapDBError(rows.Err())
}

func (r *GlyphsDB) Search(ctx context.Context, query string) ([]dao.Glyph, error) {
	like := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, svg_data, category, notes, created_at, updated_at FROM glyphs
		 WHERE name LIKE ? COLLATE NOCASE OR category LIKE ? COLLATE NOCASE ORDER BY id ASC;`, like, like)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Glyph
	for rows.Next() {
		g, err := scanGlyph(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, g)
	}
	return all, wrapDBError(rows.Err())
}

func (r *GlyphsDB) Update(ctx context.Context, id int64, g dao.Glyph) (dao.Glyph, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE glyphs SET name = ?, svg_data = ?, category = ?, notes = ?, updated_at = ? WHERE id = ?;`,
		g.Name, g.SVGData, g.Category, g.Notes, time.Now().Unix(), id,
	)
	if err != nil {
		return dao.Glyph{}, wrapDBError(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return dao.Glyph{}, wrapDBError(err)
	} else if n < 1 {
		return dao.Glyph{}, dao.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *GlyphsDB) UsageCount(ctx context.Context, id int64) (int, error) {
	var count int
	row := r.db.QueryRowContext(ctx, `SELECT count(*) FROM grapheme_glyphs WHERE glyph_id = ?;`, id)
	if err := row.Scan(&count); err != nil {
		return 0, wrapDBError(err)
	}
	return count, nil
}

func (r *GlyphsDB) Delete(ctx context.Context, id int64) error {
	count, err := r.UsageCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return dao.ErrConstraintViolation
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM glyphs WHERE id = ?;`, id)
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

func (r *GlyphsDB) ForceDelete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM grapheme_glyphs WHERE glyph_id = ?;`, id); err != nil {
		return wrapDBError(err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM glyphs WHERE id = ?;`, id)
	if err != nil {
		return wrapDBError(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return wrapDBError(err)
	} else if n < 1 {
		return dao.ErrNotFound
	}
	return wrapDBError(tx.Commit())
}

func (r *GlyphsDB) CascadeDelete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM graphemes WHERE id IN (SELECT grapheme_id FROM grapheme_glyphs WHERE glyph_id = ?);`, id); err != nil {
		return wrapDBError(err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM glyphs WHERE id = ?;`, id)
	if err != nil {
		return wrapDBError(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return wrapDBError(err)
	} else if n < 1 {
		return dao.ErrNotFound
	}
	return wrapDBError(tx.Commit())
}

func (r *GlyphsDB) NameExists(ctx context.Context, name string) (bool, error) {
	var count int
	row := r.db.QueryRowContext(ctx, `SELECT count(*) FROM glyphs WHERE name = ?;`, name)
	if err := row.Scan(&count); err != nil {
		return false, wrapDBError(err)
	}
	return count > 0, nil
}
