package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/etymolog/etymolog/server/dao"
)

// GraphemesDB is a sqlite-backed dao.GraphemeRepository. It shares its
// phoneme reads with PhonemesDB rather than duplicating scan logic.
type GraphemesDB struct {
	db       *sql.DB
	phonemes *PhonemesDB
}

func scanGrapheme(row interface{ Scan(...any) error }) (dao.Grapheme, error) {
	var g dao.Grapheme
	var created, updated int64
	err := row.Scan(&g.ID, &g.Name, &g.Category, &g.Notes, &created, &updated)
	if err != nil {
		return dao.Grapheme{}, wrapDBError(err)
	}
	g.CreatedAt = time.Unix(created, 0)
	g.UpdatedAt = time.Unix(updated, 0)
	return g, nil
}

func (r *GraphemesDB) glyphsOf(ctx context.Context, id int64) ([]dao.GraphemeGlyph, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT glyph_id, position, transform FROM grapheme_glyphs WHERE grapheme_id = ? ORDER BY position ASC;`, id)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var out []dao.GraphemeGlyph
	for rows.Next() {
		var gg dao.GraphemeGlyph
		if err := rows.Scan(&gg.GlyphID, &gg.Position, &gg.Transform); err != nil {
			return nil, wrapDBError(err)
		}
		out = append(out, gg)
	}
	return out, wrapDBError(rows.Err())
}

func (r *GraphemesDB) replaceGlyphs(ctx context.Context, tx *sql.Tx, id int64, glyphs []dao.GraphemeGlyph) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM grapheme_glyphs WHERE grapheme_id = ?;`, id); err != nil {
		return wrapDBError(err)
	}
	for _, gg := range glyphs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO grapheme_glyphs (grapheme_id, glyph_id, position, transform) VALUES (?, ?, ?, ?);`,
			id, gg.GlyphID, gg.Position, gg.Transform,
		); err != nil {
			return wrapDBError(err)
		}
	}
	return nil
}

func (r *GraphemesDB) Create(ctx context.Context, g dao.Grapheme, glyphs []dao.GraphemeGlyph, phonemes []dao.Phoneme) (dao.GraphemeComplete, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return dao.GraphemeComplete{}, wrapDBError(err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO graphemes (name, category, notes, created_at, updated_at) VALUES (?, ?, ?, ?, ?);`,
		g.Name, g.Category, g.Notes, now, now,
	)
	if err != nil {
		return dao.GraphemeComplete{}, wrapDBError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return dao.GraphemeComplete{}, wrapDBError(err)
	}

	if err := r.replaceGlyphs(ctx, tx, id, glyphs); err != nil {
		return dao.GraphemeComplete{}, err
	}

	var storedPhonemes []dao.Phoneme
	for _, p := range phonemes {
		pres, err := tx.ExecContext(ctx,
			`INSERT INTO phonemes (grapheme_id, phoneme, use_in_auto_spelling, context) VALUES (?, ?, ?, ?);`,
			id, p.Phoneme, boolToInt(p.UseInAutoSpelling), p.Context,
		)
		if err != nil {
			return dao.GraphemeComplete{}, wrapDBError(err)
		}
		pid, err := pres.LastInsertId()
		if err != nil {
			return dao.GraphemeComplete{}, wrapDBError(err)
		}
		p.ID = pid
		p.GraphemeID = id
		storedPhonemes = append(storedPhonemes, p)
	}

	if err := tx.Commit(); err != nil {
		return dao.GraphemeComplete{}, wrapDBError(err)
	}

	complete, err := r.GetByIDComplete(ctx, id)
	if err != nil {
		return dao.GraphemeComplete{}, err
	}
	return complete, nil
}

func (r *GraphemesDB) GetByID(ctx context.Context, id int64) (dao.Grapheme, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, category, notes, created_at, updated_at FROM graphemes WHERE id = ?;`, id)
	return scanGrapheme(row)
}

func (r *GraphemesDB) GetByIDComplete(ctx context.Context, id int64) (dao.GraphemeComplete, error) {
	g, err := r.GetByID(ctx, id)
	if err != nil {
		return dao.GraphemeComplete{}, err
	}
	glyphs, err := r.glyphsOf(ctx, id)
	if err != nil {
		return dao.GraphemeComplete{}, err
	}
	phonemes, err := r.phonemes.GetByGraphemeID(ctx, id)
	if err != nil {
		return dao.GraphemeComplete{}, err
	}
	return dao.GraphemeComplete{Grapheme: g, Glyphs: glyphs, Phonemes: phonemes}, nil
}

func (r *GraphemesDB) GetAll(ctx context.Context) ([]dao.Grapheme, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, category, notes, created_at, updated_at FROM graphemes ORDER BY id ASC;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Grapheme
	for rows.Next() {
		g, err := scanGrapheme(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, g)
	}
	return all, wrapDBError(rows.Err())
}

func (r *GraphemesDB) GetAllComplete(ctx context.Context) ([]dao.GraphemeComplete, error) {
	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dao.GraphemeComplete, len(all))
	for i, g := range all {
		glyphs, err := r.glyphsOf(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		phonemes, err := r.phonemes.GetByGraphemeID(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		out[i] = dao.GraphemeComplete{Grapheme: g, Glyphs: glyphs, Phonemes: phonemes}
	}
	return out, nil
}

func (r *GraphemesDB) Search(ctx context.Context, query string) ([]dao.Grapheme, error) {
	like := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, category, notes, created_at, updated_at FROM graphemes
		 WHERE name LIKE ? COLLATE NOCASE OR category LIKE ? COLLATE NOCASE ORDER BY id ASC;`, like, like)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Grapheme
	for rows.Next() {
		g, err := scanGrapheme(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, g)
	}
	return all, wrapDBError(rows.Err())
}

func (r *GraphemesDB) Update(ctx context.Context, id int64, g dao.Grapheme) (dao.Grapheme, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE graphemes SET name = ?, category = ?, notes = ?, updated_at = ? WHERE id = ?;`,
		g.Name, g.Category, g.Notes, time.Now().Unix(), id,
	)
	if err != nil {
		return dao.Grapheme{}, wrapDBError(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return dao.Grapheme{}, wrapDBError(err)
	} else if n < 1 {
		return dao.Grapheme{}, dao.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *GraphemesDB) UpdateGlyphs(ctx context.Context, id int64, glyphs []dao.GraphemeGlyph) (dao.GraphemeComplete, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return dao.GraphemeComplete{}, wrapDBError(err)
	}
	defer tx.Rollback()

	if err := r.replaceGlyphs(ctx, tx, id, glyphs); err != nil {
		return dao.GraphemeComplete{}, err
	}
	res, err := tx.ExecContext(ctx, `UPDATE graphemes SET updated_at = ? WHERE id = ?;`, time.Now().Unix(), id)
	if err != nil {
		return dao.GraphemeComplete{}, wrapDBError(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return dao.GraphemeComplete{}, wrapDBError(err)
	} else if n < 1 {
		return dao.GraphemeComplete{}, dao.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return dao.GraphemeComplete{}, wrapDBError(err)
	}
	return r.GetByIDComplete(ctx, id)
}

// Delete fails with dao.ErrConstraintViolation if any lexicon entry's
// spelling junction references id. Checking the junction (rather than
// relying on a foreign key) matches the derived, rebuilt-on-write nature
// of lexicon_spelling: it holds grapheme ids as plain integers, not a
// foreign key, because a grapheme-ref can outlive its grapheme between a
// deletion and the repair protocol's rewrite (§4.4).
func (r *GraphemesDB) Delete(ctx context.Context, id int64) error {
	var count int
	row := r.db.QueryRowContext(ctx, `SELECT count(*) FROM lexicon_spelling WHERE grapheme_id = ?;`, id)
	if err := row.Scan(&count); err != nil {
		return wrapDBError(err)
	}
	if count > 0 {
		return dao.ErrConstraintViolation
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM graphemes WHERE id = ?;`, id)
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

func (r *GraphemesDB) GetByPhoneme(ctx context.Context, phoneme string) ([]dao.Grapheme, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT g.id, g.name, g.category, g.notes, g.created_at, g.updated_at
		FROM graphemes g JOIN phonemes p ON p.grapheme_id = g.id
		WHERE p.phoneme = ? ORDER BY g.id ASC;`, phoneme)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var out []dao.Grapheme
	for rows.Next() {
		g, err := scanGrapheme(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, wrapDBError(rows.Err())
}

func (r *GraphemesDB) GlyphIDs(ctx context.Context, id int64) ([]int64, error) {
	glyphs, err := r.glyphsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(glyphs))
	for i, gg := range glyphs {
		out[i] = gg.GlyphID
	}
	return out, nil
}
