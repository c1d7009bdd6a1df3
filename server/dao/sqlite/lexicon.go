package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/etymolog/etymolog/internal/ancestry"
	"github.com/etymolog/etymolog/internal/spelling"
	"github.com/etymolog/etymolog/server/dao"
)

// LexiconDB is a sqlite-backed dao.LexiconRepository. It owns the
// lexicon table, the derived lexicon_spelling junction, the
// lexicon_ancestry adjacency, and the lexicon_ancestry_closure
// materialization.
type LexiconDB struct {
	db *sql.DB
}

// encodeGraphemeRefs is the schema migration's helper for turning a
// list of grapheme ids (e.g. from the legacy junction, ordered by
// position) into a glyph_order payload of pure grapheme-refs.
func encodeGraphemeRefs(ids []int64) string {
	entries := make([]spelling.Entry, len(ids))
	for i, id := range ids {
		entries[i] = spelling.NewGraphemeRef(id)
	}
	return spelling.Encode(entries)
}

func scanLexicon(row interface{ Scan(...any) error }) (dao.Lexicon, error) {
	var l dao.Lexicon
	var isNative, autoSpell, needsAttention int
	var created, updated int64
	err := row.Scan(&l.ID, &l.Lemma, &l.Pronunciation, &isNative, &autoSpell, &l.Meaning,
		&l.PartOfSpeech, &l.Notes, &l.GlyphOrder, &needsAttention, &created, &updated)
	if err != nil {
		return dao.Lexicon{}, wrapDBError(err)
	}
	l.IsNative = isNative != 0
	l.AutoSpell = autoSpell != 0
	l.NeedsAttention = needsAttention != 0
	l.CreatedAt = time.Unix(created, 0)
	l.UpdatedAt = time.Unix(updated, 0)
	return l, nil
}

const lexiconColumns = `id, lemma, pronunciation, is_native, auto_spell, meaning, part_of_speech, notes, glyph_order, needs_attention, created_at, updated_at`

// rebuildJunction deletes and reinserts lexicon_spelling rows for id
// from glyphOrder, one row per unique grapheme id in first-appearance
// order, per §4.4's rebuild-on-every-write contract.
func (r *LexiconDB) rebuildJunction(ctx context.Context, tx *sql.Tx, id int64, glyphOrder string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM lexicon_spelling WHERE lexicon_id = ?;`, id); err != nil {
		return wrapDBError(err)
	}
	ids := spelling.GraphemeIDSet(spelling.Decode(glyphOrder))
	for pos, gid := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lexicon_spelling (lexicon_id, grapheme_id, position) VALUES (?, ?, ?);`,
			id, gid, pos,
		); err != nil {
			return wrapDBError(err)
		}
	}
	return nil
}

func (r *LexiconDB) Create(ctx context.Context, l dao.Lexicon) (dao.Lexicon, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return dao.Lexicon{}, wrapDBError(err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	if l.GlyphOrder == "" {
		l.GlyphOrder = "[]"
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO lexicon (lemma, pronunciation, is_native, auto_spell, meaning, part_of_speech, notes, glyph_order, needs_attention, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		l.Lemma, l.Pronunciation, boolToInt(l.IsNative), boolToInt(l.AutoSpell), l.Meaning, l.PartOfSpeech,
		l.Notes, l.GlyphOrder, boolToInt(l.NeedsAttention), now, now,
	)
	if err != nil {
		return dao.Lexicon{}, wrapDBError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return dao.Lexicon{}, wrapDBError(err)
	}
	if err := r.rebuildJunction(ctx, tx, id, l.GlyphOrder); err != nil {
		return dao.Lexicon{}, err
	}
	if err := tx.Commit(); err != nil {
		return dao.Lexicon{}, wrapDBError(err)
	}
	return r.GetByID(ctx, id)
}

func (r *LexiconDB) GetByID(ctx context.Context, id int64) (dao.Lexicon, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+lexiconColumns+` FROM lexicon WHERE id = ?;`, id)
	return scanLexicon(row)
}

func (r *LexiconDB) queryAll(ctx context.Context, where string, args ...any) ([]dao.Lexicon, error) {
	query := `SELECT ` + lexiconColumns + ` FROM lexicon`
	if where != "" {
		query += " WHERE " + where
	}
	query += ` ORDER BY needs_attention DESC, lower(coalesce(nullif(pronunciation, ''), lemma)) ASC;`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Lexicon
	for rows.Next() {
		l, err := scanLexicon(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, l)
	}
	return all, wrapDBError(rows.Err())
}

func (r *LexiconDB) GetAll(ctx context.Context) ([]dao.Lexicon, error) {
	return r.queryAll(ctx, "")
}

func (r *LexiconDB) GetAllWithUsage(ctx context.Context) ([]dao.LexiconUsage, error) {
	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dao.LexiconUsage, len(all))
	for i, l := range all {
		var count int
		row := r.db.QueryRowContext(ctx, `SELECT count(*) FROM lexicon_ancestry_closure WHERE ancestor_id = ?;`, l.ID)
		if err := row.Scan(&count); err != nil {
			return nil, wrapDBError(err)
		}
		out[i] = dao.LexiconUsage{Lexicon: l, UsageCount: count}
	}
	return out, nil
}

func (r *LexiconDB) Search(ctx context.Context, query string) ([]dao.Lexicon, error) {
	like := "%" + query + "%"
	return r.queryAll(ctx,
		"lemma LIKE ? COLLATE NOCASE OR pronunciation LIKE ? COLLATE NOCASE OR meaning LIKE ? COLLATE NOCASE",
		like, like, like)
}

func (r *LexiconDB) GetByNative(ctx context.Context, isNative bool) ([]dao.Lexicon, error) {
	return r.queryAll(ctx, "is_native = ?", boolToInt(isNative))
}

func (r *LexiconDB) Update(ctx context.Context, id int64, l dao.Lexicon) (dao.Lexicon, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE lexicon SET lemma = ?, pronunciation = ?, is_native = ?, auto_spell = ?, meaning = ?,
		part_of_speech = ?, notes = ?, needs_attention = ?, updated_at = ? WHERE id = ?;`,
		l.Lemma, l.Pronunciation, boolToInt(l.IsNative), boolToInt(l.AutoSpell), l.Meaning,
		l.PartOfSpeech, l.Notes, boolToInt(l.NeedsAttention), time.Now().Unix(), id,
	)
	if err != nil {
		return dao.Lexicon{}, wrapDBError(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return dao.Lexicon{}, wrapDBError(err)
	} else if n < 1 {
		return dao.Lexicon{}, dao.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *LexiconDB) UpdateSpelling(ctx context.Context, id int64, glyphOrder string) (dao.Lexicon, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return dao.Lexicon{}, wrapDBError(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE lexicon SET glyph_order = ?, needs_attention = 0, updated_at = ? WHERE id = ?;`,
		glyphOrder, time.Now().Unix(), id,
	)
	if err != nil {
		return dao.Lexicon{}, wrapDBError(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return dao.Lexicon{}, wrapDBError(err)
	} else if n < 1 {
		return dao.Lexicon{}, dao.ErrNotFound
	}
	if err := r.rebuildJunction(ctx, tx, id, glyphOrder); err != nil {
		return dao.Lexicon{}, err
	}
	if err := tx.Commit(); err != nil {
		return dao.Lexicon{}, wrapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes id's junction rows, its ancestry rows on both sides,
// and then the entry itself, in one transaction, per §4.4. The caller
// remains responsible for triggering a closure rebuild afterward.
func (r *LexiconDB) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lexicon_spelling WHERE lexicon_id = ?;`, id); err != nil {
		return wrapDBError(err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM lexicon_ancestry WHERE lexicon_id = ?;`, id); err != nil {
		return wrapDBError(err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM lexicon_ancestry WHERE ancestor_id = ?;`, id); err != nil {
		return wrapDBError(err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM lexicon WHERE id = ?;`, id)
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

func (r *LexiconDB) SpellingGraphemeIDs(ctx context.Context, id int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT grapheme_id FROM lexicon_spelling WHERE lexicon_id = ? ORDER BY position ASC;`, id)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var gid int64
		if err := rows.Scan(&gid); err != nil {
			return nil, wrapDBError(err)
		}
		out = append(out, gid)
	}
	return out, wrapDBError(rows.Err())
}

func (r *LexiconDB) EntriesReferencingGrapheme(ctx context.Context, graphemeID int64) ([]dao.Lexicon, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+lexiconColumns+` FROM lexicon
		WHERE id IN (SELECT DISTINCT lexicon_id FROM lexicon_spelling WHERE grapheme_id = ?)
		ORDER BY id ASC;`, graphemeID)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var out []dao.Lexicon
	for rows.Next() {
		l, err := scanLexicon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, wrapDBError(rows.Err())
}

func (r *LexiconDB) GetAncestryEdges(ctx context.Context, lexiconID int64) ([]dao.AncestryEdge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT lexicon_id, ancestor_id, position, ancestry_type FROM lexicon_ancestry WHERE lexicon_id = ? ORDER BY position ASC;`, lexiconID)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()
	return scanAncestryEdges(rows)
}

func (r *LexiconDB) AllEdges(ctx context.Context) ([]dao.AncestryEdge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT lexicon_id, ancestor_id, position, ancestry_type FROM lexicon_ancestry ORDER BY lexicon_id ASC, position ASC;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()
	return scanAncestryEdges(rows)
}

func scanAncestryEdges(rows *sql.Rows) ([]dao.AncestryEdge, error) {
	var out []dao.AncestryEdge
	for rows.Next() {
		var e dao.AncestryEdge
		var typ string
		if err := rows.Scan(&e.LexiconID, &e.AncestorID, &e.Position, &typ); err != nil {
			return nil, wrapDBError(err)
		}
		e.Type = dao.AncestryType(typ)
		out = append(out, e)
	}
	return out, wrapDBError(rows.Err())
}

// SetAncestry replaces every ancestry edge for lexiconID with edges, then
// rebuilds the closure table. Callers are expected to have already
// cycle-checked every edge (internal/ancestry.Closure.WouldCycle) before
// calling this.
func (r *LexiconDB) SetAncestry(ctx context.Context, lexiconID int64, edges []dao.AncestryEdge) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lexicon_ancestry WHERE lexicon_id = ?;`, lexiconID); err != nil {
		return wrapDBError(err)
	}
	for _, e := range edges {
		typ := e.Type
		if typ == "" {
			typ = dao.AncestryDerived
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lexicon_ancestry (lexicon_id, ancestor_id, position, ancestry_type) VALUES (?, ?, ?, ?);`,
			lexiconID, e.AncestorID, e.Position, string(typ),
		); err != nil {
			return wrapDBError(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapDBError(err)
	}
	return r.RebuildClosure(ctx)
}

// RebuildClosure recomputes lexicon_ancestry_closure in a single
// recursive-CTE statement, bounded by ancestry.MaxDepth and keeping the
// shortest depth per (ancestor, descendant) pair via MIN/GROUP BY. This
// is the SQL-native mirror of internal/ancestry.Closure.Rebuild; neither
// calls the other, and no test compares their results.
func (r *LexiconDB) RebuildClosure(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lexicon_ancestry_closure;`); err != nil {
		return wrapDBError(err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO lexicon_ancestry_closure (ancestor_id, descendant_id, depth)
		WITH RECURSIVE reach(ancestor_id, descendant_id, depth) AS (
			SELECT ancestor_id, lexicon_id, 1 FROM lexicon_ancestry
			UNION ALL
			SELECT r.ancestor_id, a.lexicon_id, r.depth + 1
			FROM reach r JOIN lexicon_ancestry a ON a.ancestor_id = r.descendant_id
			WHERE r.depth < ?
		)
		SELECT ancestor_id, descendant_id, MIN(depth) FROM reach GROUP BY ancestor_id, descendant_id;
	`, ancestry.MaxDepth)
	if err != nil {
		return wrapDBError(err)
	}
	return wrapDBError(tx.Commit())
}
