package sqlite

import (
	"database/sql"
	"fmt"
)

// schemaVersion is bumped whenever a migration step is appended. It is
// recorded in schema_meta so a future migration can branch on "have we
// already run step N" without re-scanning table contents, though every
// step here is also independently idempotent (CREATE TABLE / CREATE
// INDEX IF NOT EXISTS, an upsert of the version row, and a legacy
// spelling rematerialization that skips rows whose glyph_order is set),
// per §4.7's forward-only requirement.
const schemaVersion = 1

// migrate runs every schema step against db. It is safe to call on every
// process startup: each step is idempotent.
func migrate(db *sql.DB) error {
	steps := []func(*sql.DB) error{
		createSchemaMeta,
		createGlyphs,
		createGraphemes,
		createGraphemeGlyphs,
		createPhonemes,
		createLexicon,
		createLexiconSpelling,
		createLexiconAncestry,
		createLexiconAncestryClosure,
		createSettings,
		rematerializeLegacySpelling,
		recordSchemaVersion,
	}

	for _, step := range steps {
		if err := step(db); err != nil {
			return err
		}
	}
	return nil
}

func createSchemaMeta(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_meta (
		key   TEXT NOT NULL PRIMARY KEY,
		value TEXT NOT NULL
	);`)
	return wrapDBError(err)
}

func recordSchemaVersion(db *sql.DB) error {
	_, err := db.Exec(`INSERT INTO schema_meta (key, value) VALUES ('version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value;`, fmt.Sprintf("%d", schemaVersion))
	return wrapDBError(err)
}

func createGlyphs(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS glyphs (
		id         INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL,
		svg_data   TEXT NOT NULL,
		category   TEXT NOT NULL DEFAULT '',
		notes      TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_glyphs_name ON glyphs(name);`)
	return wrapDBError(err)
}

func createGraphemes(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS graphemes (
		id         INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL,
		category   TEXT NOT NULL DEFAULT '',
		notes      TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_graphemes_name ON graphemes(name);`)
	return wrapDBError(err)
}

func createGraphemeGlyphs(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS grapheme_glyphs (
		id          INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		grapheme_id INTEGER NOT NULL REFERENCES graphemes(id) ON DELETE CASCADE,
		glyph_id    INTEGER NOT NULL REFERENCES glyphs(id),
		position    INTEGER NOT NULL,
		transform   TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_grapheme_glyphs_grapheme ON grapheme_glyphs(grapheme_id);
	CREATE INDEX IF NOT EXISTS idx_grapheme_glyphs_glyph ON grapheme_glyphs(glyph_id);`)
	return wrapDBError(err)
}

func createPhonemes(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS phonemes (
		id                   INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		grapheme_id          INTEGER NOT NULL REFERENCES graphemes(id) ON DELETE CASCADE,
		phoneme              TEXT NOT NULL,
		use_in_auto_spelling INTEGER NOT NULL DEFAULT 0,
		context              TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_phonemes_grapheme ON phonemes(grapheme_id);
	CREATE INDEX IF NOT EXISTS idx_phonemes_auto_spelling ON phonemes(use_in_auto_spelling);`)
	return wrapDBError(err)
}

func createLexicon(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS lexicon (
		id              INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		lemma           TEXT NOT NULL,
		pronunciation   TEXT NOT NULL DEFAULT '',
		is_native       INTEGER NOT NULL DEFAULT 0,
		auto_spell      INTEGER NOT NULL DEFAULT 1,
		meaning         TEXT NOT NULL DEFAULT '',
		part_of_speech  TEXT NOT NULL DEFAULT '',
		notes           TEXT NOT NULL DEFAULT '',
		glyph_order     TEXT NOT NULL DEFAULT '[]',
		needs_attention INTEGER NOT NULL DEFAULT 0,
		created_at      INTEGER NOT NULL,
		updated_at      INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_lexicon_is_native ON lexicon(is_native);
	CREATE INDEX IF NOT EXISTS idx_lexicon_needs_attention ON lexicon(needs_attention);`)
	return wrapDBError(err)
}

func createLexiconSpelling(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS lexicon_spelling (
		id          INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		lexicon_id  INTEGER NOT NULL REFERENCES lexicon(id) ON DELETE CASCADE,
		grapheme_id INTEGER NOT NULL,
		position    INTEGER NOT NULL,
		UNIQUE(lexicon_id, grapheme_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_lexicon_spelling_lexicon ON lexicon_spelling(lexicon_id);
	CREATE INDEX IF NOT EXISTS idx_lexicon_spelling_grapheme ON lexicon_spelling(grapheme_id);`)
	return wrapDBError(err)
}

func createLexiconAncestry(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS lexicon_ancestry (
		id            INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		lexicon_id    INTEGER NOT NULL REFERENCES lexicon(id) ON DELETE CASCADE,
		ancestor_id   INTEGER NOT NULL REFERENCES lexicon(id) ON DELETE CASCADE,
		position      INTEGER NOT NULL,
		ancestry_type TEXT NOT NULL DEFAULT 'derived',
		UNIQUE(lexicon_id, ancestor_id)
	);
	CREATE INDEX IF NOT EXISTS idx_lexicon_ancestry_child ON lexicon_ancestry(lexicon_id);
	CREATE INDEX IF NOT EXISTS idx_lexicon_ancestry_parent ON lexicon_ancestry(ancestor_id);`)
	return wrapDBError(err)
}

func createLexiconAncestryClosure(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS lexicon_ancestry_closure (
		ancestor_id   INTEGER NOT NULL,
		descendant_id INTEGER NOT NULL,
		depth         INTEGER NOT NULL,
		PRIMARY KEY (ancestor_id, descendant_id)
	);
	CREATE INDEX IF NOT EXISTS idx_closure_ancestor ON lexicon_ancestry_closure(ancestor_id);
	CREATE INDEX IF NOT EXISTS idx_closure_descendant ON lexicon_ancestry_closure(descendant_id);`)
	return wrapDBError(err)
}

func createSettings(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		id   INTEGER NOT NULL PRIMARY KEY CHECK (id = 1),
		data TEXT NOT NULL DEFAULT '{}'
	);`)
	return wrapDBError(err)
}

// rematerializeLegacySpelling scans any lexicon row whose glyph_order is
// still empty but which has rows in the legacy lexicon_spelling junction
// (the input shape §4.4 calls "legacy spelling"), and re-encodes those
// junction rows, ordered by position, into glyph_order. It is a no-op
// once glyph_order has been populated, so re-running it on every startup
// per §4.7 is safe.
func rematerializeLegacySpelling(db *sql.DB) error {
	rows, err := db.Query(`
		SELECT l.id
		FROM lexicon l
		WHERE (l.glyph_order = '' OR l.glyph_order = '[]' OR l.glyph_order IS NULL)
		AND EXISTS (SELECT 1 FROM lexicon_spelling s WHERE s.lexicon_id = l.id)
	`)
	if err != nil {
		return wrapDBError(err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return wrapDBError(err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	for _, id := range ids {
		gRows, err := db.Query(`SELECT grapheme_id FROM lexicon_spelling WHERE lexicon_id = ? ORDER BY position ASC;`, id)
		if err != nil {
			return wrapDBError(err)
		}
		var graphemeIDs []int64
		for gRows.Next() {
			var gid int64
			if err := gRows.Scan(&gid); err != nil {
				gRows.Close()
				return wrapDBError(err)
			}
			graphemeIDs = append(graphemeIDs, gid)
		}
		gRows.Close()

		encoded := encodeGraphemeRefs(graphemeIDs)
		if _, err := db.Exec(`UPDATE lexicon SET glyph_order = ? WHERE id = ?;`, encoded, id); err != nil {
			return wrapDBError(err)
		}
	}
	return nil
}
