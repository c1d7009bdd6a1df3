// Package sqlite implements server/dao's repository interfaces against a
// single modernc.org/sqlite (pure Go, no cgo) database file, following
// the teacher's per-repository init()/wrapDBError shape from
// server/dao/sqlite/sqlite.go and users.go.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/etymolog/etymolog/server/dao"
	"modernc.org/sqlite"
)

type store struct {
	dbFilename string

	db *sql.DB

	glyphs    *GlyphsDB
	graphemes *GraphemesDB
	phonemes  *PhonemesDB
	lexicon   *LexiconDB
	settings  *SettingsDB
}

// NewDatastore opens (creating if necessary) the sqlite file at
// storageDir/data.db, runs schema migrations, and returns a ready
// dao.Store.
func NewDatastore(storageDir string) (dao.Store, error) {
	st := &store{dbFilename: "data.db"}

	fileName := filepath.Join(storageDir, st.dbFilename)

	var err error
	st.db, err = sql.Open("sqlite", fileName)
	if err != nil {
		return nil, wrapDBError(err)
	}
	// sqlite does not support concurrent writers across connections; the
	// engine's own single-writer model (§5) makes one connection correct
	// and avoids SQLITE_BUSY noise from the pool.
	st.db.SetMaxOpenConns(1)
	if _, err := st.db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, wrapDBError(err)
	}

	if err := migrate(st.db); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	st.phonemes = &PhonemesDB{db: st.db}
	st.graphemes = &GraphemesDB{db: st.db, phonemes: st.phonemes}
	st.glyphs = &GlyphsDB{db: st.db}
	st.lexicon = &LexiconDB{db: st.db}
	st.settings = &SettingsDB{db: st.db}

	return st, nil
}

func (s *store) Glyphs() dao.GlyphRepository       { return s.glyphs }
func (s *store) Graphemes() dao.GraphemeRepository { return s.graphemes }
func (s *store) Phonemes() dao.PhonemeRepository   { return s.phonemes }
func (s *store) Lexicon() dao.LexiconRepository    { return s.lexicon }
func (s *store) Settings() dao.SettingsRepository  { return s.settings }

func (s *store) Status(ctx context.Context) (dao.Status, error) {
	st := dao.Status{Initialized: true}

	row := s.db.QueryRowContext(ctx, `SELECT count(*) FROM glyphs;`)
	if err := row.Scan(&st.GlyphCount); err != nil {
		return st, wrapDBError(err)
	}
	row = s.db.QueryRowContext(ctx, `SELECT count(*) FROM graphemes;`)
	if err := row.Scan(&st.GraphemeCount); err != nil {
		return st, wrapDBError(err)
	}
	row = s.db.QueryRowContext(ctx, `SELECT count(*) FROM lexicon;`)
	if err := row.Scan(&st.LexiconCount); err != nil {
		return st, wrapDBError(err)
	}

	return st, nil
}

// Clear truncates every table, preserving schema, in dependency order.
func (s *store) Clear(ctx context.Context) error {
	tables := []string{
		"lexicon_ancestry_closure",
		"lexicon_ancestry",
		"lexicon_spelling",
		"lexicon",
		"phonemes",
		"grapheme_glyphs",
		"graphemes",
		"glyphs",
		"settings",
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError(err)
	}
	defer tx.Rollback()

	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t+";"); err != nil {
			return wrapDBError(err)
		}
	}
	return wrapDBError(tx.Commit())
}

func (s *store) Close() error {
	return s.db.Close()
}

// wrapDBError translates a raw database/sql or sqlite driver error into a
// dao sentinel where one applies, mirroring the teacher's wrapDBError in
// server/dao/sqlite/sqlite.go.
func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		// SQLITE_CONSTRAINT family is 19; sub-codes are (code | extended<<8).
		if sqliteErr.Code()&0xff == 19 {
			return dao.ErrConstraintViolation
		}
		return fmt.Errorf("sqlite: %s", sqlite.ErrorCodeString[sqliteErr.Code()])
	}
	if errors.Is(err, sql.ErrNoRows) {
		return dao.ErrNotFound
	}
	return err
}
