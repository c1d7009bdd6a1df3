// Package inmem is a map-backed mirror of every server/dao repository,
// used for tests and offline operation without a SQLite file.
package inmem

import (
	"context"

	"github.com/etymolog/etymolog/server/dao"
)

type store struct {
	glyphs    *GlyphsRepository
	graphemes *GraphemesRepository
	phonemes  *PhonemesRepository
	lexicon   *LexiconRepository
	settings  *SettingsRepository
}

// NewDatastore returns an empty in-memory dao.Store.
func NewDatastore() dao.Store {
	phonemes := NewPhonemesRepository()
	lexicon := NewLexiconRepository()
	graphemes := NewGraphemesRepository(phonemes, lexicon)
	return &store{
		glyphs:    NewGlyphsRepository(graphemes),
		graphemes: graphemes,
		phonemes:  phonemes,
		lexicon:   lexicon,
		settings:  NewSettingsRepository(),
	}
}

func (s *store) Glyphs() dao.GlyphRepository       { return s.glyphs }
func (s *store) Graphemes() dao.GraphemeRepository { return s.graphemes }
func (s *store) Phonemes() dao.PhonemeRepository   { return s.phonemes }
func (s *store) Lexicon() dao.LexiconRepository    { return s.lexicon }
func (s *store) Settings() dao.SettingsRepository  { return s.settings }

func (s *store) Status(ctx context.Context) (dao.Status, error) {
	return dao.Status{
		Initialized:   true,
		GlyphCount:    len(s.glyphs.byID),
		GraphemeCount: len(s.graphemes.byID),
		LexiconCount:  len(s.lexicon.byID),
	}, nil
}

func (s *store) Clear(ctx context.Context) error {
	s.glyphs.clear()
	s.graphemes.clear()
	s.phonemes.clear()
	s.lexicon.clear()
	s.settings.clear()
	return nil
}

func (s *store) Close() error {
	return nil
}
