package etymolog

import (
	"context"
	"strings"

	"github.com/etymolog/etymolog/internal/phonemap"
	"github.com/etymolog/etymolog/internal/spelling"
	"github.com/etymolog/etymolog/server/dao"
	"github.com/etymolog/etymolog/server/serr"
)

// GlyphComposition is one element of a grapheme's ordered glyph
// composition, as supplied by a caller.
type GlyphComposition struct {
	GlyphID   int64
	Position  int
	Transform string
}

// PhonemeComposition is one phoneme supplied alongside a grapheme
// create call.
type PhonemeComposition struct {
	Phoneme           string
	UseInAutoSpelling bool
	Context           string
}

// GraphemeInput is the caller-supplied shape for creating or updating a
// grapheme's own fields (not its composition).
type GraphemeInput struct {
	Name     string
	Category string
	Notes    string
}

func (in GraphemeInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return serr.Validation("grapheme name is required")
	}
	return nil
}

func toDaoGlyphs(cs []GlyphComposition) ([]dao.GraphemeGlyph, error) {
	out := make([]dao.GraphemeGlyph, len(cs))
	for i, c := range cs {
		if c.GlyphID < 1 {
			return nil, serr.Validation("glyph id must be positive")
		}
		out[i] = dao.GraphemeGlyph{GlyphID: c.GlyphID, Position: c.Position, Transform: c.Transform}
	}
	return out, nil
}

func toDaoPhonemes(ps []PhonemeComposition) ([]dao.Phoneme, error) {
	out := make([]dao.Phoneme, len(ps))
	for i, p := range ps {
		if strings.TrimSpace(p.Phoneme) == "" {
			return nil, serr.Validation("phoneme is required")
		}
		out[i] = dao.Phoneme{Phoneme: p.Phoneme, UseInAutoSpelling: p.UseInAutoSpelling, Context: p.Context}
	}
	return out, nil
}

// CreateGrapheme creates a grapheme with its glyph composition and
// initial phonemes in one call.
func (e *Engine) CreateGrapheme(ctx context.Context, in GraphemeInput, glyphs []GlyphComposition, phonemes []PhonemeComposition) (dao.GraphemeComplete, error) {
	if err := e.requireReady(); err != nil {
		return dao.GraphemeComplete{}, err
	}
	if err := in.validate(); err != nil {
		return dao.GraphemeComplete{}, err
	}
	daoGlyphs, err := toDaoGlyphs(glyphs)
	if err != nil {
		return dao.GraphemeComplete{}, err
	}
	daoPhonemes, err := toDaoPhonemes(phonemes)
	if err != nil {
		return dao.GraphemeComplete{}, err
	}
	created, err := e.store.Graphemes().Create(ctx, dao.Grapheme{Name: in.Name, Category: in.Category, Notes: in.Notes}, daoGlyphs, daoPhonemes)
	if err != nil {
		return dao.GraphemeComplete{}, mapDaoErr(err)
	}
	e.touchPersisted()
	return created, nil
}

// GetGrapheme returns a grapheme by id, without its composition.
func (e *Engine) GetGrapheme(ctx context.Context, id int64) (dao.Grapheme, error) {
	if err := e.requireReady(); err != nil {
		return dao.Grapheme{}, err
	}
	g, err := e.store.Graphemes().GetByID(ctx, id)
	if err != nil {
		return dao.Grapheme{}, mapDaoErr(err)
	}
	return g, nil
}

// GetGraphemeComplete returns a grapheme with its glyphs and phonemes.
func (e *Engine) GetGraphemeComplete(ctx context.Context, id int64) (dao.GraphemeComplete, error) {
	if err := e.requireReady(); err != nil {
		return dao.GraphemeComplete{}, err
	}
	g, err := e.store.Graphemes().GetByIDComplete(ctx, id)
	if err != nil {
		return dao.GraphemeComplete{}, mapDaoErr(err)
	}
	return g, nil
}

// GetAllGraphemes returns every grapheme, without composition.
func (e *Engine) GetAllGraphemes(ctx context.Context) ([]dao.Grapheme, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	gs, err := e.store.Graphemes().GetAll(ctx)
	if err != nil {
		return nil, mapDaoErr(err)
	}
	return gs, nil
}

// GetAllGraphemesComplete returns every grapheme with its composition.
func (e *Engine) GetAllGraphemesComplete(ctx context.Context) ([]dao.GraphemeComplete, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	gs, err := e.store.Graphemes().GetAllComplete(ctx)
	if err != nil {
		return nil, mapDaoErr(err)
	}
	return gs, nil
}

// SearchGraphemes matches query case-insensitively against grapheme
// name and category.
func (e *Engine) SearchGraphemes(ctx context.Context, query string) ([]dao.Grapheme, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	gs, err := e.store.Graphemes().Search(ctx, query)
	if err != nil {
		return nil, mapDaoErr(err)
	}
	return gs, nil
}

// UpdateGrapheme overwrites a grapheme's own fields, leaving its
// composition untouched.
func (e *Engine) UpdateGrapheme(ctx context.Context, id int64, in GraphemeInput) (dao.Grapheme, error) {
	if err := e.requireReady(); err != nil {
		return dao.Grapheme{}, err
	}
	if err := in.validate(); err != nil {
		return dao.Grapheme{}, err
	}
	updated, err := e.store.Graphemes().Update(ctx, id, dao.Grapheme{Name: in.Name, Category: in.Category, Notes: in.Notes})
	if err != nil {
		return dao.Grapheme{}, mapDaoErr(err)
	}
	e.touchPersisted()
	return updated, nil
}

// GraphemeCompositionResult wraps a glyph-composition update alongside
// any non-fatal auto-manage cleanup it triggered.
type GraphemeCompositionResult struct {
	dao.GraphemeComplete
	AutoManagedGlyphsDeleted int
}

// UpdateGraphemeGlyphs replaces a grapheme's glyph composition. When
// the autoManageGlyphs setting is enabled, glyphs orphaned by the
// replacement (zero remaining usage) are deleted as a side effect.
func (e *Engine) UpdateGraphemeGlyphs(ctx context.Context, id int64, glyphs []GlyphComposition) (GraphemeCompositionResult, error) {
	if err := e.requireReady(); err != nil {
		return GraphemeCompositionResult{}, err
	}
	daoGlyphs, err := toDaoGlyphs(glyphs)
	if err != nil {
		return GraphemeCompositionResult{}, err
	}
	updated, err := e.store.Graphemes().UpdateGlyphs(ctx, id, daoGlyphs)
	if err != nil {
		return GraphemeCompositionResult{}, mapDaoErr(err)
	}
	e.touchPersisted()
	return GraphemeCompositionResult{GraphemeComplete: updated, AutoManagedGlyphsDeleted: e.autoManageGlyphs(ctx)}, nil
}

// GraphemeDeleteResult reports the side effects of deleting a grapheme:
// how many lexicon entries were repaired (§4.4) and, when
// autoManageGlyphs is enabled, how many now-orphaned glyphs were
// cleaned up.
type GraphemeDeleteResult struct {
	RepairedEntries          int
	AutoManagedGlyphsDeleted int
}

// primaryPhoneme picks the phoneme substituted into a lexicon entry's
// glyph_order when its grapheme is deleted: the lowest-id phoneme
// flagged for auto-spelling use, or else the lowest-id phoneme of any
// kind, or "?" if the grapheme had none.
func primaryPhoneme(phonemes []dao.Phoneme) string {
	var best *dao.Phoneme
	for i := range phonemes {
		p := &phonemes[i]
		if !p.UseInAutoSpelling {
			continue
		}
		if best == nil || p.ID < best.ID {
			best = p
		}
	}
	if best != nil {
		return best.Phoneme
	}
	for i := range phonemes {
		p := &phonemes[i]
		if best == nil || p.ID < best.ID {
			best = p
		}
	}
	if best != nil {
		return best.Phoneme
	}
	return "?"
}

// DeleteGrapheme deletes a grapheme, first running the grapheme-
// deletion repair protocol (§4.4) against every lexicon entry whose
// spelling references it: each such occurrence is replaced with the
// grapheme's primary phoneme (see primaryPhoneme), and the entry's
// needs_attention flag is left false when the entry is auto-spelled or
// set true otherwise.
func (e *Engine) DeleteGrapheme(ctx context.Context, id int64) (GraphemeDeleteResult, error) {
	if err := e.requireReady(); err != nil {
		return GraphemeDeleteResult{}, err
	}
	if _, err := e.store.Graphemes().GetByID(ctx, id); err != nil {
		return GraphemeDeleteResult{}, mapDaoErr(err)
	}

	phonemes, err := e.store.Phonemes().GetByGraphemeID(ctx, id)
	if err != nil {
		return GraphemeDeleteResult{}, serr.OperationFailed("loading grapheme phonemes", err)
	}
	repl := primaryPhoneme(phonemes)

	referencing, err := e.store.Lexicon().EntriesReferencingGrapheme(ctx, id)
	if err != nil {
		return GraphemeDeleteResult{}, serr.OperationFailed("loading referencing lexicon entries", err)
	}

	repaired := 0
	for _, entry := range referencing {
		entries := spelling.Decode(entry.GlyphOrder)
		changed := false
		for i, en := range entries {
			if en.Kind == spelling.GraphemeRef && en.GraphemeID == id {
				entries[i] = spelling.NewIPAChar(repl)
				changed = true
			}
		}
		if !changed {
			continue
		}
		newOrder := spelling.Encode(entries)
		updated, err := e.store.Lexicon().UpdateSpelling(ctx, entry.ID, newOrder)
		if err != nil {
			return GraphemeDeleteResult{}, serr.OperationFailed("repairing lexicon entry spelling", err)
		}
		if !entry.AutoSpell {
			updated.NeedsAttention = true
			if _, err := e.store.Lexicon().Update(ctx, entry.ID, updated); err != nil {
				return GraphemeDeleteResult{}, serr.OperationFailed("flagging repaired lexicon entry", err)
			}
		}
		repaired++
	}

	if err := e.store.Graphemes().Delete(ctx, id); err != nil {
		return GraphemeDeleteResult{}, mapDaoErr(err)
	}

	e.touchPersisted()
	return GraphemeDeleteResult{RepairedEntries: repaired, AutoManagedGlyphsDeleted: e.autoManageGlyphs(ctx)}, nil
}

// GetGraphemesByPhoneme returns every grapheme that owns a phoneme with
// the given IPA text.
func (e *Engine) GetGraphemesByPhoneme(ctx context.Context, phoneme string) ([]dao.Grapheme, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	gs, err := e.store.Graphemes().GetByPhoneme(ctx, phoneme)
	if err != nil {
		return nil, mapDaoErr(err)
	}
	return gs, nil
}

// GetPhonemeMap builds the current phoneme -> grapheme auto-spelling
// table (internal/phonemap), derived from every phoneme flagged
// use_in_auto_spelling across all graphemes.
func (e *Engine) GetPhonemeMap(ctx context.Context) (phonemap.Table, error) {
	if err := e.requireReady(); err != nil {
		return phonemap.Table{}, err
	}
	return e.buildPhonemeTable(ctx)
}

func (e *Engine) buildPhonemeTable(ctx context.Context) (phonemap.Table, error) {
	ps, err := e.store.Phonemes().GetAutoSpelling(ctx)
	if err != nil {
		return phonemap.Table{}, serr.OperationFailed("loading auto-spell phonemes", err)
	}
	mapped := make([]phonemap.Phoneme, len(ps))
	for i, p := range ps {
		mapped[i] = phonemap.Phoneme{GraphemeID: p.GraphemeID, Text: p.Phoneme}
	}
	return phonemap.Build(mapped), nil
}
