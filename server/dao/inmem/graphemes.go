package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/etymolog/etymolog/internal/foldcase"
	"github.com/etymolog/etymolog/server/dao"
)

// GraphemesRepository is a map-backed dao.GraphemeRepository. It holds
// its own glyph-composition junction and defers phoneme storage to its
// sibling PhonemesRepository.
type GraphemesRepository struct {
	byID     map[int64]dao.Grapheme
	glyphsOf map[int64][]dao.GraphemeGlyph
	nextID   int64
	phonemes *PhonemesRepository
	lexicon  *LexiconRepository
}

func NewGraphemesRepository(phonemes *PhonemesRepository, lexicon *LexiconRepository) *GraphemesRepository {
	return &GraphemesRepository{
		byID:     make(map[int64]dao.Grapheme),
		glyphsOf: make(map[int64][]dao.GraphemeGlyph),
		nextID:   1,
		phonemes: phonemes,
		lexicon:  lexicon,
	}
}

func (r *GraphemesRepository) clear() {
	r.byID = make(map[int64]dao.Grapheme)
	r.glyphsOf = make(map[int64][]dao.GraphemeGlyph)
	r.nextID = 1
}

func (r *GraphemesRepository) Create(ctx context.Context, g dao.Grapheme, glyphs []dao.GraphemeGlyph, phonemes []dao.Phoneme) (dao.GraphemeComplete, error) {
	g.ID = r.nextID
	r.nextID++
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now
	r.byID[g.ID] = g
	r.glyphsOf[g.ID] = append([]dao.GraphemeGlyph(nil), glyphs...)

	var stored []dao.Phoneme
	for _, p := range phonemes {
		p.GraphemeID = g.ID
		added, _ := r.phonemes.Add(ctx, p)
		stored = append(stored, added)
	}

	return dao.GraphemeComplete{Grapheme: g, Glyphs: r.glyphsOf[g.ID], Phonemes: stored}, nil
}

func (r *GraphemesRepository) GetByID(ctx context.Context, id int64) (dao.Grapheme, error) {
	g, ok := r.byID[id]
	if !ok {
		return dao.Grapheme{}, dao.ErrNotFound
	}
	return g, nil
}

func (r *GraphemesRepository) GetByIDComplete(ctx context.Context, id int64) (dao.GraphemeComplete, error) {
	g, ok := r.byID[id]
	if !ok {
		return dao.GraphemeComplete{}, dao.ErrNotFound
	}
	phonemes, _ := r.phonemes.GetByGraphemeID(ctx, id)
	return dao.GraphemeComplete{Grapheme: g, Glyphs: r.glyphsOf[id], Phonemes: phonemes}, nil
}

func (r *GraphemesRepository) GetAll(ctx context.Context) ([]dao.Grapheme, error) {
	all := make([]dao.Grapheme, 0, len(r.byID))
	for _, g := range r.byID {
		all = append(all, g)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r *GraphemesRepository) GetAllComplete(ctx context.Context) ([]dao.GraphemeComplete, error) {
	all, _ := r.GetAll(ctx)
	out := make([]dao.GraphemeComplete, len(all))
	for i, g := range all {
		phonemes, _ := r.phonemes.GetByGraphemeID(ctx, g.ID)
		out[i] = dao.GraphemeComplete{Grapheme: g, Glyphs: r.glyphsOf[g.ID], Phonemes: phonemes}
	}
	return out, nil
}

func (r *GraphemesRepository) Search(ctx context.Context, query string) ([]dao.Grapheme, error) {
	all, _ := r.GetAll(ctx)
	var out []dao.Grapheme
	for _, g := range all {
		if foldcase.Contains(g.Name, query) || foldcase.Contains(g.Category, query) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *GraphemesRepository) Update(ctx context.Context, id int64, g dao.Grapheme) (dao.Grapheme, error) {
	existing, ok := r.byID[id]
	if !ok {
		return dao.Grapheme{}, dao.ErrNotFound
	}
	g.ID = id
	g.CreatedAt = existing.CreatedAt
	g.UpdatedAt = time.Now()
	r.byID[id] = g
	return g, nil
}

func (r *GraphemesRepository) UpdateGlyphs(ctx context.Context, id int64, glyphs []dao.GraphemeGlyph) (dao.GraphemeComplete, error) {
	g, ok := r.byID[id]
	if !ok {
		return dao.GraphemeComplete{}, dao.ErrNotFound
	}
	r.glyphsOf[id] = append([]dao.GraphemeGlyph(nil), glyphs...)
	g.UpdatedAt = time.Now()
	r.byID[id] = g
	phonemes, _ := r.phonemes.GetByGraphemeID(ctx, id)
	return dao.GraphemeComplete{Grapheme: g, Glyphs: r.glyphsOf[id], Phonemes: phonemes}, nil
}

// Delete fails with dao.ErrConstraintViolation if any lexicon entry's
// spelling junction references id, matching the sqlite implementation's
// contract of checking the junction rather than relying on a foreign
// key.
func (r *GraphemesRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return dao.ErrNotFound
	}
	referencing, err := r.lexicon.EntriesReferencingGrapheme(ctx, id)
	if err != nil {
		return err
	}
	if len(referencing) > 0 {
		return dao.ErrConstraintViolation
	}
	delete(r.byID, id)
	delete(r.glyphsOf, id)
	r.phonemes.deleteAllForGraphemeLocked(id)
	return nil
}

func (r *GraphemesRepository) GetByPhoneme(ctx context.Context, phoneme string) ([]dao.Grapheme, error) {
	var ids []int64
	for _, p := range r.phonemes.byID {
		if p.Phoneme == phoneme {
			ids = append(ids, p.GraphemeID)
		}
	}
	var out []dao.Grapheme
	seen := map[int64]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if g, ok := r.byID[id]; ok {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *GraphemesRepository) GlyphIDs(ctx context.Context, id int64) ([]int64, error) {
	glyphs := r.glyphsOf[id]
	out := make([]int64, len(glyphs))
	for i, gg := range glyphs {
		out[i] = gg.GlyphID
	}
	return out, nil
}
