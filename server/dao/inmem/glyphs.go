package inmem

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/etymolog/etymolog/server/dao"
)

// GlyphsRepository is a map-backed dao.GlyphRepository. It consults
// graphemes (its sibling repository) to compute usage counts and to
// cascade/force-delete.
type GlyphsRepository struct {
	byID      map[int64]dao.Glyph
	nextID    int64
	graphemes *GraphemesRepository
}

func NewGlyphsRepository(graphemes *GraphemesRepository) *GlyphsRepository {
	return &GlyphsRepository{byID: make(map[int64]dao.Glyph), nextID: 1, graphemes: graphemes}
}

func (r *GlyphsRepository) clear() {
	r.byID = make(map[int64]dao.Glyph)
	r.nextID = 1
}

func (r *GlyphsRepository) Create(ctx context.Context, g dao.Glyph) (dao.Glyph, error) {
	g.ID = r.nextID
	r.nextID++
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now
	r.byID[g.ID] = g
	return g, nil
}

func (r *GlyphsRepository) GetByID(ctx context.Context, id int64) (dao.Glyph, error) {
	g, ok := r.byID[id]
	if !ok {
		return dao.Glyph{}, dao.ErrNotFound
	}
	return g, nil
}

func (r *GlyphsRepository) GetAll(ctx context.Context) ([]dao.Glyph, error) {
	all := make([]dao.Glyph, 0, len(r.byID))
	for _, g := range r.byID {
		all = append(all, g)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r *GlyphsRepository) GetAllWithUsage(ctx context.Context) ([]dao.GlyphUsage, error) {
	all, _ := r.GetAll(ctx)
	out := make([]dao.GlyphUsage, len(all))
	for i, g := range all {
		count, _ := r.UsageCount(ctx, g.ID)
		out[i] = dao.GlyphUsage{Glyph: g, UsageCount: count}
	}
	return out, nil
}

func (r *GlyphsRepository) Search(ctx context.Context, query string) ([]dao.Glyph, error) {
	q := strings.ToLower(query)
	all, _ := r.GetAll(ctx)
	var out []dao.Glyph
	for _, g := range all {
		if strings.Contains(strings.ToLower(g.Name), q) || strings.Contains(strings.ToLower(g.Category), q) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *GlyphsRepository) Update(ctx context.Context, id int64, g dao.Glyph) (dao.Glyph, error) {
	existing, ok := r.byID[id]
	if !ok {
		return dao.Glyph{}, dao.ErrNotFound
	}
	g.ID = id
	g.CreatedAt = existing.CreatedAt
	g.UpdatedAt = time.Now()
	r.byID[id] = g
	return g, nil
}

func (r *GlyphsRepository) UsageCount(ctx context.Context, id int64) (int, error) {
	count := 0
	for _, gc := range r.graphemes.byID {
		for _, gg := range r.graphemes.glyphsOf[gc.ID] {
			if gg.GlyphID == id {
				count++
			}
		}
	}
	return count, nil
}

func (r *GlyphsRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return dao.ErrNotFound
	}
	count, _ := r.UsageCount(ctx, id)
	if count > 0 {
		return dao.ErrConstraintViolation
	}
	delete(r.byID, id)
	return nil
}

func (r *GlyphsRepository) ForceDelete(ctx context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return dao.ErrNotFound
	}
	for graphemeID, glyphs := range r.graphemes.glyphsOf {
		filtered := glyphs[:0]
		for _, gg := range glyphs {
			if gg.GlyphID != id {
				filtered = append(filtered, gg)
			}
		}
		r.graphemes.glyphsOf[graphemeID] = filtered
	}
	delete(r.byID, id)
	return nil
}

func (r *GlyphsRepository) CascadeDelete(ctx context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return dao.ErrNotFound
	}
	var toDelete []int64
	for graphemeID, glyphs := range r.graphemes.glyphsOf {
		for _, gg := range glyphs {
			if gg.GlyphID == id {
				toDelete = append(toDelete, graphemeID)
				break
			}
		}
	}
	for _, graphemeID := range toDelete {
		delete(r.graphemes.byID, graphemeID)
		delete(r.graphemes.glyphsOf, graphemeID)
		r.graphemes.phonemes.deleteAllForGraphemeLocked(graphemeID)
	}
	delete(r.byID, id)
	return nil
}

func (r *GlyphsRepository) NameExists(ctx context.Context, name string) (bool, error) {
	for _, g := range r.byID {
		if g.Name == name {
			return true, nil
		}
	}
	return false, nil
}
