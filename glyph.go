package etymolog

import (
	"context"
	"strings"

	"github.com/etymolog/etymolog/server/dao"
	"github.com/etymolog/etymolog/server/serr"
)

// GlyphInput is the caller-supplied shape for creating or updating a
// glyph.
type GlyphInput struct {
	Name     string
	SVGData  string
	Category string
	Notes    string
}

func (in GlyphInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return serr.Validation("glyph name is required")
	}
	if strings.TrimSpace(in.SVGData) == "" {
		return serr.Validation("glyph svg data is required")
	}
	return nil
}

// CreateGlyph creates a new glyph.
func (e *Engine) CreateGlyph(ctx context.Context, in GlyphInput) (dao.Glyph, error) {
	if err := e.requireReady(); err != nil {
		return dao.Glyph{}, err
	}
	if err := in.validate(); err != nil {
		return dao.Glyph{}, err
	}
	created, err := e.store.Glyphs().Create(ctx, dao.Glyph{
		Name: in.Name, SVGData: in.SVGData, Category: in.Category, Notes: in.Notes,
	})
	if err != nil {
		return dao.Glyph{}, mapDaoErr(err)
	}
	e.touchPersisted()
	return created, nil
}

// GetGlyph returns a glyph by id.
func (e *Engine) GetGlyph(ctx context.Context, id int64) (dao.Glyph, error) {
	if err := e.requireReady(); err != nil {
		return dao.Glyph{}, err
	}
	g, err := e.store.Glyphs().GetByID(ctx, id)
	if err != nil {
		return dao.Glyph{}, mapDaoErr(err)
	}
	return g, nil
}

// GetAllGlyphs returns every glyph.
func (e *Engine) GetAllGlyphs(ctx context.Context) ([]dao.Glyph, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	gs, err := e.store.Glyphs().GetAll(ctx)
	if err != nil {
		return nil, mapDaoErr(err)
	}
	return gs, nil
}

// GetAllGlyphsWithUsage returns every glyph paired with the number of
// grapheme_glyph rows referencing it.
func (e *Engine) GetAllGlyphsWithUsage(ctx context.Context) ([]dao.GlyphUsage, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	gs, err := e.store.Glyphs().GetAllWithUsage(ctx)
	if err != nil {
		return nil, mapDaoErr(err)
	}
	return gs, nil
}

// SearchGlyphs matches query case-insensitively against glyph name and
// category.
func (e *Engine) SearchGlyphs(ctx context.Context, query string) ([]dao.Glyph, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	gs, err := e.store.Glyphs().Search(ctx, query)
	if err != nil {
		return nil, mapDaoErr(err)
	}
	return gs, nil
}

// UpdateGlyph overwrites a glyph's mutable fields.
func (e *Engine) UpdateGlyph(ctx context.Context, id int64, in GlyphInput) (dao.Glyph, error) {
	if err := e.requireReady(); err != nil {
		return dao.Glyph{}, err
	}
	if err := in.validate(); err != nil {
		return dao.Glyph{}, err
	}
	updated, err := e.store.Glyphs().Update(ctx, id, dao.Glyph{
		Name: in.Name, SVGData: in.SVGData, Category: in.Category, Notes: in.Notes,
	})
	if err != nil {
		return dao.Glyph{}, mapDaoErr(err)
	}
	e.touchPersisted()
	return updated, nil
}

// DeleteGlyph removes a glyph. It fails with CONSTRAINT_VIOLATION if
// any grapheme still composes it.
func (e *Engine) DeleteGlyph(ctx context.Context, id int64) error {
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := e.store.Glyphs().Delete(ctx, id); err != nil {
		return mapDaoErr(err)
	}
	e.touchPersisted()
	return nil
}

// ForceDeleteGlyph unlinks the glyph from every grapheme's composition
// before deleting it.
func (e *Engine) ForceDeleteGlyph(ctx context.Context, id int64) error {
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := e.store.Glyphs().ForceDelete(ctx, id); err != nil {
		return mapDaoErr(err)
	}
	e.touchPersisted()
	return nil
}

// CascadeDeleteGlyph deletes every grapheme that references this glyph,
// then the glyph itself. Cascading into graphemes may in turn be
// blocked by lexicon references on one of those graphemes, in which
// case the whole operation fails with CONSTRAINT_VIOLATION and nothing
// is deleted.
func (e *Engine) CascadeDeleteGlyph(ctx context.Context, id int64) error {
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := e.store.Glyphs().CascadeDelete(ctx, id); err != nil {
		return mapDaoErr(err)
	}
	e.touchPersisted()
	return nil
}

// CheckGlyphNameExists reports whether name is already in use by
// another glyph.
func (e *Engine) CheckGlyphNameExists(ctx context.Context, name string) (bool, error) {
	if err := e.requireReady(); err != nil {
		return false, err
	}
	exists, err := e.store.Glyphs().NameExists(ctx, name)
	if err != nil {
		return false, mapDaoErr(err)
	}
	return exists, nil
}

// autoManageGlyphs deletes every glyph with zero usage when the
// autoManageGlyphs setting is enabled, returning how many were removed.
// Safe to call unconditionally; it is a no-op when the setting is off.
func (e *Engine) autoManageGlyphs(ctx context.Context) int {
	if !e.settings.Get().AutoManageGlyphs {
		return 0
	}
	all, err := e.store.Glyphs().GetAllWithUsage(ctx)
	if err != nil {
		return 0
	}
	deleted := 0
	for _, g := range all {
		if g.UsageCount > 0 {
			continue
		}
		if err := e.store.Glyphs().Delete(ctx, g.ID); err == nil {
			deleted++
		}
	}
	return deleted
}
