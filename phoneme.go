package etymolog

import (
	"context"
	"strings"

	"github.com/etymolog/etymolog/server/dao"
	"github.com/etymolog/etymolog/server/serr"
)

// PhonemeInput is the caller-supplied shape for adding or updating a
// phoneme.
type PhonemeInput struct {
	GraphemeID        int64
	Phoneme           string
	UseInAutoSpelling bool
	Context           string
}

func (in PhonemeInput) validate() error {
	if in.GraphemeID < 1 {
		return serr.Validation("grapheme id must be positive")
	}
	if strings.TrimSpace(in.Phoneme) == "" {
		return serr.Validation("phoneme is required")
	}
	return nil
}

// AddPhoneme adds a new phoneme to a grapheme.
func (e *Engine) AddPhoneme(ctx context.Context, in PhonemeInput) (dao.Phoneme, error) {
	if err := e.requireReady(); err != nil {
		return dao.Phoneme{}, err
	}
	if err := in.validate(); err != nil {
		return dao.Phoneme{}, err
	}
	if _, err := e.store.Graphemes().GetByID(ctx, in.GraphemeID); err != nil {
		return dao.Phoneme{}, mapDaoErr(err)
	}
	added, err := e.store.Phonemes().Add(ctx, dao.Phoneme{
		GraphemeID: in.GraphemeID, Phoneme: in.Phoneme,
		UseInAutoSpelling: in.UseInAutoSpelling, Context: in.Context,
	})
	if err != nil {
		return dao.Phoneme{}, mapDaoErr(err)
	}
	e.touchPersisted()
	return added, nil
}

// GetPhoneme returns a phoneme by id.
func (e *Engine) GetPhoneme(ctx context.Context, id int64) (dao.Phoneme, error) {
	if err := e.requireReady(); err != nil {
		return dao.Phoneme{}, err
	}
	p, err := e.store.Phonemes().GetByID(ctx, id)
	if err != nil {
		return dao.Phoneme{}, mapDaoErr(err)
	}
	return p, nil
}

// GetPhonemesByGrapheme returns every phoneme belonging to a grapheme.
func (e *Engine) GetPhonemesByGrapheme(ctx context.Context, graphemeID int64) ([]dao.Phoneme, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	ps, err := e.store.Phonemes().GetByGraphemeID(ctx, graphemeID)
	if err != nil {
		return nil, mapDaoErr(err)
	}
	return ps, nil
}

// UpdatePhoneme overwrites a phoneme's mutable fields.
func (e *Engine) UpdatePhoneme(ctx context.Context, id int64, in PhonemeInput) (dao.Phoneme, error) {
	if err := e.requireReady(); err != nil {
		return dao.Phoneme{}, err
	}
	if strings.TrimSpace(in.Phoneme) == "" {
		return dao.Phoneme{}, serr.Validation("phoneme is required")
	}
	existing, err := e.store.Phonemes().GetByID(ctx, id)
	if err != nil {
		return dao.Phoneme{}, mapDaoErr(err)
	}
	existing.Phoneme = in.Phoneme
	existing.UseInAutoSpelling = in.UseInAutoSpelling
	existing.Context = in.Context
	updated, err := e.store.Phonemes().Update(ctx, id, existing)
	if err != nil {
		return dao.Phoneme{}, mapDaoErr(err)
	}
	e.touchPersisted()
	return updated, nil
}

// DeletePhoneme removes a single phoneme.
func (e *Engine) DeletePhoneme(ctx context.Context, id int64) error {
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := e.store.Phonemes().Delete(ctx, id); err != nil {
		return mapDaoErr(err)
	}
	e.touchPersisted()
	return nil
}

// DeleteAllPhonemesForGrapheme removes every phoneme owned by a
// grapheme.
func (e *Engine) DeleteAllPhonemesForGrapheme(ctx context.Context, graphemeID int64) error {
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := e.store.Phonemes().DeleteAllForGrapheme(ctx, graphemeID); err != nil {
		return mapDaoErr(err)
	}
	e.touchPersisted()
	return nil
}

// GetAutoSpellingPhonemes returns every phoneme flagged for use in
// auto-spelling, across all graphemes.
func (e *Engine) GetAutoSpellingPhonemes(ctx context.Context) ([]dao.Phoneme, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	ps, err := e.store.Phonemes().GetAutoSpelling(ctx)
	if err != nil {
		return nil, mapDaoErr(err)
	}
	return ps, nil
}
