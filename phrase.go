package etymolog

import (
	"context"

	"github.com/etymolog/etymolog/internal/foldcase"
	"github.com/etymolog/etymolog/internal/phonemap"
	"github.com/etymolog/etymolog/internal/phrase"
	"github.com/etymolog/etymolog/internal/settings"
	"github.com/etymolog/etymolog/internal/spelling"
)

// Translate tokenizes phrase, resolves each word against the lexicon or
// the fallback auto-spell matcher, and splices the result with
// configured word separators and line breaks. It is stateless and does
// not persist anything; the lexicon lookup and phoneme table are
// snapshotted fresh from the store for this one call.
func (e *Engine) Translate(ctx context.Context, text string) (phrase.Result, error) {
	if err := e.requireReady(); err != nil {
		return phrase.Result{}, err
	}

	table, err := e.buildPhonemeTable(ctx)
	if err != nil {
		return phrase.Result{}, err
	}

	// server/dao has no exact-lemma lookup, only a substring Search; narrow
	// its results down to an exact case-folded lemma match here.
	lookup := func(normalizedLemma string) ([]spelling.Entry, bool, bool) {
		matches, err := e.store.Lexicon().Search(ctx, normalizedLemma)
		if err != nil {
			return nil, false, false
		}
		for _, l := range matches {
			if foldcase.Equal(l.Lemma, normalizedLemma) {
				entries := spelling.Decode(l.GlyphOrder)
				return entries, spelling.HasIPAFallbacks(entries), true
			}
		}
		return nil, false, false
	}

	resolve := func(mark settings.Mark) settings.Resolution {
		return e.settings.Resolve(mark, func(id int64) bool {
			_, err := e.store.Graphemes().GetByID(ctx, id)
			return err == nil
		})
	}

	return phrase.Translate(text, lookup, table, resolve), nil
}
