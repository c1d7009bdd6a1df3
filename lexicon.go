package etymolog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/etymolog/etymolog/internal/ancestry"
	"github.com/etymolog/etymolog/internal/autospell"
	"github.com/etymolog/etymolog/internal/spelling"
	"github.com/etymolog/etymolog/server/dao"
	"github.com/etymolog/etymolog/server/serr"
)

// SpellingEntryInput is one element of a glyph_order sequence as
// supplied by a caller: either a grapheme reference or a literal IPA
// character.
type SpellingEntryInput struct {
	GraphemeID *int64
	IPA        string
}

// LegacySpellingInput is one element of the legacy (grapheme_id,
// position) spelling list format.
type LegacySpellingInput struct {
	GraphemeID int64
	Position   int
}

// LexiconSpellingInput carries both accepted shapes for a lexicon
// entry's spelling; GlyphOrder wins when both are supplied.
type LexiconSpellingInput struct {
	GlyphOrder []SpellingEntryInput
	Spelling   []LegacySpellingInput
}

func resolveGlyphOrder(in LexiconSpellingInput) (string, error) {
	if len(in.GlyphOrder) > 0 {
		entries := make([]spelling.Entry, len(in.GlyphOrder))
		for i, item := range in.GlyphOrder {
			switch {
			case item.GraphemeID != nil:
				if *item.GraphemeID < 1 {
					return "", serr.Validation("grapheme id must be positive")
				}
				entries[i] = spelling.NewGraphemeRef(*item.GraphemeID)
			case item.IPA != "":
				entries[i] = spelling.NewIPAChar(item.IPA)
			default:
				return "", serr.Validation("spelling entry must set either a grapheme id or an IPA character")
			}
		}
		return spelling.Encode(entries), nil
	}
	if len(in.Spelling) > 0 {
		legacy := append([]LegacySpellingInput(nil), in.Spelling...)
		sort.Slice(legacy, func(i, j int) bool { return legacy[i].Position < legacy[j].Position })
		entries := make([]spelling.Entry, len(legacy))
		for i, l := range legacy {
			if l.GraphemeID < 1 {
				return "", serr.Validation("grapheme id must be positive")
			}
			entries[i] = spelling.NewGraphemeRef(l.GraphemeID)
		}
		return spelling.Encode(entries), nil
	}
	return spelling.Encode(nil), nil
}

// LexiconInput is the caller-supplied shape for creating a lexicon
// entry.
type LexiconInput struct {
	Lemma         string
	Pronunciation string
	IsNative      bool
	AutoSpell     bool
	Meaning       string
	PartOfSpeech  string
	Notes         string
	Spelling      LexiconSpellingInput
}

// CreateLexiconEntry creates a new lexicon entry, encoding its spelling
// input (glyph_order preferred, falling back to the legacy spelling
// list) via C1.
func (e *Engine) CreateLexiconEntry(ctx context.Context, in LexiconInput) (dao.Lexicon, error) {
	if err := e.requireReady(); err != nil {
		return dao.Lexicon{}, err
	}
	if strings.TrimSpace(in.Lemma) == "" {
		return dao.Lexicon{}, serr.Validation("lemma is required")
	}
	glyphOrder, err := resolveGlyphOrder(in.Spelling)
	if err != nil {
		return dao.Lexicon{}, err
	}
	created, err := e.store.Lexicon().Create(ctx, dao.Lexicon{
		Lemma: in.Lemma, Pronunciation: in.Pronunciation, IsNative: in.IsNative,
		AutoSpell: in.AutoSpell, Meaning: in.Meaning, PartOfSpeech: in.PartOfSpeech,
		Notes: in.Notes, GlyphOrder: glyphOrder,
	})
	if err != nil {
		return dao.Lexicon{}, mapDaoErr(err)
	}
	e.touchPersisted()
	return created, nil
}

// SpellingDisplayEntry is one resolved element of a lexicon entry's
// spelling display: a decoded spelling.Entry with its grapheme
// reference (if any) resolved to the current grapheme record.
type SpellingDisplayEntry struct {
	Kind       spelling.Kind
	GraphemeID int64
	IPA        string
	Grapheme   *dao.Grapheme // set only when Kind == GraphemeRef and the grapheme still exists
}

// LexiconComplete bundles a lexicon entry with its resolved spelling
// display.
type LexiconComplete struct {
	dao.Lexicon
	SpellingDisplay []SpellingDisplayEntry
	HasIPAFallbacks bool
}

// buildLexiconComplete resolves l's glyph_order into a spelling
// display: each grapheme-ref is resolved against the current grapheme
// table; a reference to a grapheme that no longer exists is rendered as
// a synthetic "[?{id}]" IPA entry rather than erroring, per §4.4's
// getComplete contract. This never mutates storage.
func (e *Engine) buildLexiconComplete(ctx context.Context, l dao.Lexicon) (LexiconComplete, error) {
	entries := spelling.Decode(l.GlyphOrder)
	display := make([]SpellingDisplayEntry, len(entries))
	hasFallback := false
	for i, en := range entries {
		if en.Kind == spelling.IPAChar {
			display[i] = SpellingDisplayEntry{Kind: spelling.IPAChar, IPA: en.IPA}
			hasFallback = true
			continue
		}
		g, err := e.store.Graphemes().GetByID(ctx, en.GraphemeID)
		if err != nil {
			display[i] = SpellingDisplayEntry{Kind: spelling.IPAChar, IPA: fmt.Sprintf("[?%d]", en.GraphemeID)}
			hasFallback = true
			continue
		}
		gCopy := g
		display[i] = SpellingDisplayEntry{Kind: spelling.GraphemeRef, GraphemeID: en.GraphemeID, Grapheme: &gCopy}
	}
	return LexiconComplete{Lexicon: l, SpellingDisplay: display, HasIPAFallbacks: hasFallback}, nil
}

// GetLexiconEntry returns a lexicon entry by id.
func (e *Engine) GetLexiconEntry(ctx context.Context, id int64) (dao.Lexicon, error) {
	if err := e.requireReady(); err != nil {
		return dao.Lexicon{}, err
	}
	l, err := e.store.Lexicon().GetByID(ctx, id)
	if err != nil {
		return dao.Lexicon{}, mapDaoErr(err)
	}
	return l, nil
}

// GetLexiconEntryComplete returns a lexicon entry with its resolved
// spelling display.
func (e *Engine) GetLexiconEntryComplete(ctx context.Context, id int64) (LexiconComplete, error) {
	if err := e.requireReady(); err != nil {
		return LexiconComplete{}, err
	}
	l, err := e.store.Lexicon().GetByID(ctx, id)
	if err != nil {
		return LexiconComplete{}, mapDaoErr(err)
	}
	return e.buildLexiconComplete(ctx, l)
}

// GetAllLexiconEntries returns every lexicon entry, sorted per §4.4
// (needs_attention desc, then coalesce(pronunciation, lemma) asc).
func (e *Engine) GetAllLexiconEntries(ctx context.Context) ([]dao.Lexicon, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	ls, err := e.store.Lexicon().GetAll(ctx)
	if err != nil {
		return nil, mapDaoErr(err)
	}
	return ls, nil
}

// GetAllLexiconEntriesComplete returns every lexicon entry with its
// resolved spelling display, in the same order as GetAllLexiconEntries.
func (e *Engine) GetAllLexiconEntriesComplete(ctx context.Context) ([]LexiconComplete, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	ls, err := e.store.Lexicon().GetAll(ctx)
	if err != nil {
		return nil, mapDaoErr(err)
	}
	out := make([]LexiconComplete, len(ls))
	for i, l := range ls {
		c, err := e.buildLexiconComplete(ctx, l)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// GetAllLexiconEntriesWithUsage returns every lexicon entry paired with
// its descendant count.
func (e *Engine) GetAllLexiconEntriesWithUsage(ctx context.Context) ([]dao.LexiconUsage, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	ls, err := e.store.Lexicon().GetAllWithUsage(ctx)
	if err != nil {
		return nil, mapDaoErr(err)
	}
	return ls, nil
}

// SearchLexicon matches query case-insensitively against pronunciation,
// meaning, or lemma.
func (e *Engine) SearchLexicon(ctx context.Context, query string) ([]dao.Lexicon, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	ls, err := e.store.Lexicon().Search(ctx, query)
	if err != nil {
		return nil, mapDaoErr(err)
	}
	return ls, nil
}

// GetLexiconByNative returns every entry with the given is_native flag.
func (e *Engine) GetLexiconByNative(ctx context.Context, isNative bool) ([]dao.Lexicon, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	ls, err := e.store.Lexicon().GetByNative(ctx, isNative)
	if err != nil {
		return nil, mapDaoErr(err)
	}
	return ls, nil
}

// LexiconUpdateInput is the caller-supplied shape for updating a
// lexicon entry's own fields. Spelling is not touched here; use
// SetLexiconSpelling or ApplyAutoSpelling for that.
type LexiconUpdateInput struct {
	Lemma          string
	Pronunciation  string
	IsNative       bool
	AutoSpell      bool
	Meaning        string
	PartOfSpeech   string
	Notes          string
	NeedsAttention bool
}

// UpdateLexiconEntry overwrites a lexicon entry's own fields, including
// needs_attention (the one place other than the repair protocol and
// setGlyphOrder that the flag may change), leaving glyph_order intact.
func (e *Engine) UpdateLexiconEntry(ctx context.Context, id int64, in LexiconUpdateInput) (dao.Lexicon, error) {
	if err := e.requireReady(); err != nil {
		return dao.Lexicon{}, err
	}
	if strings.TrimSpace(in.Lemma) == "" {
		return dao.Lexicon{}, serr.Validation("lemma is required")
	}
	existing, err := e.store.Lexicon().GetByID(ctx, id)
	if err != nil {
		return dao.Lexicon{}, mapDaoErr(err)
	}
	existing.Lemma = in.Lemma
	existing.Pronunciation = in.Pronunciation
	existing.IsNative = in.IsNative
	existing.AutoSpell = in.AutoSpell
	existing.Meaning = in.Meaning
	existing.PartOfSpeech = in.PartOfSpeech
	existing.Notes = in.Notes
	existing.NeedsAttention = in.NeedsAttention
	updated, err := e.store.Lexicon().Update(ctx, id, existing)
	if err != nil {
		return dao.Lexicon{}, mapDaoErr(err)
	}
	e.touchPersisted()
	return updated, nil
}

// SetLexiconSpelling explicitly sets a lexicon entry's glyph_order,
// rebuilding its spelling junction and clearing needs_attention.
func (e *Engine) SetLexiconSpelling(ctx context.Context, id int64, in LexiconSpellingInput) (dao.Lexicon, error) {
	if err := e.requireReady(); err != nil {
		return dao.Lexicon{}, err
	}
	order, err := resolveGlyphOrder(in)
	if err != nil {
		return dao.Lexicon{}, err
	}
	updated, err := e.store.Lexicon().UpdateSpelling(ctx, id, order)
	if err != nil {
		return dao.Lexicon{}, mapDaoErr(err)
	}
	e.touchPersisted()
	return updated, nil
}

// DeleteLexiconEntry deletes an entry (junction rows, ancestry rows on
// both sides, then the row itself), then fully rebuilds the ancestry
// closure.
func (e *Engine) DeleteLexiconEntry(ctx context.Context, id int64) error {
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := e.store.Lexicon().Delete(ctx, id); err != nil {
		return mapDaoErr(err)
	}
	if err := e.rebuildAncestryClosure(ctx); err != nil {
		return err
	}
	e.touchPersisted()
	return nil
}

// AncestryEdgeInput is one ancestry edge as supplied by a caller to
// UpdateAncestry: lexiconID derives from AncestorID.
type AncestryEdgeInput struct {
	AncestorID int64
	Type       dao.AncestryType
}

// UpdateAncestry replaces the full set of ancestry edges for
// lexiconID. Each candidate edge is validated against a trial closure
// seeded from every other entry's edges (plus the edges already
// accepted earlier in this same call) before being accepted, so a
// would-be cycle is refused with CYCLE and nothing is persisted.
func (e *Engine) UpdateAncestry(ctx context.Context, lexiconID int64, inputs []AncestryEdgeInput) ([]dao.AncestryEdge, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	if _, err := e.store.Lexicon().GetByID(ctx, lexiconID); err != nil {
		return nil, mapDaoErr(err)
	}

	allEdges, err := e.store.Lexicon().AllEdges(ctx)
	if err != nil {
		return nil, serr.OperationFailed("loading ancestry edges", err)
	}
	var others []ancestry.Edge
	for _, ed := range allEdges {
		if ed.LexiconID == lexiconID {
			continue
		}
		others = append(others, toAncestryEdge(ed))
	}
	trial := ancestry.NewClosure()
	trial.Rebuild(others)

	newEdges := make([]dao.AncestryEdge, len(inputs))
	seen := map[int64]bool{}
	for i, in := range inputs {
		if in.AncestorID == lexiconID {
			return nil, serr.CycleDetected(fmt.Sprintf("entry %d cannot be its own ancestor", lexiconID))
		}
		if seen[in.AncestorID] {
			return nil, serr.Validation("duplicate ancestor in ancestry edge list")
		}
		seen[in.AncestorID] = true
		if trial.WouldCycle(lexiconID, in.AncestorID) {
			return nil, serr.CycleDetected(fmt.Sprintf("adding ancestor %d would create a cycle", in.AncestorID))
		}
		trial.Insert(lexiconID, in.AncestorID)
		newEdges[i] = dao.AncestryEdge{LexiconID: lexiconID, AncestorID: in.AncestorID, Position: i, Type: in.Type}
	}

	if err := e.store.Lexicon().SetAncestry(ctx, lexiconID, newEdges); err != nil {
		return nil, mapDaoErr(err)
	}
	if err := e.rebuildAncestryClosure(ctx); err != nil {
		return nil, err
	}
	e.touchPersisted()
	return newEdges, nil
}

// GetAncestryTree materializes the ancestry tree rooted at id, down to
// maxDepth (internal/ancestry.MaxDepth when maxDepth <= 0).
func (e *Engine) GetAncestryTree(ctx context.Context, id int64, maxDepth int) (ancestry.TreeNode, error) {
	if err := e.requireReady(); err != nil {
		return ancestry.TreeNode{}, err
	}
	if maxDepth <= 0 {
		maxDepth = ancestry.MaxDepth
	}
	edges, err := e.store.Lexicon().AllEdges(ctx)
	if err != nil {
		return ancestry.TreeNode{}, serr.OperationFailed("loading ancestry edges", err)
	}
	converted := make([]ancestry.Edge, len(edges))
	for i, ed := range edges {
		converted[i] = toAncestryEdge(ed)
	}
	return ancestry.Tree(id, converted, maxDepth), nil
}

// GetAllAncestorIds returns every id reachable as an ancestor of id, via
// the in-memory closure (O(1) w.r.t. the store).
func (e *Engine) GetAllAncestorIds(ctx context.Context, id int64) ([]int64, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closure.AncestorsOf(id), nil
}

// GetAllDescendantIds returns every id reachable as a descendant of id,
// via the in-memory closure.
func (e *Engine) GetAllDescendantIds(ctx context.Context, id int64) ([]int64, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closure.DescendantsOf(id), nil
}

// WouldCreateCycle reports whether adding an ancestry edge (child,
// ancestor) would introduce a cycle, per the O(1) closure check.
func (e *Engine) WouldCreateCycle(ctx context.Context, child, ancestor int64) (bool, error) {
	if err := e.requireReady(); err != nil {
		return false, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closure.WouldCycle(child, ancestor), nil
}

// AutoSpellResult is the outcome of a successful auto-spell match,
// reporting the lexicographic objective values alongside the produced
// sequence so a caller deciding whether to accept a fallback spelling
// can see how good it is.
type AutoSpellResult struct {
	Entries    []spelling.Entry
	Coverage   int
	EntryCount int
}

func (e *Engine) matchAutoSpelling(ctx context.Context, pronunciation string, mode autospell.Mode) (AutoSpellResult, error) {
	if err := e.requireReady(); err != nil {
		return AutoSpellResult{}, err
	}
	if strings.TrimSpace(pronunciation) == "" {
		return AutoSpellResult{}, serr.Validation("pronunciation is required")
	}
	table, err := e.buildPhonemeTable(ctx)
	if err != nil {
		return AutoSpellResult{}, err
	}
	result, err := autospell.Match(pronunciation, table, mode)
	if err != nil {
		var nc *autospell.NoCoverageError
		if errors.As(err, &nc) {
			return AutoSpellResult{}, serr.NoCoverage(nc.Unmatched)
		}
		return AutoSpellResult{}, serr.OperationFailed("auto-spell match failed", err)
	}
	entries := make([]spelling.Entry, len(result.Segments))
	for i, seg := range result.Segments {
		if seg.IsVirtual {
			entries[i] = spelling.NewIPAChar(seg.Text)
		} else {
			entries[i] = spelling.NewGraphemeRef(seg.GraphemeID)
		}
	}
	return AutoSpellResult{Entries: entries, Coverage: result.Coverage, EntryCount: result.Count}, nil
}

// GenerateAutoSpelling runs the strict auto-spell matcher against
// pronunciation: NO_COVERAGE if no full segmentation exists.
func (e *Engine) GenerateAutoSpelling(ctx context.Context, pronunciation string) (AutoSpellResult, error) {
	return e.matchAutoSpelling(ctx, pronunciation, autospell.Strict)
}

// PreviewAutoSpelling runs the fallback auto-spell matcher against
// pronunciation: gaps are filled with virtual glyphs, so it always
// produces a full sequence for non-empty input.
func (e *Engine) PreviewAutoSpelling(ctx context.Context, pronunciation string) (AutoSpellResult, error) {
	return e.matchAutoSpelling(ctx, pronunciation, autospell.Fallback)
}

// ApplyAutoSpelling generates a strict auto-spelling from the entry's
// own pronunciation and persists it as the entry's glyph_order. It
// fails with VALIDATION_ERROR if the entry has no pronunciation, and
// with NO_COVERAGE if the pronunciation has no full segmentation.
func (e *Engine) ApplyAutoSpelling(ctx context.Context, lexiconID int64) (dao.Lexicon, error) {
	if err := e.requireReady(); err != nil {
		return dao.Lexicon{}, err
	}
	entry, err := e.store.Lexicon().GetByID(ctx, lexiconID)
	if err != nil {
		return dao.Lexicon{}, mapDaoErr(err)
	}
	if strings.TrimSpace(entry.Pronunciation) == "" {
		return dao.Lexicon{}, serr.Validation("entry has no pronunciation to auto-spell")
	}
	res, err := e.GenerateAutoSpelling(ctx, entry.Pronunciation)
	if err != nil {
		return dao.Lexicon{}, err
	}
	order := spelling.Encode(res.Entries)
	updated, err := e.store.Lexicon().UpdateSpelling(ctx, lexiconID, order)
	if err != nil {
		return dao.Lexicon{}, mapDaoErr(err)
	}
	e.touchPersisted()
	return updated, nil
}
