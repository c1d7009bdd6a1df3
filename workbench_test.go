package etymolog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etymolog/etymolog/server/dao"
	"github.com/etymolog/etymolog/server/dao/inmem"
	"github.com/etymolog/etymolog/server/serr"
)

func newReadyEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(inmem.NewDatastore())
	require.NoError(t, <-e.Init(context.Background()))
	return e
}

func mustCreateGlyph(t *testing.T, e *Engine, name string) dao.Glyph {
	t.Helper()
	g, err := e.CreateGlyph(context.Background(), GlyphInput{Name: name, SVGData: "<svg/>"})
	require.NoError(t, err)
	return g
}

func Test_DeleteGrapheme_AutoSpellEntry_RepairsWithoutFlag(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	e := newReadyEngine(t)

	gl := mustCreateGlyph(t, e, "k-glyph")
	gr, err := e.CreateGrapheme(ctx, GraphemeInput{Name: "k"},
		[]GlyphComposition{{GlyphID: gl.ID, Position: 0}},
		[]PhonemeComposition{{Phoneme: "k", UseInAutoSpelling: true}})
	require.NoError(t, err)

	graphemeID := gr.ID
	entry, err := e.CreateLexiconEntry(ctx, LexiconInput{
		Lemma: "kat", Pronunciation: "kat", IsNative: true, AutoSpell: true,
		Spelling: LexiconSpellingInput{GlyphOrder: []SpellingEntryInput{{GraphemeID: &graphemeID}}},
	})
	require.NoError(t, err)
	assert.False(entry.NeedsAttention)

	result, err := e.DeleteGrapheme(ctx, graphemeID)
	require.NoError(t, err)
	assert.Equal(1, result.RepairedEntries)

	repaired, err := e.GetLexiconEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(repaired.NeedsAttention)
	assert.NotContains(repaired.GlyphOrder, "grapheme")
}

func Test_DeleteGrapheme_ManualEntry_FlagsNeedsAttention(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	e := newReadyEngine(t)

	gl := mustCreateGlyph(t, e, "t-glyph")
	gr, err := e.CreateGrapheme(ctx, GraphemeInput{Name: "t"},
		[]GlyphComposition{{GlyphID: gl.ID, Position: 0}},
		[]PhonemeComposition{{Phoneme: "t", UseInAutoSpelling: true}})
	require.NoError(t, err)

	graphemeID := gr.ID
	entry, err := e.CreateLexiconEntry(ctx, LexiconInput{
		Lemma: "tek", Pronunciation: "tek", IsNative: true, AutoSpell: false,
		Spelling: LexiconSpellingInput{GlyphOrder: []SpellingEntryInput{{GraphemeID: &graphemeID}}},
	})
	require.NoError(t, err)
	assert.False(entry.NeedsAttention)

	result, err := e.DeleteGrapheme(ctx, graphemeID)
	require.NoError(t, err)
	assert.Equal(1, result.RepairedEntries)

	repaired, err := e.GetLexiconEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(repaired.NeedsAttention)
}

func Test_DeleteGrapheme_NonReferencingEntryUntouched(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	e := newReadyEngine(t)

	gl := mustCreateGlyph(t, e, "s-glyph")
	gr, err := e.CreateGrapheme(ctx, GraphemeInput{Name: "s"},
		[]GlyphComposition{{GlyphID: gl.ID, Position: 0}}, nil)
	require.NoError(t, err)

	entry, err := e.CreateLexiconEntry(ctx, LexiconInput{
		Lemma: "unrelated", Pronunciation: "xyz", IsNative: true,
	})
	require.NoError(t, err)

	result, err := e.DeleteGrapheme(ctx, gr.ID)
	require.NoError(t, err)
	assert.Equal(0, result.RepairedEntries)

	untouched, err := e.GetLexiconEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(untouched.NeedsAttention)
}

func Test_UpdateAncestry_RejectsSelfAncestor(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	e := newReadyEngine(t)

	entry, err := e.CreateLexiconEntry(ctx, LexiconInput{Lemma: "a", Pronunciation: "a", IsNative: true})
	require.NoError(t, err)

	_, err = e.UpdateAncestry(ctx, entry.ID, []AncestryEdgeInput{{AncestorID: entry.ID, Type: dao.AncestryDerived}})
	require.Error(t, err)
	assert.ErrorIs(err, serr.ErrCycle)
}

func Test_UpdateAncestry_RejectsTransitiveCycle(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	e := newReadyEngine(t)

	a, err := e.CreateLexiconEntry(ctx, LexiconInput{Lemma: "a", Pronunciation: "a", IsNative: true})
	require.NoError(t, err)
	b, err := e.CreateLexiconEntry(ctx, LexiconInput{Lemma: "b", Pronunciation: "b", IsNative: true})
	require.NoError(t, err)

	// b derives from a
	_, err = e.UpdateAncestry(ctx, b.ID, []AncestryEdgeInput{{AncestorID: a.ID, Type: dao.AncestryDerived}})
	require.NoError(t, err)

	// a deriving from b would close a cycle
	_, err = e.UpdateAncestry(ctx, a.ID, []AncestryEdgeInput{{AncestorID: b.ID, Type: dao.AncestryDerived}})
	require.Error(t, err)
	assert.ErrorIs(err, serr.ErrCycle)

	// the rejected edge must not have been persisted
	ancestors, err := e.GetAllAncestorIds(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(ancestors)
}

func Test_UpdateAncestry_AcceptsValidChain(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	e := newReadyEngine(t)

	a, err := e.CreateLexiconEntry(ctx, LexiconInput{Lemma: "a", Pronunciation: "a", IsNative: true})
	require.NoError(t, err)
	b, err := e.CreateLexiconEntry(ctx, LexiconInput{Lemma: "b", Pronunciation: "b", IsNative: true})
	require.NoError(t, err)
	c, err := e.CreateLexiconEntry(ctx, LexiconInput{Lemma: "c", Pronunciation: "c", IsNative: true})
	require.NoError(t, err)

	_, err = e.UpdateAncestry(ctx, b.ID, []AncestryEdgeInput{{AncestorID: a.ID, Type: dao.AncestryDerived}})
	require.NoError(t, err)
	_, err = e.UpdateAncestry(ctx, c.ID, []AncestryEdgeInput{{AncestorID: b.ID, Type: dao.AncestryDerived}})
	require.NoError(t, err)

	ancestors, err := e.GetAllAncestorIds(ctx, c.ID)
	require.NoError(t, err)
	assert.ElementsMatch([]int64{a.ID, b.ID}, ancestors)

	descendants, err := e.GetAllDescendantIds(ctx, a.ID)
	require.NoError(t, err)
	assert.ElementsMatch([]int64{b.ID, c.ID}, descendants)
}

func Test_UpdateAncestry_DuplicateAncestorRejected(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	e := newReadyEngine(t)

	a, err := e.CreateLexiconEntry(ctx, LexiconInput{Lemma: "a", Pronunciation: "a", IsNative: true})
	require.NoError(t, err)
	b, err := e.CreateLexiconEntry(ctx, LexiconInput{Lemma: "b", Pronunciation: "b", IsNative: true})
	require.NoError(t, err)

	_, err = e.UpdateAncestry(ctx, b.ID, []AncestryEdgeInput{
		{AncestorID: a.ID, Type: dao.AncestryDerived},
		{AncestorID: a.ID, Type: dao.AncestryBorrowed},
	})
	require.Error(t, err)
	assert.ErrorIs(err, serr.ErrValidation)
}

func Test_Engine_NotReadyBeforeInit(t *testing.T) {
	assert := assert.New(t)
	e := NewEngine(inmem.NewDatastore())
	assert.False(e.Ready())

	_, err := e.CreateGlyph(context.Background(), GlyphInput{Name: "x", SVGData: "<svg/>"})
	require.Error(t, err)
	assert.ErrorIs(err, serr.ErrNotReady)
}

func Test_UpdateAncestry_SameEdgesTwiceIsNoOp(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	e := newReadyEngine(t)

	a, err := e.CreateLexiconEntry(ctx, LexiconInput{Lemma: "a", Pronunciation: "a", IsNative: true})
	require.NoError(t, err)
	b, err := e.CreateLexiconEntry(ctx, LexiconInput{Lemma: "b", Pronunciation: "b", IsNative: true})
	require.NoError(t, err)

	edges := []AncestryEdgeInput{{AncestorID: a.ID, Type: dao.AncestryDerived}}
	_, err = e.UpdateAncestry(ctx, b.ID, edges)
	require.NoError(t, err)

	firstAncestors, err := e.GetAllAncestorIds(ctx, b.ID)
	require.NoError(t, err)

	_, err = e.UpdateAncestry(ctx, b.ID, edges)
	require.NoError(t, err)

	secondAncestors, err := e.GetAllAncestorIds(ctx, b.ID)
	require.NoError(t, err)
	assert.ElementsMatch(firstAncestors, secondAncestors)
}

func Test_GetAllLexiconEntriesWithUsage_CountsTransitiveDescendants(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	e := newReadyEngine(t)

	a, err := e.CreateLexiconEntry(ctx, LexiconInput{Lemma: "a", Pronunciation: "a", IsNative: true})
	require.NoError(t, err)
	b, err := e.CreateLexiconEntry(ctx, LexiconInput{Lemma: "b", Pronunciation: "b", IsNative: true})
	require.NoError(t, err)
	c, err := e.CreateLexiconEntry(ctx, LexiconInput{Lemma: "c", Pronunciation: "c", IsNative: true})
	require.NoError(t, err)

	// b derives from a, c derives from b: a <- b <- c
	_, err = e.UpdateAncestry(ctx, b.ID, []AncestryEdgeInput{{AncestorID: a.ID, Type: dao.AncestryDerived}})
	require.NoError(t, err)
	_, err = e.UpdateAncestry(ctx, c.ID, []AncestryEdgeInput{{AncestorID: b.ID, Type: dao.AncestryDerived}})
	require.NoError(t, err)

	usage, err := e.GetAllLexiconEntriesWithUsage(ctx)
	require.NoError(t, err)

	counts := make(map[int64]int, len(usage))
	for _, u := range usage {
		counts[u.ID] = u.UsageCount
	}
	assert.Equal(2, counts[a.ID]) // both b and c descend from a
	assert.Equal(1, counts[b.ID])
	assert.Equal(0, counts[c.ID])
}

func Test_Engine_StatusReflectsCounts(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	e := newReadyEngine(t)

	mustCreateGlyph(t, e, "g1")
	_, err := e.CreateLexiconEntry(ctx, LexiconInput{Lemma: "word", Pronunciation: "word", IsNative: true})
	require.NoError(t, err)

	st, err := e.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(st.Initialized)
	assert.Equal(1, st.GlyphCount)
	assert.Equal(1, st.LexiconCount)
}
