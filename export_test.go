package etymolog

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etymolog/etymolog/server/serr"
)

func seedWorkbench(t *testing.T, e *Engine) {
	t.Helper()
	ctx := context.Background()

	gl := mustCreateGlyph(t, e, "a-glyph")
	gr, err := e.CreateGrapheme(ctx, GraphemeInput{Name: "a", Category: "vowel"},
		[]GlyphComposition{{GlyphID: gl.ID, Position: 0}},
		[]PhonemeComposition{{Phoneme: "a", UseInAutoSpelling: true}})
	require.NoError(t, err)

	graphemeID := gr.ID
	root, err := e.CreateLexiconEntry(ctx, LexiconInput{
		Lemma: "ama", Pronunciation: "ama", IsNative: true, Meaning: "mother",
		Spelling: LexiconSpellingInput{GlyphOrder: []SpellingEntryInput{{GraphemeID: &graphemeID}}},
	})
	require.NoError(t, err)

	child, err := e.CreateLexiconEntry(ctx, LexiconInput{Lemma: "amata", Pronunciation: "amata", IsNative: true})
	require.NoError(t, err)

	_, err = e.UpdateAncestry(ctx, child.ID, []AncestryEdgeInput{{AncestorID: root.ID}})
	require.NoError(t, err)
}

func Test_Export_Import_RoundTrip_Binary(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	e := newReadyEngine(t)
	seedWorkbench(t, e)

	blob, err := e.Export(ctx, FormatBinary)
	require.NoError(t, err)
	require.NotEmpty(t, blob)

	before, err := e.GetAllLexiconEntries(ctx)
	require.NoError(t, err)

	require.NoError(t, e.Import(ctx, FormatBinary, blob))

	after, err := e.GetAllLexiconEntries(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before))

	glyphs, err := e.GetAllGlyphs(ctx)
	require.NoError(t, err)
	assert.Len(glyphs, 1)

	graphemes, err := e.GetAllGraphemes(ctx)
	require.NoError(t, err)
	assert.Len(graphemes, 1)
}

func Test_Export_Import_RoundTrip_JSON(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	e := newReadyEngine(t)
	seedWorkbench(t, e)

	blob, err := e.Export(ctx, FormatJSON)
	require.NoError(t, err)
	require.NotEmpty(t, blob)

	require.NoError(t, e.Import(ctx, FormatJSON, blob))

	lex, err := e.GetAllLexiconEntries(ctx)
	require.NoError(t, err)
	assert.Len(lex, 2)

	var childID int64
	for _, l := range lex {
		if l.Lemma == "amata" {
			childID = l.ID
		}
	}
	require.NotZero(t, childID)

	ancestors, err := e.GetAllAncestorIds(ctx, childID)
	require.NoError(t, err)
	assert.Len(ancestors, 1)
}

func Test_Import_JSON_RejectsTamperedChecksum(t *testing.T) {
	ctx := context.Background()
	e := newReadyEngine(t)
	seedWorkbench(t, e)

	blob, err := e.Export(ctx, FormatJSON)
	require.NoError(t, err)

	// change one value inside the lexicon table while keeping the JSON
	// well-formed, so only the checksum comparison can reject it.
	require.True(t, bytes.Contains(blob, []byte(`"mother"`)))
	tampered := bytes.Replace(blob, []byte(`"mother"`), []byte(`"mothex"`), 1)

	err = e.Import(ctx, FormatJSON, tampered)
	require.Error(t, err)
	assert.ErrorIs(t, err, serr.ErrValidation)
}

func Test_Import_JSON_RejectsWrongMagic(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	e := newReadyEngine(t)

	err := e.Import(ctx, FormatJSON, []byte(`{"magic":"NOT_IT","version":1,"tables":{}}`))
	require.Error(t, err)
	assert.ErrorIs(err, serr.ErrValidation)
}

func Test_Import_Binary_RejectsTruncatedBlob(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	e := newReadyEngine(t)
	seedWorkbench(t, e)

	blob, err := e.Export(ctx, FormatBinary)
	require.NoError(t, err)
	require.True(t, len(blob) > 4)

	err = e.Import(ctx, FormatBinary, blob[:len(blob)-4])
	require.Error(t, err)
	assert.ErrorIs(err, serr.ErrValidation)
}
