package phrase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etymolog/etymolog/internal/phonemap"
	"github.com/etymolog/etymolog/internal/settings"
	"github.com/etymolog/etymolog/internal/spelling"
)

func spaceResolver(mark settings.Mark) settings.Resolution {
	if mark == settings.MarkWordSeparator {
		return settings.Resolution{IPA: " "}
	}
	return settings.Resolution{IPA: settings.DefaultIPA(mark)}
}

func Test_Tokenize_SimplePhrase(t *testing.T) {
	assert := assert.New(t)

	toks := Tokenize("hello world")
	require.Len(t, toks, 2)
	assert.Equal("hello", toks[0].Text)
	assert.Equal("hello", toks[0].Normalized)
	assert.Equal(0, toks[0].Position)
	assert.Equal("world", toks[1].Text)
	assert.Equal("world", toks[1].Normalized)
	assert.Equal(1, toks[1].Position)
}

func Test_Tokenize_MultiSpaceAndCase(t *testing.T) {
	assert := assert.New(t)

	toks := Tokenize("Hello    WORLD")
	require.Len(t, toks, 2)
	assert.Equal("Hello", toks[0].Text)
	assert.Equal("hello", toks[0].Normalized)
	assert.Equal("WORLD", toks[1].Text)
	assert.Equal("world", toks[1].Normalized)
}

func Test_Tokenize_LineBreakSentinel(t *testing.T) {
	assert := assert.New(t)

	toks := Tokenize("foo\nbar")
	require.Len(t, toks, 3)
	assert.Equal("foo", toks[0].Text)
	assert.True(toks[1].LineBreak)
	assert.Equal("bar", toks[2].Text)
}

func Test_Tokenize_EmptyTokensDropped(t *testing.T) {
	assert := assert.New(t)

	toks := Tokenize("  foo  \t bar  ")
	require.Len(t, toks, 2)
	assert.Equal("foo", toks[0].Text)
	assert.Equal("bar", toks[1].Text)
}

func Test_Translate_AutospellFallback(t *testing.T) {
	assert := assert.New(t)

	lookup := func(lemma string) ([]spelling.Entry, bool, bool) {
		if lemma == "hello" {
			return nil, false, true
		}
		return nil, false, false
	}

	table := phonemap.Build(nil)

	result := Translate("hello xyz", lookup, table, spaceResolver)

	require.Len(t, result.Tokens, 2)
	assert.Equal(TypeLexicon, result.Tokens[0].Type)
	assert.Equal(TypeAutospell, result.Tokens[1].Type)
	assert.True(result.HasVirtualGlyphs)

	// combined spelling includes a space separator entry between words
	foundSpace := false
	for _, item := range result.Spelling {
		if item.Entry.Kind == spelling.IPAChar && item.Entry.IPA == " " {
			foundSpace = true
		}
	}
	assert.True(foundSpace)

	// positions are sequential starting at 0
	for i, item := range result.Spelling {
		assert.Equal(i, item.Position)
	}
}

func Test_Translate_LineBreakEmitsNewlineAndSuppressesSeparator(t *testing.T) {
	assert := assert.New(t)

	lookup := func(string) ([]spelling.Entry, bool, bool) { return nil, false, false }
	table := phonemap.Build(nil)

	result := Translate("foo\nbar", lookup, table, spaceResolver)

	var sawNewline bool
	var sawSpace bool
	for _, item := range result.Spelling {
		if item.Entry.Kind == spelling.IPAChar && item.Entry.IPA == "\n" {
			sawNewline = true
		}
		if item.Entry.Kind == spelling.IPAChar && item.Entry.IPA == " " {
			sawSpace = true
		}
	}
	assert.True(sawNewline)
	assert.False(sawSpace)
}

func Test_Translate_PositionsMonotonic(t *testing.T) {
	assert := assert.New(t)

	lookup := func(string) ([]spelling.Entry, bool, bool) { return nil, false, false }
	table := phonemap.Build(nil)

	result := Translate("one two three", lookup, table, spaceResolver)
	for i, item := range result.Spelling {
		assert.Equal(i, item.Position)
	}
}

func Test_SplitPunctuation_TrailingMark(t *testing.T) {
	assert := assert.New(t)

	toks := SplitPunctuation("hello, world!")
	require.Len(t, toks, 4)
	assert.Equal("hello", toks[0].Text)
	assert.Equal(settings.Mark(""), toks[0].Mark)
	assert.Equal(",", toks[1].Text)
	assert.Equal(settings.MarkComma, toks[1].Mark)
	assert.Equal("world", toks[2].Text)
	assert.Equal("!", toks[3].Text)
	assert.Equal(settings.MarkExclamation, toks[3].Mark)
}

func Test_SplitPunctuation_LeadingAndTrailing(t *testing.T) {
	assert := assert.New(t)

	toks := SplitPunctuation("“quoted”")
	require.Len(t, toks, 3)
	assert.Equal("“", toks[0].Text)
	assert.Equal(settings.MarkQuotationOpen, toks[0].Mark)
	assert.Equal("quoted", toks[1].Text)
	assert.Equal("”", toks[2].Text)
	assert.Equal(settings.MarkQuotationClose, toks[2].Mark)
}

func Test_SplitPunctuation_PositionsMonotonic(t *testing.T) {
	assert := assert.New(t)

	toks := SplitPunctuation("one, two; three.")
	for i, tok := range toks {
		assert.Equal(i, tok.Position)
	}
}
