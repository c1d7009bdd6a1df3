// Package phrase implements the stateless phrase translator: tokenize a
// phrase into words and line breaks, resolve each word against the
// lexicon or the auto-spell fallback matcher, and splice the results
// together with configured separators into one positioned spelling
// sequence.
package phrase

import (
	"strings"
	"time"
	"unicode"

	"github.com/etymolog/etymolog/internal/autospell"
	"github.com/etymolog/etymolog/internal/foldcase"
	"github.com/etymolog/etymolog/internal/phonemap"
	"github.com/etymolog/etymolog/internal/settings"
	"github.com/etymolog/etymolog/internal/spelling"
)

// Token is one unit produced by Tokenize: either a real word or a line
// break sentinel between two lines. Mark is set only for punctuation
// tokens produced by SplitPunctuation; it is empty for ordinary words.
type Token struct {
	Text       string
	Normalized string
	Position   int
	LineBreak  bool
	Mark       settings.Mark
}

func isHorizontalSpace(r rune) bool {
	return r == ' ' || r == '\t' || (unicode.IsSpace(r) && r != '\n')
}

// Tokenize splits phrase by newlines first, inserting a line-break
// sentinel token between consecutive lines, then splits each line on
// horizontal whitespace. Empty tokens are dropped. Position is a single
// monotonic counter across the whole token stream, sentinels included.
func Tokenize(phrase string) []Token {
	lines := strings.Split(phrase, "\n")

	var tokens []Token
	pos := 0
	for i, line := range lines {
		if i > 0 {
			tokens = append(tokens, Token{LineBreak: true, Position: pos})
			pos++
		}
		for _, word := range strings.FieldsFunc(line, isHorizontalSpace) {
			tokens = append(tokens, Token{
				Text:       word,
				Normalized: foldcase.Fold(strings.TrimSpace(word)),
				Position:   pos,
			})
			pos++
		}
	}
	return tokens
}

// TokenType identifies how a real token's spelling was produced.
type TokenType string

const (
	TypeLexicon   TokenType = "lexicon"
	TypeAutospell TokenType = "autospell"
)

// WordTranslation is the per-token translation result for one real
// token (line-break sentinels never appear here).
type WordTranslation struct {
	Token           Token
	Type            TokenType
	Spelling        []spelling.Entry
	HasIPAFallbacks bool
}

// SpellingItem is one entry of the combined, positioned output
// sequence.
type SpellingItem struct {
	Position int
	Entry    spelling.Entry
}

// Result is the full, immutable output of a translation. Nothing here
// is persisted.
type Result struct {
	Original         string
	Normalized       string
	Tokens           []WordTranslation
	Spelling         []SpellingItem
	HasVirtualGlyphs bool
	CreatedAt        time.Time
}

// LemmaLookup resolves a case-insensitively normalized lemma to a
// lexicon entry's spelling, if one exists. Callers back this with
// their lexicon repository.
type LemmaLookup func(normalizedLemma string) (entries []spelling.Entry, hasIPAFallbacks bool, found bool)

// SeparatorResolver resolves one punctuation mark to either nothing
// (hidden), a bound grapheme, or a default IPA character. Callers back
// this with a settings.Bag plus a grapheme-existence check.
type SeparatorResolver func(mark settings.Mark) settings.Resolution

// Translate tokenizes phrase, resolves each real token against lookup
// or, on a miss, against the fallback auto-spell matcher over table,
// and splices the results with word separators and line breaks per
// resolve. The returned Result is a snapshot; Translate performs no
// persistence.
func Translate(phrase string, lookup LemmaLookup, table phonemap.Table, resolve SeparatorResolver) Result {
	tokens := Tokenize(phrase)

	var normalizedWords []string
	var translations []WordTranslation
	var spellingOut []SpellingItem
	hasVirtual := false
	outPos := 0
	prevWasRealToken := false

	emit := func(e spelling.Entry) {
		spellingOut = append(spellingOut, SpellingItem{Position: outPos, Entry: e})
		outPos++
	}

	for _, tok := range tokens {
		if tok.LineBreak {
			emit(spelling.NewIPAChar("\n"))
			prevWasRealToken = false
			continue
		}

		if prevWasRealToken {
			res := resolve(settings.MarkWordSeparator)
			switch {
			case res.Hidden:
				// emit nothing
			case res.HasGrapheme:
				emit(spelling.NewGraphemeRef(res.GraphemeID))
			default:
				emit(spelling.NewIPAChar(res.IPA))
			}
		}

		var wt WordTranslation
		wt.Token = tok
		normalizedWords = append(normalizedWords, tok.Normalized)

		if entries, hasFallbacks, found := lookup(tok.Normalized); found {
			wt.Type = TypeLexicon
			wt.Spelling = entries
			wt.HasIPAFallbacks = hasFallbacks
		} else {
			wt.Type = TypeAutospell
			result, _ := autospell.Match(tok.Text, table, autospell.Fallback)
			entries := make([]spelling.Entry, 0, len(result.Segments))
			for _, seg := range result.Segments {
				if seg.IsVirtual {
					entries = append(entries, spelling.NewIPAChar(seg.Text))
				} else {
					entries = append(entries, spelling.NewGraphemeRef(seg.GraphemeID))
				}
			}
			wt.Spelling = entries
			wt.HasIPAFallbacks = spelling.HasIPAFallbacks(entries)
		}

		if wt.HasIPAFallbacks {
			hasVirtual = true
		}
		for _, e := range wt.Spelling {
			emit(e)
		}

		translations = append(translations, wt)
		prevWasRealToken = true
	}

	return Result{
		Original:         phrase,
		Normalized:       strings.Join(normalizedWords, " "),
		Tokens:           translations,
		Spelling:         spellingOut,
		HasVirtualGlyphs: hasVirtual,
		CreatedAt:        time.Now(),
	}
}

// punctuationMarks maps a leading/trailing rune to the punctuation mark
// it represents. Order is not significant; lookups are by rune.
var punctuationMarks = map[rune]settings.Mark{
	'.':  settings.MarkSentence,
	',':  settings.MarkComma,
	'?':  settings.MarkQuestion,
	'!':  settings.MarkExclamation,
	':':  settings.MarkColon,
	';':  settings.MarkSemicolon,
	'…':  settings.MarkEllipsis,
	'“':  settings.MarkQuotationOpen,
	'‘':  settings.MarkQuotationOpen,
	'”':  settings.MarkQuotationClose,
	'’':  settings.MarkQuotationClose,
}

// SplitPunctuation tokenizes line the same way Tokenize does, then peels
// leading and trailing punctuation runes (per punctuationMarks) off each
// word into their own Mark-tagged tokens. It is a pure pre-pass callers
// may compose in front of Translate; the baseline Translate path does
// not invoke it itself. Positions remain monotonic across the returned
// token list.
func SplitPunctuation(line string) []Token {
	var out []Token
	pos := 0

	emitWord := func(text string) {
		if text == "" {
			return
		}
		out = append(out, Token{
			Text:       text,
			Normalized: foldcase.Fold(strings.TrimSpace(text)),
			Position:   pos,
		})
		pos++
	}
	emitMark := func(r rune) {
		m, ok := punctuationMarks[r]
		if !ok {
			return
		}
		out = append(out, Token{Text: string(r), Position: pos, Mark: m})
		pos++
	}

	for _, word := range strings.FieldsFunc(line, isHorizontalSpace) {
		runes := []rune(word)

		start := 0
		var leading []rune
		for start < len(runes) {
			if _, ok := punctuationMarks[runes[start]]; !ok {
				break
			}
			leading = append(leading, runes[start])
			start++
		}

		end := len(runes)
		var trailing []rune
		for end > start {
			if _, ok := punctuationMarks[runes[end-1]]; !ok {
				break
			}
			trailing = append([]rune{runes[end-1]}, trailing...)
			end--
		}

		for _, r := range leading {
			emitMark(r)
		}
		emitWord(string(runes[start:end]))
		for _, r := range trailing {
			emitMark(r)
		}
	}

	return out
}
