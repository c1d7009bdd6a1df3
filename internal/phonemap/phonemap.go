// Package phonemap builds the derived phoneme -> grapheme table that
// drives auto-spelling. The table is a pure function of the current set
// of auto-spell-enabled phonemes; it holds no state of its own beyond
// what is passed to Build.
package phonemap

import "sort"

// Phoneme is one (grapheme, IPA string) pair eligible for auto-spelling,
// i.e. a phoneme row with use_in_auto_spelling = true.
type Phoneme struct {
	GraphemeID int64
	Text       string
}

// Mapping is one resolved phoneme -> grapheme winner.
type Mapping struct {
	Phoneme    string
	GraphemeID int64
}

// Table is the resolved phoneme -> grapheme map. The zero value is an
// empty table.
type Table struct {
	byPhoneme map[string]int64
	order     []string // first-appearance order of input, for determinism
}

// Build folds the given phonemes down to one winner per distinct phoneme
// string: ties are resolved by keeping the smallest grapheme id (first
// created wins), per the data model's tie-break rule.
func Build(phonemes []Phoneme) Table {
	t := Table{byPhoneme: make(map[string]int64, len(phonemes))}

	for _, p := range phonemes {
		existing, ok := t.byPhoneme[p.Text]
		if !ok {
			t.byPhoneme[p.Text] = p.GraphemeID
			t.order = append(t.order, p.Text)
			continue
		}
		if p.GraphemeID < existing {
			t.byPhoneme[p.Text] = p.GraphemeID
		}
	}

	return t
}

// Empty returns whether the table has no entries. Per the failure mode
// in the spec, matchers must surface a distinct error kind when this is
// true rather than silently segmenting nothing.
func (t Table) Empty() bool {
	return len(t.byPhoneme) == 0
}

// Lookup returns the grapheme id assigned to phoneme and whether it is
// present.
func (t Table) Lookup(phoneme string) (int64, bool) {
	id, ok := t.byPhoneme[phoneme]
	return id, ok
}

// Mappings returns the list of unique phonemes with their assigned
// grapheme id, in first-appearance order of the input given to Build.
func (t Table) Mappings() []Mapping {
	out := make([]Mapping, 0, len(t.order))
	for _, p := range t.order {
		out = append(out, Mapping{Phoneme: p, GraphemeID: t.byPhoneme[p]})
	}
	return out
}

// SortedByLengthDesc returns Mappings() ordered by phoneme length
// descending, with ties broken by the first-appearance order from
// Build. The matcher in internal/autospell does not use this ordering:
// it precomputes its transitions over Mappings() order.
func (t Table) SortedByLengthDesc() []Mapping {
	ms := t.Mappings()
	sort.SliceStable(ms, func(i, j int) bool {
		return len([]rune(ms[i].Phoneme)) > len([]rune(ms[j].Phoneme))
	})
	return ms
}
