// Package spelling implements the codec for a lexicon entry's ordered
// spelling sequence: the glyph_order source of truth described in the
// data model. A sequence is a mix of grapheme references and IPA
// fallback characters, encoded to and decoded from a single JSON string
// column.
package spelling

import (
	"encoding/json"
	"regexp"
	"strconv"
)

// Kind distinguishes the two shapes a spelling Entry can take.
type Kind int

const (
	// GraphemeRef is an entry that points at a grapheme by id.
	GraphemeRef Kind = iota
	// IPAChar is an entry carrying a literal (non-empty) IPA string.
	IPAChar
)

var graphemeRefPattern = regexp.MustCompile(`^grapheme-([1-9][0-9]*)$`)

// invalidGraphemeRefPattern matches grapheme references with a zero or
// negative id, which are not valid spelling entries.
var invalidGraphemeRefPattern = regexp.MustCompile(`^grapheme-(0+|-[0-9]+)$`)

// Entry is one element of a glyph_order sequence. Exactly one of
// GraphemeID (when Kind == GraphemeRef) or IPA (when Kind == IPAChar) is
// meaningful.
type Entry struct {
	Kind       Kind
	GraphemeID int64
	IPA        string
}

// NewGraphemeRef builds a GraphemeRef entry. It panics if id is not
// positive; callers that accept ids from untrusted input should validate
// separately and use Classify instead.
func NewGraphemeRef(id int64) Entry {
	if id < 1 {
		panic("spelling: grapheme id must be positive")
	}
	return Entry{Kind: GraphemeRef, GraphemeID: id}
}

// NewIPAChar builds an IPAChar entry. It panics on an empty string;
// callers that accept strings from untrusted input should validate
// separately and use Classify instead.
func NewIPAChar(s string) Entry {
	if s == "" {
		panic("spelling: IPA char must not be empty")
	}
	return Entry{Kind: IPAChar, IPA: s}
}

// String returns the normative textual representation of the entry:
// "grapheme-{id}" for a GraphemeRef, or the raw IPA string otherwise.
func (e Entry) String() string {
	if e.Kind == GraphemeRef {
		return "grapheme-" + strconv.FormatInt(e.GraphemeID, 10)
	}
	return e.IPA
}

// Classify applies the textual-representation predicate from the data
// model: any string matching ^grapheme-[1-9][0-9]*$ is a grapheme-ref;
// anything else (including the empty string) is an IPA-char, with the
// sole caveat that an empty string is not a valid entry at all and ok
// is returned false.
func Classify(s string) (e Entry, ok bool) {
	if m := graphemeRefPattern.FindStringSubmatch(s); m != nil {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return Entry{}, false
		}
		return Entry{Kind: GraphemeRef, GraphemeID: id}, true
	}
	if s == "" {
		return Entry{}, false
	}
	return Entry{Kind: IPAChar, IPA: s}, true
}

// Encode JSON-encodes an ordered sequence of spelling entries to the
// glyph_order payload. The encoding is deterministic: it is simply the
// array of each entry's String() form, in order.
func Encode(entries []Entry) string {
	strs := make([]string, len(entries))
	for i, e := range entries {
		strs[i] = e.String()
	}
	b, err := json.Marshal(strs)
	if err != nil {
		// strs is a []string; json.Marshal on a []string cannot fail.
		panic(err)
	}
	return string(b)
}

// Decode inverts Encode. It tolerates null, empty, or malformed input by
// returning an empty (nil) sequence rather than erroring: decode is a
// total function. Any element that fails Classify (the empty string) or
// that names a zero or negative grapheme id (grapheme-0, grapheme--1) is
// dropped rather than aborting the whole decode, so a corrupt single
// entry does not destroy the rest of a lexicon entry's spelling.
func Decode(raw string) []Entry {
	if raw == "" || raw == "null" {
		return nil
	}

	var strs []string
	if err := json.Unmarshal([]byte(raw), &strs); err != nil {
		return nil
	}

	entries := make([]Entry, 0, len(strs))
	for _, s := range strs {
		if invalidGraphemeRefPattern.MatchString(s) {
			continue
		}
		if e, ok := Classify(s); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// GraphemeIDSet returns the unique grapheme ids referenced by entries,
// in first-appearance order.
func GraphemeIDSet(entries []Entry) []int64 {
	seen := make(map[int64]bool, len(entries))
	var ids []int64
	for _, e := range entries {
		if e.Kind != GraphemeRef {
			continue
		}
		if seen[e.GraphemeID] {
			continue
		}
		seen[e.GraphemeID] = true
		ids = append(ids, e.GraphemeID)
	}
	return ids
}

// HasIPAFallbacks returns whether any entry in the sequence is an
// IPAChar entry.
func HasIPAFallbacks(entries []Entry) bool {
	for _, e := range entries {
		if e.Kind == IPAChar {
			return true
		}
	}
	return false
}
