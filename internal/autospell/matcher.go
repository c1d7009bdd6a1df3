// Package autospell implements the DP matcher that derives an auto-spell
// sequence from an IPA string and a phoneme -> grapheme table. See the
// spec's matcher section for the algorithm; this file is a direct
// transcription of it, with the lexicographic (coverage, -count)
// objective and deterministic tie-breaking.
package autospell

import (
	"errors"
	"fmt"

	"github.com/etymolog/etymolog/internal/phonemap"
)

// Mode selects whether gaps may be filled with virtual glyphs.
type Mode int

const (
	// Strict disallows virtual glyphs: a full segmentation must exist or
	// the match fails.
	Strict Mode = iota
	// Fallback fills gaps one IPA character at a time with virtual
	// glyphs, so a full output always exists for non-empty input.
	Fallback
)

// ErrEmptyInput is returned by Match (in either mode) when S is empty.
var ErrEmptyInput = errors.New("autospell: pronunciation is empty")

// NoCoverageError is returned by Match in Strict mode when no full
// segmentation of S exists under the phoneme map. It carries the
// longest matched prefix length and the unmatched suffix.
type NoCoverageError struct {
	MatchedPrefixLen int
	Unmatched        string
}

func (e *NoCoverageError) Error() string {
	return fmt.Sprintf("autospell: no full coverage; matched %d runes, unmatched %q", e.MatchedPrefixLen, e.Unmatched)
}

// Segment is one element of a Result: either a grapheme-ref match
// (consuming one or more IPA runes) or a virtual glyph standing in for
// exactly one unmatched IPA rune.
type Segment struct {
	Position   int
	IsVirtual  bool
	GraphemeID int64  // meaningful when !IsVirtual
	VirtualID  int32  // meaningful when IsVirtual
	Text       string // the IPA runes this segment consumed
}

// Result is the outcome of a successful Match.
type Result struct {
	Segments []Segment
	Coverage int // total IPA runes consumed by grapheme-ref matches
	Count    int // total segment count (refs + virtual glyphs)
}

type transition struct {
	coverage    int
	count       int
	prev        int
	mappingText string
	graphemeID  int64
	isSkip      bool
	skippedText string
	set         bool
}

// better reports whether a is strictly preferred to b under the
// lexicographic objective: maximize coverage, then minimize count.
func better(a, b transition) bool {
	if !b.set {
		return true
	}
	if a.coverage != b.coverage {
		return a.coverage > b.coverage
	}
	return a.count < b.count
}

type candidateMapping struct {
	idx   int // position in the canonical (first-appearance) mapping order; used for tie-breaking only
	text  string
	gID   int64
	runes int
}

// Match runs the DP segmentation of s against table in the given mode.
func Match(s string, table phonemap.Table, mode Mode) (Result, error) {
	if s == "" {
		return Result{}, ErrEmptyInput
	}

	runes := []rune(s)
	n := len(runes)

	mappings := table.Mappings()
	cands := make([]candidateMapping, len(mappings))
	for i, m := range mappings {
		cands[i] = candidateMapping{idx: i, text: m.Phoneme, gID: m.GraphemeID, runes: len([]rune(m.Phoneme))}
	}

	// matchesAt[i] = candidate mappings that are a prefix of runes[i:],
	// paired with their end position.
	matchesAt := make([][]struct {
		cand candidateMapping
		end  int
	}, n)
	for i := 0; i < n; i++ {
		for _, c := range cands {
			if c.runes == 0 || i+c.runes > n {
				continue
			}
			if string(runes[i:i+c.runes]) == c.text {
				matchesAt[i] = append(matchesAt[i], struct {
					cand candidateMapping
					end  int
				}{cand: c, end: i + c.runes})
			}
		}
	}

	dp := make([]transition, n+1)
	dp[0] = transition{coverage: 0, count: 0, prev: -1, set: true}

	for i := 1; i <= n; i++ {
		var best transition

		for j := 0; j < i; j++ {
			if !dp[j].set {
				continue
			}
			for _, m := range matchesAt[j] {
				if m.end != i {
					continue
				}
				cand := transition{
					coverage: dp[j].coverage + (i - j),
					count:    dp[j].count + 1,
					prev:     j,
					mappingText: m.cand.text,
					graphemeID:  m.cand.gID,
					set:         true,
				}
				if better(cand, best) {
					best = cand
				}
			}

			if mode == Fallback && j == i-1 {
				skip := transition{
					coverage:    dp[j].coverage,
					count:       dp[j].count + 1,
					prev:        j,
					isSkip:      true,
					skippedText: string(runes[i-1]),
					set:         true,
				}
				if better(skip, best) {
					best = skip
				}
			}
		}

		dp[i] = best
	}

	if !dp[n].set {
		if mode == Strict {
			longest := 0
			for i := n; i >= 0; i-- {
				if dp[i].set {
					longest = i
					break
				}
			}
			return Result{}, &NoCoverageError{
				MatchedPrefixLen: longest,
				Unmatched:        string(runes[longest:]),
			}
		}
		// Fallback mode always produces dp[n] because the skip
		// transition is always available from dp[n-1]; reaching here
		// indicates an invariant violation upstream (e.g. n == 0,
		// already excluded above).
		return Result{}, fmt.Errorf("autospell: internal error: fallback mode failed to reach end of input")
	}

	// Walk back from dp[n] and reverse.
	var path []transition
	for i := n; i > 0; i = dp[i].prev {
		path = append(path, dp[i])
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}

	segs := make([]Segment, len(path))
	for i, t := range path {
		if t.isSkip {
			segs[i] = Segment{
				Position:  i,
				IsVirtual: true,
				VirtualID: VirtualID(t.skippedText),
				Text:      t.skippedText,
			}
		} else {
			segs[i] = Segment{
				Position:   i,
				IsVirtual:  false,
				GraphemeID: t.graphemeID,
				Text:       t.mappingText,
			}
		}
	}

	return Result{Segments: segs, Coverage: dp[n].coverage, Count: dp[n].count}, nil
}
